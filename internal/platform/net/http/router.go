package http

import "net/http"

// Handler is a plain handler func; JSONHandler and QueryHandler produce these
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules see of the mux
// GET and POST cover every census route, anything else goes through Handle
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)

	// Use applies to routes registered after it in the same scope
	Use(mw ...func(http.Handler) http.Handler)
	// Route opens a sub scope under pattern, used for /api/v1 and per module prefixes
	Route(pattern string, fn func(Router))

	Mux() http.Handler
}
