// Package middleware builds the request pipeline in front of every /api/v1 route
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Options tunes Stack; zero values take the defaults noted per field
type Options struct {
	// Origins allowed by CORS, default any
	Origins []string
	// Slow access log threshold, default 500ms
	Slow time.Duration
	// Timeout cancels the request context, default 30s
	Timeout time.Duration
}

// Stack returns the ordered middleware chain
// request id and scope come first so recovery and the access log can tag lines
func Stack(o Options) []func(http.Handler) http.Handler {
	if o.Slow <= 0 {
		o.Slow = 500 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if len(o.Origins) == 0 {
		o.Origins = []string{"*"}
	}
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		RequestScope,
		chimw.RealIP,
		RecoverJSON,
		chimw.NoCache,
		AccessLogZerolog(o.Slow),
		chicors.Handler(chicors.Options{
			AllowedOrigins: o.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
			MaxAge:         300,
		}),
		chimw.NewCompressor(flate.BestSpeed).Handler,
		chimw.Heartbeat("/health"),
		chimw.RedirectSlashes,
		chimw.StripSlashes,
		chimw.Timeout(o.Timeout),
	}
}
