package httpkit

import (
	"net/http"

	"namecensus/internal/platform/net/middleware"
)

// CommonStack is the middleware chain in front of every /api/v1 route
func CommonStack() []func(http.Handler) http.Handler {
	return middleware.Stack(middleware.Options{})
}
