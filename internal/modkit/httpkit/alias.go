// Package httpkit is the routing surface service modules import instead of the platform http package
package httpkit

import (
	"net/http"

	phttp "namecensus/internal/platform/net/http"
)

type (
	// Envelope is the JSON body every endpoint returns
	Envelope = phttp.Envelope
	// Response lets a handler choose its own status
	Response = phttp.Response
	// Handler is the registered handler shape
	Handler = phttp.Handler
	// Router is what modules mount on
	Router = phttp.Router
)

// Get mounts a GET handler with no bound input
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, phttp.Call(h)) }

// Post mounts a POST handler with no body
func Post(r Router, path string, h func(*http.Request) (any, error)) { r.Post(path, phttp.Call(h)) }

// PostJSON mounts a POST handler whose body is decoded and validated into T
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

// GetQuery mounts a GET handler whose query string is bound and validated into T
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, phttp.QueryHandler(h))
}

// Param returns a path parameter of the matched route
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }
