package http

import (
	"net/http"

	"namecensus/internal/platform/net/http/bind"
)

// JSONHandler decodes and validates a T body before calling fn
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return bound(bind.ParseJSON[T], fn)
}

// QueryHandler binds and validates T from the query string before calling fn
func QueryHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return bound(bind.ParseQuery[T], fn)
}

// Call wraps a handler with no bound input
func Call(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return result(fn(r)) })
}

func bound[T any](parse func(*http.Request) (T, error), fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := parse(r)
		if err != nil {
			return Error(err)
		}
		return result(fn(r, in))
	})
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}
