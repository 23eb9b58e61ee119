// Package net holds transport helpers shared by the http package and its middleware
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID returns the id assigned by the RequestID middleware, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
