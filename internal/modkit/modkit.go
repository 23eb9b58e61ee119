// Package modkit wires service modules: shared deps in, routes and ports out
package modkit

import (
	"net/http"

	"namecensus/internal/modkit/module"
	"namecensus/internal/modkit/repokit"
	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"
	phttp "namecensus/internal/platform/net/http"
	str "namecensus/internal/platform/strings"
	"namecensus/internal/platform/store"
)

// Module is what api.Modules returns and what both binaries consume
type Module = module.Module

// Deps are the shared dependencies every module constructor receives
// CH is nil when the archive is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// Built is the outcome of applying Options; modules embed it for Name and Mount
type Built struct {
	name     string
	prefix   string
	mw       []func(http.Handler) http.Handler
	injected any
}

// Option adjusts a module before construction
type Option func(*Built)

// WithName overrides the module name
func WithName(name string) Option { return func(b *Built) { b.name = name } }

// WithPrefix overrides the mount path
func WithPrefix(prefix string) Option { return func(b *Built) { b.prefix = prefix } }

// WithMiddlewares appends per module middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.mw = append(b.mw, mw...) }
}

// WithPorts hands a module the ports it needs; the concrete type is owned by the receiving module
func WithPorts[T any](p T) Option { return func(b *Built) { b.injected = p } }

// Build applies defaults first, then overrides
func Build(defaults []Option, opts ...Option) Built {
	var b Built
	for _, o := range append(defaults, opts...) {
		o(&b)
	}
	return b
}

// Name returns the module name; blank panics
func (b Built) Name() string { return str.MustString(b.name, "module name") }

// Prefix returns the normalized mount path
func (b Built) Prefix() string { return str.MustPrefix(b.prefix) }

// Injected is the value passed through WithPorts, or nil
func (b Built) Injected() any { return b.injected }

// Mount scopes register under Prefix behind the module middleware
func (b Built) Mount(r phttp.Router, register func(phttp.Router)) {
	r.Route(b.Prefix(), func(sub phttp.Router) {
		if len(b.mw) > 0 {
			sub.Use(b.mw...)
		}
		register(sub)
	})
}
