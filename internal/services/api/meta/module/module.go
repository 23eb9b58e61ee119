// Package module mounts the meta endpoints
package module

import (
	"time"

	"namecensus/internal/core/version"
	modkit "namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	metahttp "namecensus/internal/services/api/meta/http"
)

// Module serves /meta; it exposes no ports
type Module struct {
	modkit.Built
	deps metahttp.Deps
}

// New captures the start time used for uptime
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)
	return &Module{Built: b, deps: metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   time.Now(),
		PG:          deps.PG,
		CH:          deps.CH,
		ReadyWithin: deps.Cfg.Prefix("CORE_").MayDuration("READY_TIMEOUT", 2*time.Second),
	}}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
