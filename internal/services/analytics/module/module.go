// Package module wires analytics into the API using modkit
package module

import (
	modkit "namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	analyticshttp "namecensus/internal/services/analytics/http"
	analyticsrepo "namecensus/internal/services/analytics/repo"
	analyticssvc "namecensus/internal/services/analytics/service"
)

// Module serves /analytics and exposes stored results to comparison and export
type Module struct {
	modkit.Built
	ports Ports
	svc   *analyticssvc.Svc
}

// New requires Needs with the periods records port through modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("analytics"), modkit.WithPrefix("/analytics")}, opts...)

	needs, ok := b.Injected().(Needs)
	if !ok || needs.Records == nil {
		panic("analytics module requires periods records port via modkit.WithPorts(Needs{...})")
	}

	svc := analyticssvc.New(deps.PG, analyticsrepo.NewPG(), needs.Records, FromConfig(deps.Cfg))
	return &Module{Built: b, svc: svc, ports: Ports{Service: svc, Results: svc}}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { analyticshttp.Register(rr, m.svc) })
}
