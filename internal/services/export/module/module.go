// Package module wires export downloads into the API using modkit
package module

import (
	modkit "namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	exporthttp "namecensus/internal/services/export/http"
	exportsvc "namecensus/internal/services/export/service"
)

// Module serves /exports
type Module struct {
	modkit.Built
	ports Ports
	svc   *exportsvc.Svc
}

// New requires Needs with the periods, analytics and comparison ports through modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("exports"), modkit.WithPrefix("/exports")}, opts...)

	needs, ok := b.Injected().(Needs)
	if !ok || needs.Records == nil || needs.Analytics == nil || needs.Comparison == nil {
		panic("export module requires periods, analytics and comparison ports via modkit.WithPorts(Needs{...})")
	}

	svc := exportsvc.New(needs.Records, needs.Analytics, needs.Comparison, FromConfig(deps.Cfg))
	return &Module{Built: b, svc: svc, ports: Ports{Service: svc}}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { exporthttp.Register(rr, m.svc) })
}
