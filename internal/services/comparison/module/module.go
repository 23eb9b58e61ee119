// Package module wires comparisons into the API using modkit
package module

import (
	modkit "namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	comparisonhttp "namecensus/internal/services/comparison/http"
	comparisonrepo "namecensus/internal/services/comparison/repo"
	comparisonsvc "namecensus/internal/services/comparison/service"
)

// Module serves /comparisons
type Module struct {
	modkit.Built
	ports Ports
	svc   *comparisonsvc.Svc
}

// New requires Needs with the periods and analytics ports through modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("comparisons"), modkit.WithPrefix("/comparisons")}, opts...)

	needs, ok := b.Injected().(Needs)
	if !ok || needs.Records == nil || needs.Results == nil {
		panic("comparison module requires periods and analytics ports via modkit.WithPorts(Needs{...})")
	}

	svc := comparisonsvc.New(deps.PG, comparisonrepo.NewPG(), needs.Records, needs.Results)
	return &Module{Built: b, svc: svc, ports: Ports{Service: svc, Results: svc}}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { comparisonhttp.Register(rr, m.svc) })
}
