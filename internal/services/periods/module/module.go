// Package module wires periods into the API using modkit
package module

import (
	"context"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/adapters/ingest/sheets"
	"namecensus/internal/adapters/ingest/workbook"
	modkit "namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	"namecensus/internal/platform/logger"
	"namecensus/internal/services/periods/archive"
	"namecensus/internal/services/periods/catalog"
	periodshttp "namecensus/internal/services/periods/http"
	periodsrepo "namecensus/internal/services/periods/repo"
	periodssvc "namecensus/internal/services/periods/service"
)

// Module serves /periods and exposes stored records to every other module
type Module struct {
	modkit.Built
	ports Ports
	svc   *periodssvc.Svc
}

// New constructs a periods module with the provided dependencies and options
// an Inject value passed through modkit.WithPorts replaces config driven collaborators
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("periods"), modkit.WithPrefix("/periods")}, opts...)

	var inj Inject
	if p, ok := b.Injected().(Inject); ok {
		inj = p
	}
	cfg := FromConfig(deps.Cfg)
	if inj.Options != nil {
		cfg = *inj.Options
	}
	log := logger.Named("periods")

	cat := inj.Catalog
	if cat == nil {
		c, err := catalog.Load(cfg.PeriodsFile)
		if err != nil {
			panic("periods module requires a period catalog: " + err.Error())
		}
		cat = c
	}

	fetch := inj.Fetcher
	if fetch == nil {
		mux := ingest.Mux{ingest.KindWorkbook: workbook.Reader{Root: cfg.WorkbookRoot}}
		if cfg.Sheets.CredentialsFile != "" || len(cfg.Sheets.CredentialsJSON) > 0 {
			sc, err := sheets.New(context.Background(), cfg.Sheets)
			if err != nil {
				log.Warn().Err(err).Msg("sheets source disabled")
			} else {
				mux[ingest.KindSheets] = sc
			}
		}
		fetch = mux
	}

	var arch periodssvc.Archiver
	if cfg.Archive && deps.CH != nil {
		arch = archive.New(deps.CH)
	}

	svc := periodssvc.New(deps.PG, periodsrepo.NewPG(), periodssvc.Options{
		Catalog:  cat,
		Fetcher:  fetch,
		Archiver: arch,
		Config: periodssvc.Config{
			BatchSize: cfg.BatchSize,
			Workers:   cfg.Workers,
			Archive:   cfg.Archive,
			LeaseTTL:  cfg.LeaseTTL,
		},
	})

	return &Module{Built: b, svc: svc, ports: Ports{Service: svc, Records: svc}}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { periodshttp.Register(rr, m.svc) })
}
