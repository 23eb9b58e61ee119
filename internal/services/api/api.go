// Package api provides the HTTP API for the application
package api

import (
	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/platform/store"

	"namecensus/internal/modkit"
	"namecensus/internal/modkit/httpkit"
	"namecensus/internal/modkit/module"
	"namecensus/internal/modkit/swaggerkit"

	analyticsmod "namecensus/internal/services/analytics/module"
	metamod "namecensus/internal/services/api/meta/module"
	comparisonmod "namecensus/internal/services/comparison/module"
	exportmod "namecensus/internal/services/export/module"
	periodsmod "namecensus/internal/services/periods/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// Periods overrides the config driven catalog and fetchers, mainly for tests
	Periods *periodsmod.Inject
}

// Modules builds every API module in dependency order
// periods feeds analytics, both feed comparison, and all three feed export
func Modules(deps modkit.Deps, periods *periodsmod.Inject) []modkit.Module {
	var popts []modkit.Option
	if periods != nil {
		popts = append(popts, modkit.WithPorts(*periods))
	}
	periodsMod := periodsmod.New(deps, popts...)
	pp := module.MustPortsOf[periodsmod.Ports](periodsMod)

	analyticsMod := analyticsmod.New(deps, modkit.WithPorts(analyticsmod.Needs{Records: pp.Records}))
	ap := module.MustPortsOf[analyticsmod.Ports](analyticsMod)

	comparisonMod := comparisonmod.New(deps, modkit.WithPorts(comparisonmod.Needs{
		Records: pp.Records,
		Results: ap.Results,
	}))
	cp := module.MustPortsOf[comparisonmod.Ports](comparisonMod)

	exportMod := exportmod.New(deps, modkit.WithPorts(exportmod.Needs{
		Records:    pp.Records,
		Analytics:  ap.Results,
		Comparison: cp.Results,
	}))

	return []modkit.Module{
		metamod.New(deps),
		periodsMod,
		analyticsMod,
		comparisonMod,
		exportMod,
	}
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	mods := Modules(deps, opt.Periods)

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
