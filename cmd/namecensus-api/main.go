// @title         Namecensus API
// @version       0.1.0
// @description   Period ingest, name frequency analysis, duplicate detection and cross period comparison
// @BasePath      /api/v1

package main

import (
	"context"
	"os/signal"
	"syscall"

	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	log := logger.Named("api")

	st, err := api.OpenStore(ctx, root, "api")
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         logger.Get(),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server stopped")
	}
}
