package api

import (
	"context"

	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"
	"namecensus/internal/platform/store"
	"namecensus/internal/services/schema"
)

// OpenStore opens postgres from SERVICE_PGSQL_* and, when SERVICE_CLICKHOUSE_ENABLED is set,
// the raw archive from SERVICE_CLICKHOUSE_*; the schema is ensured before it returns
// role tags ClickHouse client info so api and cli traffic can be told apart
func OpenStore(ctx context.Context, root config.Conf, role string) (*store.Store, error) {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	st, err := store.Open(ctx, store.Config{
		AppName: "namecensus-" + role,
		PG: store.PGConfig{
			Enabled:        true,
			URL:            pgCfg.MustString("DBURL"),
			MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs:    pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:         pgCfg.MayBool("LOG_SQL", false),
			ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 20),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", false),
			URL:     chCfg.MayString("DBURL", ""),
			Role:    role,
			Tag:     "archive",
		},
	}, store.WithLogger(*logger.Get()))
	if err != nil {
		return nil, err
	}
	if err := schema.Ensure(ctx, st.PG); err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return st, nil
}
