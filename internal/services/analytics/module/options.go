package module

import (
	"namecensus/internal/core/engine"
	"namecensus/internal/core/normalize"
	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"
)

// FromConfig reads with CORE_ prefix
// an unknown duplicate mode falls back to normalized with a warning
func FromConfig(cfg config.Conf) engine.Options {
	c := cfg.Prefix("CORE_")
	opts := engine.DefaultOptions()
	raw := c.MayString("ANALYTICS_DUPLICATE_MODE", opts.DuplicateMode.String())
	if m, ok := normalize.ParseMode(raw); ok {
		opts.DuplicateMode = m
	} else {
		log := logger.Named("analytics")
		log.Warn().Str("mode", raw).Msg("unknown duplicate mode, using normalized")
	}
	return opts
}
