package module

import (
	"namecensus/internal/adapters/export"
	"namecensus/internal/platform/config"
)

// FromConfig reads with CORE_ prefix
func FromConfig(cfg config.Conf) export.Options {
	c := cfg.Prefix("CORE_")
	return export.Options{
		PrintRowLimit: c.MayInt("EXPORT_PRINT_ROW_LIMIT", 1000),
	}
}
