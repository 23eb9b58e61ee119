package module

import (
	"time"

	"namecensus/internal/adapters/ingest/sheets"
	"namecensus/internal/platform/config"
)

// Options controls catalog loading and ingest
type Options struct {
	PeriodsFile  string
	WorkbookRoot string
	BatchSize    int
	Workers      int
	Archive      bool
	LeaseTTL     time.Duration
	Sheets       sheets.Options
}

// FromConfig reads with CORE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_")
	return Options{
		PeriodsFile:  c.MayString("PERIODS_FILE", "periods.yaml"),
		WorkbookRoot: c.MayString("WORKBOOK_ROOT", ""),
		BatchSize:    c.MayInt("INGEST_BATCH_SIZE", 100_000),
		Workers:      c.MayInt("INGEST_WORKERS", 4),
		Archive:      c.MayBool("INGEST_ARCHIVE", true),
		LeaseTTL:     c.MayDuration("INGEST_LEASE_TTL", time.Hour),
		Sheets: sheets.Options{
			CredentialsFile: c.MayString("SHEETS_CREDENTIALS_FILE", ""),
			MaxRetries:      c.MayInt("SHEETS_RETRIES", 3),
			RetryDelay:      c.MayDuration("SHEETS_RETRY_DELAY", time.Second),
			Timeout:         c.MayDuration("SHEETS_TIMEOUT", 2*time.Minute),
			RPS:             c.MayFloat64("SHEETS_RPS", 1),
		},
	}
}
