package domain

import (
	"context"

	"namecensus/internal/core/records"
)

// ServicePort defines the service contract for periods
type ServicePort interface {
	List(ctx context.Context) ([]PeriodView, error)
	Get(ctx context.Context, key string) (PeriodView, error)
	Ingest(ctx context.Context, key string) (IngestResult, error)
	Status(ctx context.Context, key string) (Status, error)
	Records(ctx context.Context, key string, t TableType, q RecordsQuery) (RecordPage, error)
}

// RecordsPort is what analysis and export need from the period store
type RecordsPort interface {
	// Describe returns the catalog entry, NotFound for unknown keys
	Describe(key string) (Period, error)
	// LoadSet returns the included records of a period
	// FailedPrecondition when the period was never ingested
	LoadSet(ctx context.Context, key string) (*records.Set, error)
	// MarkAnalyzed stamps the period's last analysis time
	MarkAnalyzed(ctx context.Context, key string) error
	// AllRecords returns every stored row of a table type in position order
	AllRecords(ctx context.Context, key string, t TableType) ([]RecordRow, error)
}
