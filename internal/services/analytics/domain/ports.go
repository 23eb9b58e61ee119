package domain

import (
	"context"

	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
)

// ServicePort defines the service contract for analytics
type ServicePort interface {
	Run(ctx context.Context, period string) (Summary, error)
	Summary(ctx context.Context, period string) (Summary, error)
	Frequencies(ctx context.Context, period string, q FrequencyQuery) (FrequencyPage, error)
	Duplicates(ctx context.Context, period string, pair duplicates.Pair, q GroupQuery) (GroupPage, error)
}

// ResultsPort exposes stored analysis output to comparison and export
// every method returns FailedPrecondition when the period has no run
type ResultsPort interface {
	// NameTable rebuilds the stored name ranking of a period under mode
	NameTable(ctx context.Context, period string, mode normalize.Mode) (*frequency.Table, error)
	AllFrequencies(ctx context.Context, period string, mode normalize.Mode, top80Only bool) ([]FrequencyRow, error)
	AllDuplicates(ctx context.Context, period string, pair duplicates.Pair) ([]DuplicateGroup, error)
	Summary(ctx context.Context, period string) (Summary, error)
}
