package domain

import "context"

// ServicePort defines the service contract for comparisons
type ServicePort interface {
	Run(ctx context.Context, a, b string) (Summary, error)
	Summary(ctx context.Context, a, b string) (Summary, error)
	Common(ctx context.Context, a, b string, q CommonQuery) (CommonPage, error)
	Unique(ctx context.Context, a, b string, side Side, q UniqueQuery) (UniquePage, error)
}

// ResultsPort exposes whole stored comparison lists to export
// every method returns FailedPrecondition when the pair was never compared
type ResultsPort interface {
	AllCommon(ctx context.Context, a, b, top80 string) ([]CommonRow, error)
	AllUnique(ctx context.Context, a, b string, side Side, top80Only bool) ([]UniqueRow, error)
}
