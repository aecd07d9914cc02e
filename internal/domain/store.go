package domain

import (
	"context"
	"time"
)

// ListOpts filters and pages opportunity queries. Results are always newest
// first.
type ListOpts struct {
	Limit  int // 0 means unbounded
	Offset int
	Since  time.Time // inclusive lower bound on Timestamp, zero to ignore
	Before time.Time // exclusive upper bound on Timestamp, zero to ignore
}

// OpportunityStore is the append-only persistence capability. Record never
// deduplicates: every qualifying pass is an independent observation, so
// identical consecutive rows are expected. Write failures wrap ErrStore.
type OpportunityStore interface {
	// Record appends one opportunity and sets its ID.
	Record(ctx context.Context, o *Opportunity) error
	List(ctx context.Context, opts ListOpts) ([]Opportunity, error)
	Count(ctx context.Context) (int64, error)
	// PruneBefore deletes rows with Timestamp < cutoff and reports how many
	// went. Called by the cold-storage exporter only after a successful
	// upload.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Health(ctx context.Context) error
}
