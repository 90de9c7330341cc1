package catalog

import "context"

// Client fetches the full product catalog from the upstream service.
// Implementations fail with shared.ErrNetwork for transport problems and
// shared.ErrUpstream for malformed responses; the cache service owns the
// retry policy.
type Client interface {
	FetchAll(ctx context.Context) ([]ProductRecord, error)
}

// SnapshotStore persists cache snapshots. Replace is all-or-nothing: either
// the new snapshot becomes current or the previous one stays untouched.
type SnapshotStore interface {
	// Replace persists the records as a new snapshot generation and makes it
	// current in a single transaction. Returns the stored snapshot.
	Replace(ctx context.Context, records []ProductRecord) (*CacheSnapshot, error)
	// Current loads the latest snapshot. Returns (nil, nil) when no refresh
	// has ever completed.
	Current(ctx context.Context) (*CacheSnapshot, error)
	// Status reports snapshot metadata without loading the records.
	Status(ctx context.Context) (Status, error)
}
