package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RecordSource fetches herb and formula records from the document store
type RecordSource interface {
	ListHerbs(ctx context.Context) ([]HerbRecord, error)
	ListFormulas(ctx context.Context) ([]FormulaRecord, error)
}

// SnapshotProvider hands out a consistent, read-only view of both record pools
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Refresher is implemented by snapshot providers that can reload on demand
type Refresher interface {
	Refresh(ctx context.Context) (*Snapshot, error)
}
