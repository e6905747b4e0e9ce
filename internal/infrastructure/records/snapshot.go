package records

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/formulary/backend/internal/infrastructure/metrics"
)

// Compile-time checks
var (
	_ domain.SnapshotProvider = (*SnapshotStore)(nil)
	_ domain.Refresher        = (*SnapshotStore)(nil)
)

// SnapshotStore loads both pools from a RecordSource and publishes them as one
// immutable snapshot. Readers never block on a refresh and never observe a
// half-loaded pool pair.
type SnapshotStore struct {
	source  domain.RecordSource
	logger  logging.Logger
	current atomic.Pointer[domain.Snapshot]
	version atomic.Uint64

	// refreshMu serializes loads; readers only touch current.
	refreshMu sync.Mutex
}

// NewSnapshotStore creates an empty store. The first Snapshot call loads it.
func NewSnapshotStore(source domain.RecordSource, logger logging.Logger) *SnapshotStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SnapshotStore{
		source: source,
		logger: logger.Named("snapshot"),
	}
}

// Snapshot returns the current snapshot, loading it on first use.
func (s *SnapshotStore) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have loaded it while we waited.
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.load(ctx)
}

// Refresh reloads both pools and publishes them. On failure the previous
// snapshot stays current.
func (s *SnapshotStore) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.load(ctx)
}

// Current returns the published snapshot without loading, or nil.
func (s *SnapshotStore) Current() *domain.Snapshot {
	return s.current.Load()
}

// load must be called with refreshMu held.
func (s *SnapshotStore) load(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()

	herbs, err := s.source.ListHerbs(ctx)
	if err != nil {
		metrics.ObserveSnapshotFailure()
		s.logger.Error("failed to load herbs", logging.Err(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotUnavailable, err)
	}

	formulas, err := s.source.ListFormulas(ctx)
	if err != nil {
		metrics.ObserveSnapshotFailure()
		s.logger.Error("failed to load formulas", logging.Err(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotUnavailable, err)
	}

	if herbs == nil {
		herbs = []domain.HerbRecord{}
	}
	if formulas == nil {
		formulas = []domain.FormulaRecord{}
	}

	snap := &domain.Snapshot{
		Version:  s.version.Add(1),
		Herbs:    herbs,
		Formulas: formulas,
		LoadedAt: time.Now().UTC(),
	}
	s.current.Store(snap)
	metrics.ObserveSnapshot(len(herbs), len(formulas))

	s.logger.Info("snapshot published",
		logging.Uint64("version", snap.Version),
		logging.Int("herbs", len(herbs)),
		logging.Int("formulas", len(formulas)),
		logging.Duration("duration", time.Since(start)))

	return snap, nil
}
