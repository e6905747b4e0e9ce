package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/formulary/backend/internal/infrastructure/metrics"
)

// FormulaServiceConfig holds configuration for the formula service
type FormulaServiceConfig struct {
	CacheTTL time.Duration
	Suggest  SuggestConfig
}

// snapshotMatcher pairs a matcher with the snapshot version it indexes.
type snapshotMatcher struct {
	version uint64
	matcher *FormulaMatcher
}

// FormulaService runs the engine against the current record snapshot.
// Every call draws herbs and formulas from the same snapshot.
type FormulaService struct {
	snapshots domain.SnapshotProvider
	cache     domain.CacheRepository
	logger    logging.Logger
	cacheTTL  time.Duration
	suggester *HerbSuggester
	matcher   atomic.Pointer[snapshotMatcher]
}

// NewFormulaService creates a new formula service. cache may be nil.
func NewFormulaService(
	snapshots domain.SnapshotProvider,
	cache domain.CacheRepository,
	logger logging.Logger,
	config FormulaServiceConfig,
) *FormulaService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &FormulaService{
		snapshots: snapshots,
		cache:     cache,
		logger:    logger.Named("formula"),
		cacheTTL:  cacheTTL,
		suggester: NewHerbSuggester(config.Suggest),
	}
}

// ParseIngredient parses one raw ingredient line.
func (s *FormulaService) ParseIngredient(raw string) domain.ParsedIngredient {
	return ParseIngredient(raw)
}

// FormatDosage validates a user-typed dosage.
func (s *FormulaService) FormatDosage(input string) (string, error) {
	formatted, err := FormatDosage(input)
	metrics.ObserveDosageFormat(err == nil)
	return formatted, err
}

// SummarizeDosages aggregates herb dosages into one summary line.
func (s *FormulaService) SummarizeDosages(pairs []domain.HerbDosage) (string, bool) {
	return Aggregate(pairs)
}

// ResolveHerbName resolves a free-text herb name, which may carry an inline
// dosage or parenthesized alias, against the current herb pool.
func (s *FormulaService) ResolveHerbName(ctx context.Context, name string) (*domain.HerbRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidRequest
	}

	snap, matcher, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	herb, err := matcher.ResolveHerb(ParseIngredient(name).NameCandidates)
	if err != nil {
		metrics.ObserveResolution(0, 1)
		s.logger.Debug("herb not resolved",
			logging.String("name", name),
			logging.Uint64("snapshot", snap.Version))
		return nil, err
	}

	metrics.ObserveResolution(1, 0)
	found := *herb
	return &found, nil
}

// SuggestHerbs lists herbs whose names are close to name. Used to help a
// caller after ResolveHerbName reports ErrHerbNotFound.
func (s *FormulaService) SuggestHerbs(ctx context.Context, name string) ([]domain.HerbSuggestion, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidRequest
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := s.suggester.Suggest(name, snap.Herbs)
	if suggestions == nil {
		suggestions = []domain.HerbSuggestion{}
	}
	return suggestions, nil
}

// ResolveFormula resolves every ingredient of the named formula.
// Results are memoized per snapshot version.
func (s *FormulaService) ResolveFormula(ctx context.Context, name string) (*domain.FormulaResolution, error) {
	snap, matcher, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	index, err := findFormulaIndex(snap.Formulas, name)
	if err != nil {
		return nil, err
	}
	formula := snap.Formulas[index]

	cacheKey := resolutionCacheKey(snap.Version, index)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	ingredients := matcher.ResolveFormula(formula)

	unresolved := 0
	for _, ing := range ingredients {
		if ing.Unresolved {
			unresolved++
		}
	}
	metrics.ObserveResolution(len(ingredients)-unresolved, unresolved)

	summary, ok := Aggregate(dosagePairs(ingredients))

	resolution := &domain.FormulaResolution{
		Formula:         formula,
		Ingredients:     ingredients,
		UnresolvedCount: unresolved,
		Summary:         summary,
		HasSummary:      ok,
		SnapshotVersion: snap.Version,
	}

	s.setInCache(ctx, cacheKey, resolution)
	return resolution, nil
}

// FindFormulasContaining returns the formulas containing every held herb name.
// Strict mode only counts ingredients that resolve to a herb record, and lets
// a held name match any identity name of that record.
func (s *FormulaService) FindFormulasContaining(ctx context.Context, herbs []string, strict bool) ([]domain.FormulaRecord, error) {
	snap, matcher, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if strict {
		return matcher.FormulasContainingStrict(snap.Formulas, herbs), nil
	}
	return FormulasContaining(snap.Formulas, herbs), nil
}

// CompareFormulas returns the ingredients two formulas share.
func (s *FormulaService) CompareFormulas(ctx context.Context, a, b string) (*domain.Overlap, error) {
	snap, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	left, err := findFormula(snap.Formulas, a)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", a, err)
	}
	right, err := findFormula(snap.Formulas, b)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", b, err)
	}

	overlap := Overlap(left, right)
	return &overlap, nil
}

// TransferHerbs lists what the named formula would add to a held herb list.
// Resolved herbs and unresolved placeholders are returned separately.
func (s *FormulaService) TransferHerbs(ctx context.Context, formulaName string, held []string) (*domain.Transfer, error) {
	snap, matcher, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	formula, err := findFormula(snap.Formulas, formulaName)
	if err != nil {
		return nil, err
	}

	delta := matcher.Delta(formula, held)

	transfer := &domain.Transfer{
		Formula:    formula.DisplayName(),
		Added:      make([]domain.ResolvedIngredient, 0, len(delta)),
		Unresolved: make([]domain.ResolvedIngredient, 0),
	}
	for _, ing := range delta {
		if ing.Unresolved {
			transfer.Unresolved = append(transfer.Unresolved, ing)
		} else {
			transfer.Added = append(transfer.Added, ing)
		}
	}
	metrics.ObserveResolution(len(transfer.Added), len(transfer.Unresolved))

	transfer.Summary, transfer.HasSummary = Aggregate(dosagePairs(delta))
	return transfer, nil
}

// Refresh reloads the record snapshot when the provider supports it.
func (s *FormulaService) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	refresher, ok := s.snapshots.(domain.Refresher)
	if !ok {
		return nil, fmt.Errorf("%w: record source does not support refresh", domain.ErrInvalidRequest)
	}

	snap, err := refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.matcherFor(snap)
	return snap, nil
}

// load fetches the current snapshot and its matcher.
func (s *FormulaService) load(ctx context.Context) (*domain.Snapshot, *FormulaMatcher, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, s.matcherFor(snap), nil
}

// matcherFor returns a matcher indexing snap's herb pool, rebuilding it only
// when the snapshot version changes.
func (s *FormulaService) matcherFor(snap *domain.Snapshot) *FormulaMatcher {
	if m := s.matcher.Load(); m != nil && m.version == snap.Version {
		return m.matcher
	}

	m := &snapshotMatcher{version: snap.Version, matcher: NewFormulaMatcher(snap.Herbs)}
	s.matcher.Store(m)
	return m.matcher
}

func (s *FormulaService) getFromCache(ctx context.Context, key string) (*domain.FormulaResolution, bool) {
	if s.cache == nil {
		return nil, false
	}

	var resolution domain.FormulaResolution
	err := s.cache.Get(ctx, key, &resolution)
	if err == nil {
		return &resolution, true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	}
	return nil, false
}

func (s *FormulaService) setInCache(ctx context.Context, key string, resolution *domain.FormulaResolution) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, resolution, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", logging.String("key", key), logging.Err(err))
	}
}

// findFormula locates a formula by id, then by pinyin name, then by English
// name. Names are compared by normalized key.
func findFormula(formulas []domain.FormulaRecord, name string) (domain.FormulaRecord, error) {
	i, err := findFormulaIndex(formulas, name)
	if err != nil {
		return domain.FormulaRecord{}, err
	}
	return formulas[i], nil
}

// findFormulaIndex is findFormula returning the formula's position in the pool.
func findFormulaIndex(formulas []domain.FormulaRecord, name string) (int, error) {
	key := Normalize(name)
	if key == "" {
		return -1, domain.ErrInvalidRequest
	}

	for i, f := range formulas {
		if f.ID != "" && f.ID == strings.TrimSpace(name) {
			return i, nil
		}
	}
	for i, f := range formulas {
		if anyKeyIn([]string{key}, keySet(f.PinyinName)) {
			return i, nil
		}
	}
	for i, f := range formulas {
		if anyKeyIn([]string{key}, keySet(f.EnglishName)) {
			return i, nil
		}
	}
	return -1, domain.ErrFormulaNotFound
}

// dosagePairs pairs each ingredient's herb display name with its raw line.
// The line still holds the name, but quantity extraction only reads dosages.
func dosagePairs(ingredients []domain.ResolvedIngredient) []domain.HerbDosage {
	pairs := make([]domain.HerbDosage, len(ingredients))
	for i, ing := range ingredients {
		pairs[i] = domain.HerbDosage{
			HerbDisplayName: ing.Herb.DisplayName(),
			RawDosage:       ing.RawText,
		}
	}
	return pairs
}

// resolutionCacheKey builds "resolution:{version}:{pool index}" from the
// formula that was found, not from the request spelling.
func resolutionCacheKey(version uint64, index int) string {
	return fmt.Sprintf("resolution:%d:%d", version, index)
}
