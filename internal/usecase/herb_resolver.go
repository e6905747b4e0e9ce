package usecase

import (
	"github.com/formulary/backend/internal/domain"
)

// ResolveHerb returns the first herb in pool whose matchable identity names
// contain the normalized form of a candidate. Candidates are tried in order, so
// callers pass their most specific candidate first; for each candidate the pool
// is scanned in order. There is no nearest-match fallback: when nothing matches
// the result is domain.ErrHerbNotFound.
//
// The returned pointer aliases pool and must be treated as read-only.
func ResolveHerb(candidates []string, pool []domain.HerbRecord) (*domain.HerbRecord, error) {
	for _, candidate := range candidates {
		key := Normalize(candidate)
		if key == "" {
			continue
		}
		for i := range pool {
			if herbHasKey(pool[i], key) {
				return &pool[i], nil
			}
		}
	}
	return nil, domain.ErrHerbNotFound
}

func herbHasKey(h domain.HerbRecord, key string) bool {
	for _, name := range h.IdentityNames() {
		if Normalize(name) == key {
			return true
		}
	}
	return false
}

// HerbKeys returns the normalized keys of every matchable identity name of h.
func HerbKeys(h domain.HerbRecord) []string {
	return NormalizeAll(h.IdentityNames())
}

// HerbIndex answers ResolveHerb queries against a fixed pool without rescanning
// it. Results are identical to ResolveHerb on the same pool.
type HerbIndex struct {
	pool  []domain.HerbRecord
	first map[string]int
}

// NewHerbIndex indexes pool. The pool must not be modified afterwards.
func NewHerbIndex(pool []domain.HerbRecord) *HerbIndex {
	idx := &HerbIndex{
		pool:  pool,
		first: make(map[string]int),
	}
	for i := range pool {
		for _, key := range HerbKeys(pool[i]) {
			if _, exists := idx.first[key]; !exists {
				idx.first[key] = i
			}
		}
	}
	return idx
}

// Resolve is ResolveHerb over the indexed pool.
func (idx *HerbIndex) Resolve(candidates []string) (*domain.HerbRecord, error) {
	for _, candidate := range candidates {
		key := Normalize(candidate)
		if key == "" {
			continue
		}
		if i, ok := idx.first[key]; ok {
			return &idx.pool[i], nil
		}
	}
	return nil, domain.ErrHerbNotFound
}

// Len returns the number of indexed herbs.
func (idx *HerbIndex) Len() int {
	return len(idx.pool)
}
