package domain

import "time"

// Snapshot is an immutable pair of herb and formula pools loaded together.
// Pools must not be modified once the snapshot is published.
type Snapshot struct {
	Version  uint64          `json:"version"`
	Herbs    []HerbRecord    `json:"herbs"`
	Formulas []FormulaRecord `json:"formulas"`
	LoadedAt time.Time       `json:"loadedAt"`
}

// FormulaResolution is a formula with every ingredient resolved against the herb pool
type FormulaResolution struct {
	Formula         FormulaRecord        `json:"formula"`
	Ingredients     []ResolvedIngredient `json:"ingredients"`
	UnresolvedCount int                  `json:"unresolvedCount"`
	Summary         string               `json:"summary,omitempty"`
	HasSummary      bool                 `json:"hasSummary"`
	SnapshotVersion uint64               `json:"snapshotVersion"`
}

// Transfer is the result of moving a formula's missing herbs into a held list
type Transfer struct {
	Formula    string               `json:"formula"`
	Added      []ResolvedIngredient `json:"added"`
	Unresolved []ResolvedIngredient `json:"unresolved"`
	Summary    string               `json:"summary,omitempty"`
	HasSummary bool                 `json:"hasSummary"`
}
