package domain

import "fmt"

// QuantityKind distinguishes the two dosage units an ingredient line can carry
type QuantityKind int

const (
	QuantityGrams QuantityKind = iota + 1
	QuantityPieces
)

// String returns the JSON tag used for the kind.
func (k QuantityKind) String() string {
	switch k {
	case QuantityGrams:
		return "grams"
	case QuantityPieces:
		return "pieces"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its tag.
func (k QuantityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a tag produced by MarshalText.
func (k *QuantityKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "grams":
		*k = QuantityGrams
	case "pieces":
		*k = QuantityPieces
	default:
		return fmt.Errorf("unknown quantity kind %q", text)
	}
	return nil
}

// Quantity is a gram range or a piece range. Min equals Max for a single value.
type Quantity struct {
	Kind QuantityKind `json:"kind"`
	Min  float64      `json:"min"`
	Max  float64      `json:"max"`
}

// IsRange reports whether the quantity spans more than one value.
func (q Quantity) IsRange() bool {
	return q.Min != q.Max
}

// ParsedIngredient is one raw ingredient line split into name candidates and
// quantities. A nil Quantities means the dosage is unknown, not zero.
type ParsedIngredient struct {
	RawText        string     `json:"rawText"`
	BareName       string     `json:"bareName"`
	NameCandidates []string   `json:"nameCandidates"`
	Quantities     []Quantity `json:"quantities"`
}

// Name returns the most specific candidate.
func (p ParsedIngredient) Name() string {
	if len(p.NameCandidates) == 0 {
		return ""
	}
	return p.NameCandidates[0]
}

// DisplayCandidate returns the name with parenthesized asides removed, falling
// back to the most specific candidate.
func (p ParsedIngredient) DisplayCandidate() string {
	if p.BareName != "" {
		return p.BareName
	}
	return p.Name()
}

// HasQuantity reports whether any quantity was parsed.
func (p ParsedIngredient) HasQuantity() bool {
	return len(p.Quantities) > 0
}

// ResolvedIngredient is an ingredient line paired with the herb it resolved to,
// or with a placeholder herb carrying only the parsed name when Unresolved.
type ResolvedIngredient struct {
	RawText    string     `json:"rawText"`
	ParsedName string     `json:"parsedName"`
	Quantities []Quantity `json:"quantities,omitempty"`
	Herb       HerbRecord `json:"herb"`
	Unresolved bool       `json:"unresolved"`
}

// HerbDosage pairs a herb's display name with a raw dosage string
type HerbDosage struct {
	HerbDisplayName string `json:"herbDisplayName"`
	RawDosage       string `json:"rawDosage"`
}

// Overlap is the shared-ingredient comparison of two formulas
type Overlap struct {
	Keys       []string `json:"keys"`
	LeftLines  []int    `json:"leftLines"`
	RightLines []int    `json:"rightLines"`
}
