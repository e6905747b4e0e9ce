package usecase

import (
	"sort"

	"github.com/formulary/backend/internal/domain"
)

// IngredientKeys returns the normalized name candidates of one ingredient line.
func IngredientKeys(line string) []string {
	return NormalizeAll(ParseIngredient(line).NameCandidates)
}

// FormulaKeys returns the set of normalized name candidates across every
// ingredient line of f.
func FormulaKeys(f domain.FormulaRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range f.IngredientsAndDosages {
		for _, k := range IngredientKeys(line) {
			set[k] = struct{}{}
		}
	}
	return set
}

// Contains reports whether every held name matches at least one ingredient
// name candidate of f. Names that normalize to "" are ignored, so an empty
// held set is contained by every formula.
func Contains(f domain.FormulaRecord, held []string) bool {
	return containsGroups(FormulaKeys(f), nameGroups(held))
}

// ContainsHerbs is Contains for held herb records: a herb is present when any
// of its identity names matches an ingredient.
func ContainsHerbs(f domain.FormulaRecord, held []domain.HerbRecord) bool {
	return containsGroups(FormulaKeys(f), herbGroups(held))
}

// FormulasContaining filters formulas down to those containing every held name,
// keeping pool order.
func FormulasContaining(formulas []domain.FormulaRecord, held []string) []domain.FormulaRecord {
	groups := nameGroups(held)
	out := make([]domain.FormulaRecord, 0)
	for _, f := range formulas {
		if containsGroups(FormulaKeys(f), groups) {
			out = append(out, f)
		}
	}
	return out
}

// Overlap returns the normalized names two formulas share and, for each side,
// the indices of the ingredient lines involved. Keys are sorted, so the result
// does not depend on argument order beyond which side is Left.
func Overlap(a, b domain.FormulaRecord) domain.Overlap {
	keysA := FormulaKeys(a)
	keysB := FormulaKeys(b)

	shared := make(map[string]struct{})
	keys := make([]string, 0)
	for k := range keysA {
		if _, ok := keysB[k]; ok {
			shared[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return domain.Overlap{
		Keys:       keys,
		LeftLines:  linesTouching(a, shared),
		RightLines: linesTouching(b, shared),
	}
}

// Delta returns the ingredients of f, in formula order, whose names are not in
// held, each resolved against pool or replaced by an unresolved placeholder.
func Delta(f domain.FormulaRecord, held []string, pool []domain.HerbRecord) []domain.ResolvedIngredient {
	return NewFormulaMatcher(pool).Delta(f, held)
}

// ResolveFormula resolves every ingredient of f against pool.
func ResolveFormula(f domain.FormulaRecord, pool []domain.HerbRecord) []domain.ResolvedIngredient {
	return NewFormulaMatcher(pool).ResolveFormula(f)
}

// ContainsStrict is Contains restricted to ingredients that resolve to a herb in
// pool. Unresolved placeholders never satisfy a held name, while a resolved
// ingredient matches through any identity name of its herb.
func ContainsStrict(f domain.FormulaRecord, held []string, pool []domain.HerbRecord) bool {
	return NewFormulaMatcher(pool).ContainsStrict(f, held)
}

// FormulaMatcher runs the pool-dependent formula queries against one indexed
// herb pool.
type FormulaMatcher struct {
	index *HerbIndex
}

// NewFormulaMatcher indexes pool for repeated queries.
func NewFormulaMatcher(pool []domain.HerbRecord) *FormulaMatcher {
	return &FormulaMatcher{index: NewHerbIndex(pool)}
}

// ResolveHerb resolves candidates against the matcher's pool.
func (m *FormulaMatcher) ResolveHerb(candidates []string) (*domain.HerbRecord, error) {
	return m.index.Resolve(candidates)
}

// ResolveFormula resolves every ingredient line of f in order.
func (m *FormulaMatcher) ResolveFormula(f domain.FormulaRecord) []domain.ResolvedIngredient {
	out := make([]domain.ResolvedIngredient, 0, len(f.IngredientsAndDosages))
	for _, line := range f.IngredientsAndDosages {
		out = append(out, m.resolveIngredient(ParseIngredient(line)))
	}
	return out
}

// Delta lists the ingredients of f not matched by any held name.
func (m *FormulaMatcher) Delta(f domain.FormulaRecord, held []string) []domain.ResolvedIngredient {
	return m.delta(f, keySet(held))
}

// DeltaHerbs lists the ingredients of f not matched by any identity name of
// the held herbs.
func (m *FormulaMatcher) DeltaHerbs(f domain.FormulaRecord, held []domain.HerbRecord) []domain.ResolvedIngredient {
	set := make(map[string]struct{})
	for _, h := range held {
		for _, k := range HerbKeys(h) {
			set[k] = struct{}{}
		}
	}
	return m.delta(f, set)
}

// ContainsStrict reports strict containment of held in f.
func (m *FormulaMatcher) ContainsStrict(f domain.FormulaRecord, held []string) bool {
	return containsGroups(m.strictKeys(f), nameGroups(held))
}

// FormulasContainingStrict filters formulas by strict containment, keeping order.
func (m *FormulaMatcher) FormulasContainingStrict(formulas []domain.FormulaRecord, held []string) []domain.FormulaRecord {
	groups := nameGroups(held)
	out := make([]domain.FormulaRecord, 0)
	for _, f := range formulas {
		if containsGroups(m.strictKeys(f), groups) {
			out = append(out, f)
		}
	}
	return out
}

func (m *FormulaMatcher) delta(f domain.FormulaRecord, held map[string]struct{}) []domain.ResolvedIngredient {
	out := make([]domain.ResolvedIngredient, 0)
	for _, line := range f.IngredientsAndDosages {
		parsed := ParseIngredient(line)
		if anyKeyIn(NormalizeAll(parsed.NameCandidates), held) {
			continue
		}
		out = append(out, m.resolveIngredient(parsed))
	}
	return out
}

// strictKeys collects the keys of resolved ingredients only: their own name
// candidates plus every identity name of the herb they resolved to.
func (m *FormulaMatcher) strictKeys(f domain.FormulaRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range f.IngredientsAndDosages {
		parsed := ParseIngredient(line)
		herb, err := m.index.Resolve(parsed.NameCandidates)
		if err != nil {
			continue
		}
		for _, k := range NormalizeAll(parsed.NameCandidates) {
			set[k] = struct{}{}
		}
		for _, k := range HerbKeys(*herb) {
			set[k] = struct{}{}
		}
	}
	return set
}

func (m *FormulaMatcher) resolveIngredient(parsed domain.ParsedIngredient) domain.ResolvedIngredient {
	resolved := domain.ResolvedIngredient{
		RawText:    parsed.RawText,
		ParsedName: parsed.DisplayCandidate(),
		Quantities: parsed.Quantities,
	}

	herb, err := m.index.Resolve(parsed.NameCandidates)
	if err != nil {
		resolved.Herb = domain.HerbRecord{Name: domain.Names{parsed.DisplayCandidate()}}
		resolved.Unresolved = true
		return resolved
	}

	resolved.Herb = *herb
	return resolved
}

// nameGroups turns held names into one-key groups, dropping empty keys.
func nameGroups(held []string) [][]string {
	keys := NormalizeAll(held)
	groups := make([][]string, len(keys))
	for i, k := range keys {
		groups[i] = []string{k}
	}
	return groups
}

// herbGroups turns held herbs into groups of their identity keys. Herbs with
// no usable identity are ignored.
func herbGroups(held []domain.HerbRecord) [][]string {
	groups := make([][]string, 0, len(held))
	for _, h := range held {
		if keys := HerbKeys(h); len(keys) > 0 {
			groups = append(groups, keys)
		}
	}
	return groups
}

// containsGroups reports whether every group has at least one key in set.
func containsGroups(set map[string]struct{}, groups [][]string) bool {
	for _, g := range groups {
		if !anyKeyIn(g, set) {
			return false
		}
	}
	return true
}

func anyKeyIn(keys []string, set map[string]struct{}) bool {
	for _, k := range keys {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

func linesTouching(f domain.FormulaRecord, keys map[string]struct{}) []int {
	lines := make([]int, 0)
	for i, line := range f.IngredientsAndDosages {
		if anyKeyIn(IngredientKeys(line), keys) {
			lines = append(lines, i)
		}
	}
	return lines
}
