package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/formulary/backend/internal/domain"
)

// pieceSpellings lists "pieces" and the variant spellings found in formula
// records and user edits. Longest first so alternation prefers full words.
var pieceSpellings = []string{
	"pieces", "pieses", "peices", "peaces", "piece", "peice", "piecs", "pices",
	"peace", "pice", "pcs", "pc",
}

const (
	numberExpr     = `(?:\d+(?:\.\d+)?|\.\d+)`
	rangeSepExpr   = `\s*(?:-|–|—|~|to)\s*`
	gramUnitExpr   = `(?:(?:grams?|gm|g)\b|克)`
	pieceCJKExpr   = `枚|个|片`
	unitWordCJK    = `(?:克|枚|个|片)`
	maxSuffixPeels = 4
)

// Compiled regex patterns for ingredient parsing
var (
	pieceUnitExpr = `(?:(?:` + strings.Join(pieceSpellings, "|") + `)\b|` + pieceCJKExpr + `)`

	gramWordExpr   = `(?:grams?|gm|g)`
	pieceWordExpr  = `(?:` + strings.Join(pieceSpellings, "|") + `)`
	dosageUnitExpr = `(?:(?:grams?|gm|g|` + strings.Join(pieceSpellings, "|") + `)\b)`

	// Matches "9g", "9-12 g", "30g-60g", "1.5 grams", ".5g", "6克"
	gramPattern = regexp.MustCompile(`(?i)(` + numberExpr + `)(?:\s*` + gramWordExpr + `?` + rangeSepExpr + `(` + numberExpr + `))?\s*` + gramUnitExpr)

	// Matches "3 pieces", "2-3 peices", "2 pieces-3 pieces", "5枚"
	piecePattern = regexp.MustCompile(`(?i)(` + numberExpr + `)(?:\s*` + pieceWordExpr + `?` + rangeSepExpr + `(` + numberExpr + `))?\s*` + pieceUnitExpr)

	// Matches a trailing dosage: number or range, each end optionally carrying
	// a unit token, an optional language-specific unit word, trailing separators.
	dosageSuffixPattern = regexp.MustCompile(`(?i)(?:^|[\s,:;]+)` + numberExpr + `(?:\s*` + dosageUnitExpr + `?` + rangeSepExpr + numberExpr + `)?\s*` +
		dosageUnitExpr + `?\s*` + unitWordCJK + `?[\s,.;:]*$`)

	// Matches one level of parenthesized aside in ASCII, square or full-width brackets
	asidePattern = regexp.MustCompile(`\(([^()]*)\)|\[([^\[\]]*)\]|（([^（）]*)）`)
)

// ParseIngredient splits one raw ingredient line such as
// "Ren Shen (Panax ginseng) 9-12g" into name candidates and quantities.
//
// Candidates are, deduplicated and in order: the line minus its trailing
// dosage, the same with parenthesized asides removed, then the text of each
// aside. Quantities come from a scan of the whole line.
func ParseIngredient(raw string) domain.ParsedIngredient {
	bareText, asides := removeAsides(raw)

	full := stripDosage(raw)
	bare := stripDosage(bareText)

	candidates := make([]string, 0, 2+len(asides))
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		candidates = append(candidates, s)
	}

	add(full)
	add(bare)
	for _, aside := range asides {
		add(stripDosage(aside))
	}

	if len(candidates) == 0 {
		candidates = append(candidates, collapseSpaces(raw))
	}

	return domain.ParsedIngredient{
		RawText:        raw,
		BareName:       bare,
		NameCandidates: candidates,
		Quantities:     ExtractQuantities(raw),
	}
}

// ExtractQuantities returns every gram and piece quantity in s, in order of
// appearance. It returns nil when s carries no recognizable quantity.
func ExtractQuantities(s string) []domain.Quantity {
	type found struct {
		pos int
		q   domain.Quantity
	}

	var all []found
	scan := func(pattern *regexp.Regexp, kind domain.QuantityKind) {
		for _, m := range pattern.FindAllStringSubmatchIndex(s, -1) {
			q, ok := quantityFromMatch(s, m, kind)
			if ok {
				all = append(all, found{pos: m[0], q: q})
			}
		}
	}
	scan(gramPattern, domain.QuantityGrams)
	scan(piecePattern, domain.QuantityPieces)

	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	quantities := make([]domain.Quantity, len(all))
	for i, f := range all {
		quantities[i] = f.q
	}
	return quantities
}

// quantityFromMatch reads the min (group 1) and optional max (group 2) of a
// submatch index slice. Reversed ranges are put back in order.
func quantityFromMatch(s string, m []int, kind domain.QuantityKind) (domain.Quantity, bool) {
	lo, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
	if err != nil {
		return domain.Quantity{}, false
	}

	hi := lo
	if m[4] >= 0 {
		hi, err = strconv.ParseFloat(s[m[4]:m[5]], 64)
		if err != nil {
			return domain.Quantity{}, false
		}
	}

	if hi < lo {
		lo, hi = hi, lo
	}
	return domain.Quantity{Kind: kind, Min: lo, Max: hi}, true
}

// stripDosage removes trailing dosage suffixes. Only the end of the string is
// touched because herb names may contain digits themselves.
func stripDosage(s string) string {
	name := collapseSpaces(s)
	for i := 0; i < maxSuffixPeels; i++ {
		loc := dosageSuffixPattern.FindStringIndex(name)
		if loc == nil {
			break
		}
		name = strings.TrimSpace(name[:loc[0]])
	}
	return strings.TrimRight(name, " ,;:-–—")
}

// removeAsides drops bracketed asides (innermost first) and returns the
// remaining text with the collected aside contents.
func removeAsides(s string) (string, []string) {
	var asides []string
	for {
		matches := asidePattern.FindAllStringSubmatch(s, -1)
		if len(matches) == 0 {
			break
		}
		for _, m := range matches {
			for _, group := range m[1:] {
				if inner := strings.TrimSpace(group); inner != "" {
					asides = append(asides, inner)
				}
			}
		}
		s = asidePattern.ReplaceAllString(s, " ")
	}
	return collapseSpaces(s), asides
}

// collapseSpaces trims s and collapses internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
