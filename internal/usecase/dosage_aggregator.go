package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/formulary/backend/internal/domain"
)

type pieceTotal struct {
	herb     string
	min, max float64
}

// Aggregate folds every dosage into one summary such as
// "Total: 9-12g + 3 pieces (Da Zao)". Grams are summed across herbs; pieces are
// summed per herb display name, in order of first appearance, because pieces
// of different herbs are not interchangeable. Dosages without a parseable
// quantity contribute nothing. The bool is false when nothing was parsed, in
// which case no summary should be shown at all.
func Aggregate(pairs []domain.HerbDosage) (string, bool) {
	var (
		minGrams, maxGrams float64
		hasGrams           bool
		pieces             []*pieceTotal
		byHerb             = make(map[string]*pieceTotal)
	)

	for _, pair := range pairs {
		for _, q := range ExtractQuantities(pair.RawDosage) {
			switch q.Kind {
			case domain.QuantityGrams:
				minGrams += q.Min
				maxGrams += q.Max
				hasGrams = true
			case domain.QuantityPieces:
				total, ok := byHerb[pair.HerbDisplayName]
				if !ok {
					total = &pieceTotal{herb: pair.HerbDisplayName}
					byHerb[pair.HerbDisplayName] = total
					pieces = append(pieces, total)
				}
				total.min += q.Min
				total.max += q.Max
			}
		}
	}

	var parts []string
	if hasGrams {
		parts = append(parts, formatRange(minGrams, maxGrams)+"g")
	}
	for _, p := range pieces {
		parts = append(parts, formatRange(p.min, p.max)+" pieces ("+p.herb+")")
	}

	if len(parts) == 0 {
		return "", false
	}
	return "Total: " + strings.Join(parts, " + "), true
}

// formatRange renders "N" when both ends round to the same value, else "min-max".
func formatRange(lo, hi float64) string {
	lo, hi = round3(lo), round3(hi)
	if lo == hi {
		return formatNumber(lo)
	}
	return formatNumber(lo) + "-" + formatNumber(hi)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
