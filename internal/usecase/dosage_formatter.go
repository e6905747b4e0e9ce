package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/formulary/backend/internal/domain"
)

// Compiled regex patterns for dosage formatting
var (
	// Matches any known variant spelling of "pieces" as a whole word
	pieceMisspellingPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(pieceMisspellings(), "|") + `)\b`)

	dosageRangeExpr = `(` + numberExpr + `)(?:` + rangeSepExpr + `(` + numberExpr + `))?`

	bareDosagePattern  = regexp.MustCompile(`(?i)^` + dosageRangeExpr + `$`)
	gramDosagePattern  = regexp.MustCompile(`(?i)^` + dosageRangeExpr + `\s*(?:grams?|gm|g)$`)
	pieceDosagePattern = regexp.MustCompile(`(?i)^` + dosageRangeExpr + `\s*(?:pieces|piece)$`)
)

// pieceMisspellings returns the spellings that are rewritten to "pieces"
// before formatting.
func pieceMisspellings() []string {
	out := make([]string, 0, len(pieceSpellings))
	for _, s := range pieceSpellings {
		if s != "pieces" && s != "piece" {
			out = append(out, s)
		}
	}
	return out
}

// FixDosageFormat canonicalizes a dosage typed by a user. It returns "" when
// the input cannot be normalized, which callers must treat as a rejected edit.
//
//	"5"        -> "5g"
//	"5 g"      -> "5g"
//	"1 piece"  -> "1 piece"
//	"2 peices" -> "2 pieces"
//	"abc"      -> ""
func FixDosageFormat(input string) string {
	s := collapseSpaces(input)
	if s == "" {
		return ""
	}
	s = pieceMisspellingPattern.ReplaceAllString(s, "pieces")

	if m := bareDosagePattern.FindStringSubmatch(s); m != nil {
		return joinRange(m[1], m[2]) + "g"
	}

	if m := gramDosagePattern.FindStringSubmatch(s); m != nil {
		return joinRange(m[1], m[2]) + "g"
	}

	if m := pieceDosagePattern.FindStringSubmatch(s); m != nil {
		if m[2] == "" && isOne(m[1]) {
			return m[1] + " piece"
		}
		return joinRange(m[1], m[2]) + " pieces"
	}

	return ""
}

// FormatDosage is FixDosageFormat with the reject path reported as
// domain.ErrInvalidDosage.
func FormatDosage(input string) (string, error) {
	formatted := FixDosageFormat(input)
	if formatted == "" {
		return "", domain.ErrInvalidDosage
	}
	return formatted, nil
}

func joinRange(lo, hi string) string {
	if hi == "" {
		return lo
	}
	return lo + "-" + hi
}

func isOne(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v == 1
}
