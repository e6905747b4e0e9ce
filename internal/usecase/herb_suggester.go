package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/formulary/backend/internal/domain"
)

// Scoring weights. Whole-name similarity dominates; token coverage rescues
// names typed with words in a different order or partly missing.
const (
	keySimilarityWeight = 0.6
	tokenCoverageWeight = 0.4
	fuzzyTokenFactor    = 0.8 // fuzzy token matches count 80% of an exact one
)

// SuggestConfig holds configuration for the herb suggester
type SuggestConfig struct {
	MinScore          float64
	FuzzyEditDistance int
	Limit             int
}

// HerbSuggester ranks herbs whose names look like a name that failed to
// resolve. Suggestions are advisory only and never feed resolution.
type HerbSuggester struct {
	minScore          float64
	fuzzyEditDistance int
	limit             int
}

// NewHerbSuggester creates a suggester with the given configuration
func NewHerbSuggester(config SuggestConfig) *HerbSuggester {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = 60.0 // Default 60% threshold
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1 // Default edit distance of 1
	}

	limit := config.Limit
	if limit <= 0 {
		limit = 3
	}

	return &HerbSuggester{
		minScore:          minScore,
		fuzzyEditDistance: fuzzyDist,
		limit:             limit,
	}
}

// Suggest returns up to the configured number of herbs scoring at least the
// minimum score against name, best first. Ties keep pool order.
func (s *HerbSuggester) Suggest(name string, pool []domain.HerbRecord) []domain.HerbSuggestion {
	query := ParseIngredient(name).DisplayCandidate()
	queryKey := Normalize(query)
	if queryKey == "" {
		return nil
	}
	queryTokens := nameTokens(query)

	suggestions := make([]domain.HerbSuggestion, 0, s.limit)
	for i := range pool {
		herb := &pool[i]

		best, matchedName := 0.0, ""
		for _, candidate := range herb.IdentityNames() {
			score := s.score(queryKey, queryTokens, candidate)
			if score > best {
				best, matchedName = score, candidate
			}
		}

		if best >= s.minScore {
			suggestions = append(suggestions, domain.HerbSuggestion{
				HerbID:      herb.ID,
				DisplayName: herb.DisplayName(),
				MatchedName: matchedName,
				Score:       best,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > s.limit {
		suggestions = suggestions[:s.limit]
	}
	return suggestions
}

// score computes a 0-100 similarity between the query and one herb name.
func (s *HerbSuggester) score(queryKey string, queryTokens []string, candidate string) float64 {
	candidateKey := Normalize(candidate)
	if candidateKey == "" {
		return 0
	}

	keyLen := max(len([]rune(queryKey)), len([]rune(candidateKey)))
	keySimilarity := 1 - float64(levenshteinDistance(queryKey, candidateKey))/float64(keyLen)

	coverage := 0.0
	if len(queryTokens) > 0 {
		candidateTokens := nameTokens(candidate)
		matched := 0.0
		for _, qt := range queryTokens {
			matched += s.tokenMatch(qt, candidateTokens)
		}
		coverage = matched / float64(len(queryTokens))
	}

	score := (keySimilarity*keySimilarityWeight + coverage*tokenCoverageWeight) * 100
	if score < 0 {
		return 0
	}
	return score
}

// tokenMatch returns 1 for an exact token hit, fuzzyTokenFactor for a fuzzy
// one and 0 otherwise.
func (s *HerbSuggester) tokenMatch(token string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if c == token {
			return 1
		}
		if fuzzyTokenMatch(token, c, s.fuzzyEditDistance) {
			best = fuzzyTokenFactor
		}
	}
	return best
}

// nameTokens splits a name on whitespace and punctuation and normalizes each
// word.
func nameTokens(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return NormalizeAll(words)
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Short pinyin syllables differ by one letter too often ("zhi"/"chi")
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
