package feed

import (
	"math"
	"strings"
)

// Characters ignored when comparing titles: sentence punctuation plus the
// quote variants news sources are fond of.
const excludedRunes = ".|,-:'\"‘’·"

// Ratio measures how much two titles overlap, in [0,1] rounded to two
// decimals. Both titles are lowercased, stripped of punctuation and split
// on spaces; each side's tokens are tested as substrings of the other
// side's separator-free join, and whichever direction matches more tokens
// determines the ratio. The asymmetric pick is deliberate: it still flags
// a duplicate when one title is the other plus a section tag, where the
// reverse fraction alone would stay low. A short generic title that is a
// token subset of a longer unrelated one can score high; known limitation.
func Ratio(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	joinA := strings.Join(tokensA, "")
	joinB := strings.Join(tokensB, "")

	sameA := countMatches(tokensA, joinB)
	sameB := countMatches(tokensB, joinA)

	same, origin := sameA, len(tokensA)
	if sameA < sameB {
		same, origin = sameB, len(tokensB)
	}

	if origin == 0 {
		return 0
	}

	return math.Round(float64(same)/float64(origin)*100) / 100
}

func tokenize(title string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(excludedRunes, r) {
			return -1
		}
		return r
	}, strings.ToLower(title))

	// Plain split, not Fields: runs of spaces produce empty tokens that
	// still count toward the origin length, matching the ratio produced
	// for sloppily formatted titles.
	return strings.Split(cleaned, " ")
}

func countMatches(tokens []string, join string) int {
	count := 0
	for _, token := range tokens {
		if len(token) > 0 && strings.Contains(join, token) {
			count++
		}
	}
	return count
}
