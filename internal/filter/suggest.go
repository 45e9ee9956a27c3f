package filter

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest resolves a typed value against the known values of a field.
// Case-insensitive exact matches win, then a unique prefix/substring hit,
// then the closest candidate by edit distance within max(2, len(token)/3).
func Suggest(token string, candidates []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(token))
	if needle == "" || len(candidates) == 0 {
		return "", false
	}
	var contains []string
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == needle {
			return c, true
		}
		if strings.Contains(lc, needle) {
			contains = append(contains, c)
		}
	}
	if len(contains) == 1 {
		return contains[0], true
	}

	limit := max(2, len(needle)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > limit {
		return "", false
	}
	return best, true
}
