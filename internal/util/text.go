package util

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Ratio scores the similarity of two strings on a 0-100 scale, where 100
// means equal. The score is the Levenshtein distance normalized by the
// longer input. Comparison is case-sensitive; callers fold case themselves.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (1 - float64(dist)/float64(longest))
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

// MatchKey builds the confirmed-match cache key for a name pair.
func MatchKey(first, last string) string {
	return NormalizeName(first) + "|" + NormalizeName(last)
}

func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DayKey groups rows that belong to the same contact and visit date.
func DayKey(first, last, isoDate string) string {
	return NormalizeName(first) + "_" + NormalizeName(last) + "_" + isoDate
}
