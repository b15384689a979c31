package ui

import (
	"sort"
	"strings"

	"hubbleplay/internal/model"
)

type scoredIdx struct {
	idx   int
	score int
}

// fuzzyMatchScore returns (score, ok). Lower score is better.
// Matching is a simple case-insensitive subsequence match.
func fuzzyMatchScore(needle, haystack string) (int, bool) {
	needle = strings.ToLower(needle)
	haystack = strings.ToLower(haystack)
	if needle == "" {
		return 0, true
	}

	score := 0
	j := 0
	for i := 0; i < len(haystack) && j < len(needle); i++ {
		if haystack[i] == needle[j] {
			score += i
			j++
		}
	}
	if j != len(needle) {
		return 0, false
	}
	return score, true
}

// filterEndpoints returns the indexes of eps matching needle, best first.
// An empty needle keeps catalog order.
func filterEndpoints(eps []model.EndpointConfig, needle string) []int {
	needle = strings.TrimSpace(needle)
	out := make([]int, 0, len(eps))
	if needle == "" {
		for i := range eps {
			out = append(out, i)
		}
		return out
	}

	var scored []scoredIdx
	for i, ep := range eps {
		cand := string(ep.Method) + " " + ep.Path + " " + ep.Label + " " + ep.ID
		if s, ok := fuzzyMatchScore(needle, cand); ok {
			scored = append(scored, scoredIdx{idx: i, score: s})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score == scored[j].score {
			return scored[i].idx < scored[j].idx
		}
		return scored[i].score < scored[j].score
	})
	for _, s := range scored {
		out = append(out, s.idx)
	}
	return out
}
