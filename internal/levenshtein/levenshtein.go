// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

// Package levenshtein calculates edit distances for diagnostic
// "did you mean" suggestions.
package levenshtein

// Distance calculates the Levenshtein distance between two strings: the
// minimum number of single-character insertions, deletions or substitutions
// needed to transform one into the other.
//
// This implementation uses O(min(m,n)) space.
func Distance(str1, str2 string) int {
	s1 := []rune(str1)
	s2 := []rune(str2)

	lenS1 := len(s1)
	lenS2 := len(s2)

	if lenS1 > lenS2 {
		s1, s2 = s2, s1
		lenS1, lenS2 = lenS2, lenS1
	}

	if lenS2 == 0 {
		return lenS1
	}

	column := make([]int, lenS1+1)
	for idx := 1; idx <= lenS1; idx++ {
		column[idx] = idx
	}

	for col := range lenS2 {
		s2Rune := s2[col]
		column[0] = col + 1
		lastdiag := col

		for row := range lenS1 {
			olddiag := column[row+1]

			cost := 0
			if s1[row] != s2Rune {
				cost = 1
			}

			column[row+1] = min(
				column[row+1]+1,
				column[row]+1,
				lastdiag+cost,
			)
			lastdiag = olddiag
		}
	}

	return column[lenS1]
}

// maxSuggestionDistance bounds how far a candidate may be from the query
// before it stops being a useful suggestion.
const maxSuggestionDistance = 3

// Closest returns the candidate nearest to query, provided it is within
// the suggestion threshold. The second return is false when no candidate
// qualifies. Ties resolve to the earliest candidate.
func Closest(query string, candidates []string) (string, bool) {
	best := ""
	bestDist := maxSuggestionDistance + 1

	for _, cand := range candidates {
		d := Distance(query, cand)
		if d < bestDist {
			best = cand
			bestDist = d
		}
	}

	if bestDist > maxSuggestionDistance {
		return "", false
	}

	return best, true
}
