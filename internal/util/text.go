package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	rePunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// NormalizeSpaces trims the input and collapses every whitespace run to a
// single space.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// JoinFragments joins line fragments with single spaces.
func JoinFragments(fragments []string) string {
	return NormalizeSpaces(strings.Join(fragments, " "))
}

// Fold lowercases the input, drops punctuation and collapses spaces; used
// only for similarity scoring, never for keys.
func Fold(input string) string {
	s := strings.ToLower(input)
	s = rePunctuation.ReplaceAllString(s, " ")
	return NormalizeSpaces(s)
}

func Tokenize(input string) []string {
	norm := Fold(input)
	if norm == "" {
		return nil
	}
	parts := strings.Split(norm, " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

// Similarity scores two names on a 0..100 scale: bigram Dice over the folded
// strings blended with the share of query tokens present in the candidate.
func Similarity(query, candidate string) int {
	q := Fold(query)
	c := Fold(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}

	dice := DiceCoefficient(q, c)
	queryTokens := Tokenize(q)
	candidateTokens := Tokenize(c)
	score := dice
	if len(queryTokens) > 0 && len(candidateTokens) > 0 {
		set := map[string]struct{}{}
		for _, t := range candidateTokens {
			set[t] = struct{}{}
		}
		overlap := 0
		for _, t := range queryTokens {
			if _, ok := set[t]; ok {
				overlap++
			}
		}
		tokenScore := float64(overlap) / float64(len(queryTokens))
		score = 0.65*dice + 0.35*tokenScore
	}
	return int(score*100 + 0.5)
}
