package match

import (
	"sort"
	"strings"
)

// Three similarity views over normalized names. Each returns [0,1].
// BestSimilarity takes the max: edit distance catches typos, the token-set
// ratio catches reordering ("Glenlivet 12 Year" vs "12 Year Glenlivet"),
// and the partial ratio catches one name embedded in a longer listing
// title.

// BestSimilarity returns the strongest of the three measures.
func BestSimilarity(a, b string) float64 {
	best := LevenshteinRatio(a, b)
	if v := TokenSetRatio(a, b); v > best {
		best = v
	}
	if v := PartialRatio(a, b); v > best {
		best = v
	}
	return best
}

// LevenshteinRatio is 1 - distance/maxLen over runes.
func LevenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	distance := levenshtein(ra, rb)
	return 1 - float64(distance)/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// TokenSetRatio compares order-independent token sets: the shared tokens
// plus each side's remainder are rendered back to strings and scored with
// the edit ratio, taking the best pairing.
func TokenSetRatio(a, b string) float64 {
	setA := uniqueSortedTokens(a)
	setB := uniqueSortedTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := make([]string, 0, len(setA))
	onlyA := make([]string, 0, len(setA))
	memberB := make(map[string]struct{}, len(setB))
	for _, t := range setB {
		memberB[t] = struct{}{}
	}
	for _, t := range setA {
		if _, ok := memberB[t]; ok {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	memberShared := make(map[string]struct{}, len(shared))
	for _, t := range shared {
		memberShared[t] = struct{}{}
	}
	onlyB := make([]string, 0, len(setB))
	for _, t := range setB {
		if _, ok := memberShared[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}

	base := strings.Join(shared, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := LevenshteinRatio(base, withA)
	if v := LevenshteinRatio(base, withB); v > best {
		best = v
	}
	if v := LevenshteinRatio(withA, withB); v > best {
		best = v
	}
	return best
}

func uniqueSortedTokens(s string) []string {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	sort.Strings(unique)
	return unique
}

// PartialRatio scores the shorter string against every same-length window
// of the longer one, so a name contained in a longer listing title scores
// 1.0.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 1
	}

	rs := []rune(shorter)
	rl := []rune(longer)
	window := len(rs)
	best := 0.0
	for i := 0; i+window <= len(rl); i++ {
		ratio := LevenshteinRatio(string(rs), string(rl[i:i+window]))
		if ratio > best {
			best = ratio
		}
	}
	return best
}
