package match

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLevenshteinRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"glenlivet", "", 0},
		{"glenlivet", "glenlivet", 1},
		{"kitten", "sitting", 1 - 3.0/7.0},
	}
	for _, tc := range cases {
		if got := LevenshteinRatio(tc.a, tc.b); !almostEqual(got, tc.want) {
			t.Fatalf("LevenshteinRatio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTokenSetRatioIgnoresOrder(t *testing.T) {
	t.Parallel()

	if got := TokenSetRatio("glenlivet 12 year", "12 year glenlivet"); !almostEqual(got, 1) {
		t.Fatalf("reordered tokens should score 1.0, got %v", got)
	}
}

func TestPartialRatioContainment(t *testing.T) {
	t.Parallel()

	if got := PartialRatio("macallan 18 year", "macallan 18 year sherry oak"); !almostEqual(got, 1) {
		t.Fatalf("contained name should score 1.0, got %v", got)
	}
	if got := PartialRatio("", "macallan"); got != 0 {
		t.Fatalf("empty side should score 0, got %v", got)
	}
}

func TestBestSimilarityTakesMax(t *testing.T) {
	t.Parallel()

	a := "macallan 18 year"
	b := "macallan 18 year sherry oak"
	best := BestSimilarity(a, b)
	for name, v := range map[string]float64{
		"levenshtein": LevenshteinRatio(a, b),
		"token set":   TokenSetRatio(a, b),
		"partial":     PartialRatio(a, b),
	} {
		if v > best {
			t.Fatalf("%s ratio %v exceeds BestSimilarity %v", name, v, best)
		}
	}
	if !almostEqual(best, 1) {
		t.Fatalf("expected containment to dominate, got %v", best)
	}
}
