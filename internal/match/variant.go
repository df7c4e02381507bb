package match

import (
	"strings"

	"horse.fit/decant/internal/db"
)

// Variant type labels stored on candidates and surfaced to reviewers.
const (
	VariantCaskFinish     = "cask_finish"
	VariantCaskStrength   = "cask_strength"
	VariantTravelRetail   = "travel_retail"
	VariantLimitedEdition = "limited_edition"
)

// Names more similar than this are the same listing, not a variant.
const variantSameProductCeiling = 0.95

// Share of base-name words that must appear in the candidate to treat
// the candidate as an extension of the base.
const variantWordCoverage = 0.6

type variantPatternGroup struct {
	variantType string
	markers     []string
}

// Markers are matched against normalized names, so they are lowercase
// with no punctuation. Order matters only across groups: the first group
// with a marker present in the candidate but absent from the base wins.
var variantPatternGroups = []variantPatternGroup{
	{
		variantType: VariantCaskFinish,
		markers: []string{
			"sherry oak", "sherry cask", "sherry finish",
			"port cask", "port finish", "port wood",
			"madeira cask", "madeira finish",
			"rum cask", "rum finish",
			"wine cask", "wine finish",
			"bourbon cask", "bourbon barrel",
			"oloroso", "pedro ximenez", "px cask",
			"double cask", "triple cask", "double wood", "triple wood",
			"french oak", "american oak", "virgin oak",
			"peated cask", "amarone cask", "sauternes",
		},
	},
	{
		variantType: VariantCaskStrength,
		markers: []string{
			"cask strength", "barrel strength", "barrel proof",
			"batch strength", "navy strength", "full proof", "overproof",
		},
	},
	{
		variantType: VariantTravelRetail,
		markers: []string{
			"travel retail", "travel exclusive", "duty free",
			"global travel", "airport exclusive",
		},
	},
	{
		variantType: VariantLimitedEdition,
		markers: []string{
			"limited edition", "limited release", "special edition",
			"special release", "anniversary edition", "anniversary release",
			"single cask", "single barrel select", "small batch select",
			"commemorative", "collectors edition", "vintage release",
		},
	},
}

// VariantResult names the relationship between a candidate and an
// existing base product.
type VariantResult struct {
	IsVariant   bool
	VariantType string
	BaseProduct *db.Product
}

// DetectVariant decides whether candidateName is a distinct expression
// of base (cask finish, cask strength, travel retail, limited edition)
// rather than a duplicate listing. Returns nil when the names are the
// same product, unrelated, or carry no variant marker.
func DetectVariant(candidateName string, base *db.Product) *VariantResult {
	if base == nil {
		return nil
	}
	normCandidate := NormalizeName(candidateName)
	normBase := NormalizeName(base.Name)
	if normCandidate == "" || normBase == "" {
		return nil
	}

	// Near-identical names are the same product; a variant has to differ.
	// Plain edit ratio here, not BestSimilarity: the partial ratio scores
	// any extension of the base name 1.0, which is exactly the shape a
	// variant takes.
	if LevenshteinRatio(normCandidate, normBase) > variantSameProductCeiling {
		return nil
	}

	if !strings.Contains(normCandidate, normBase) && wordCoverage(normBase, normCandidate) < variantWordCoverage {
		return nil
	}

	for _, group := range variantPatternGroups {
		for _, marker := range group.markers {
			if strings.Contains(normCandidate, marker) && !strings.Contains(normBase, marker) {
				return &VariantResult{
					IsVariant:   true,
					VariantType: group.variantType,
					BaseProduct: base,
				}
			}
		}
	}
	return nil
}

// wordCoverage reports the fraction of words in base that also appear in
// candidate.
func wordCoverage(base, candidate string) float64 {
	baseWords := strings.Fields(base)
	if len(baseWords) == 0 {
		return 0
	}
	candidateWords := make(map[string]struct{})
	for _, w := range strings.Fields(candidate) {
		candidateWords[w] = struct{}{}
	}
	covered := 0
	for _, w := range baseWords {
		if _, ok := candidateWords[w]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(baseWords))
}
