package match

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/db"
)

// Policy constants. GTIN and fingerprint confidences are fixed by policy,
// not computed.
const (
	ConfidenceGTIN        = 1.0
	ConfidenceFingerprint = 0.95

	// Fuzzy acceptance gates.
	fuzzyBrandThreshold         = 0.85
	fuzzyABVThreshold           = 0.90
	fuzzyUnconditionalThreshold = 0.95

	// The orchestrated pipeline maps accepted fuzzy scores into this band.
	fuzzyBandFloor   = 0.70
	fuzzyBandCeiling = 0.90

	// Lookup's additive scale starts here. See Lookup.
	lookupBase = 0.70

	brandBonus     = 0.05
	abvBonus       = 0.05
	abvCloseEnough = 0.5
	defaultScanCap = 100
)

// Catalog is the persistence collaborator for identity lookups.
type Catalog interface {
	FindByGTIN(ctx context.Context, code string) (*db.Product, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*db.Product, error)
	QueryCandidates(ctx context.Context, opts db.CandidateQueryOptions) ([]db.Product, error)
}

// Input carries the extracted identity fields of one observed product.
type Input struct {
	Name        string
	Brand       string
	GTIN        string
	ProductType string
	ABV         *float64
	VolumeML    *float64
}

// Result is the outcome of a matching attempt. Product is nil when no
// known product matched.
type Result struct {
	Product    *db.Product
	Confidence float64
	Method     string
	Details    map[string]any
}

// Matcher resolves candidates against the catalog: GTIN, then
// fingerprint, then fuzzy name/brand similarity. Persistence failures
// degrade to "no match" with a warning - a transient store error must
// never cause an auto-merge.
type Matcher struct {
	catalog Catalog
	logger  zerolog.Logger
	scanCap int
}

func NewMatcher(catalog Catalog, logger zerolog.Logger, scanCap int) *Matcher {
	if scanCap <= 0 {
		scanCap = defaultScanCap
	}
	return &Matcher{
		catalog: catalog,
		logger:  logger,
		scanCap: scanCap,
	}
}

// Match runs the full tier sequence for the orchestrated pipeline. Fuzzy
// confidences are banded to [0.70, 0.90]; this scale is distinct from
// Lookup's and the two must not be conflated.
func (m *Matcher) Match(ctx context.Context, input Input) Result {
	if result, ok := m.MatchGTIN(ctx, input.GTIN); ok {
		return result
	}
	if result, ok := m.MatchFingerprint(ctx, input); ok {
		return result
	}

	hit, ok := m.bestFuzzy(ctx, input)
	if !ok {
		return Result{Method: db.MethodNone}
	}

	// Linear map from the satisfied acceptance threshold into the band:
	// a score right at the threshold lands on 0.70, a perfect 1.0 lands
	// on 0.90.
	span := 1.0 - hit.threshold
	confidence := fuzzyBandFloor
	if span > 0 {
		confidence += (hit.score - hit.threshold) / span * (fuzzyBandCeiling - fuzzyBandFloor)
	}
	confidence = clamp(confidence, fuzzyBandFloor, fuzzyBandCeiling)

	details := hit.details()
	details["banded_confidence"] = confidence
	return Result{
		Product:    hit.product,
		Confidence: confidence,
		Method:     db.MethodFuzzy,
		Details:    details,
	}
}

// MatchGTIN strips spaces and dashes from the code and looks it up
// exactly. A hit is always confidence 1.0.
func (m *Matcher) MatchGTIN(ctx context.Context, code string) (Result, bool) {
	normalized := normalizeGTIN(code)
	if normalized == "" {
		return Result{}, false
	}

	product, err := m.catalog.FindByGTIN(ctx, normalized)
	if err != nil {
		m.logger.Warn().Err(err).Str("gtin", normalized).Msg("gtin lookup failed; treating as no match")
		return Result{}, false
	}
	if product == nil {
		return Result{}, false
	}
	return Result{
		Product:    product,
		Confidence: ConfidenceGTIN,
		Method:     db.MethodGTIN,
		Details:    map[string]any{"gtin": normalized},
	}, true
}

// MatchFingerprint computes the candidate's fingerprint and looks it up
// exactly. A hit is always confidence 0.95.
func (m *Matcher) MatchFingerprint(ctx context.Context, input Input) (Result, bool) {
	fingerprint := Fingerprint(input.Name, input.Brand, deref(input.ABV), deref(input.VolumeML), input.ProductType)
	if fingerprint == "" {
		return Result{}, false
	}

	product, err := m.catalog.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		m.logger.Warn().Err(err).Msg("fingerprint lookup failed; treating as no match")
		return Result{}, false
	}
	if product == nil {
		return Result{}, false
	}
	return Result{
		Product:    product,
		Confidence: ConfidenceFingerprint,
		Method:     db.MethodFingerprint,
		Details:    map[string]any{"fingerprint": fingerprint},
	}, true
}

// Lookup is the standalone entry point for direct entity search (the
// CheckAll product tier and the API). Its confidence starts from a 0.70
// base at the raw similarity and adds the brand/ABV bonuses on top,
// capped at 1.0. This additive scale intentionally differs from Match's
// banded scale; do not unify them.
func (m *Matcher) Lookup(ctx context.Context, input Input) Result {
	hit, ok := m.bestFuzzy(ctx, input)
	if !ok {
		return Result{Method: db.MethodNone}
	}

	confidence := hit.similarity
	if confidence < lookupBase {
		confidence = lookupBase
	}
	if hit.brandMatch {
		confidence += brandBonus
	}
	if hit.abvMatch {
		confidence += abvBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	details := hit.details()
	details["lookup_confidence"] = confidence
	return Result{
		Product:    hit.product,
		Confidence: confidence,
		Method:     db.MethodFuzzy,
		Details:    details,
	}
}

// FindSimilarProduct adapts Lookup for the duplicate checker's product
// tier.
func (m *Matcher) FindSimilarProduct(ctx context.Context, name, brand string) (int64, bool, error) {
	result := m.Lookup(ctx, Input{Name: name, Brand: brand})
	if result.Product == nil {
		return 0, false, nil
	}
	return result.Product.ProductID, true, nil
}

type fuzzyHit struct {
	product    *db.Product
	similarity float64
	score      float64
	threshold  float64
	brandMatch bool
	abvMatch   bool
}

func (h fuzzyHit) details() map[string]any {
	return map[string]any{
		"similarity":  h.similarity,
		"score":       h.score,
		"threshold":   h.threshold,
		"brand_match": h.brandMatch,
		"abv_match":   h.abvMatch,
	}
}

func (m *Matcher) bestFuzzy(ctx context.Context, input Input) (fuzzyHit, bool) {
	normalizedName := NormalizeName(input.Name)
	if normalizedName == "" {
		return fuzzyHit{}, false
	}

	candidates, err := m.catalog.QueryCandidates(ctx, db.CandidateQueryOptions{
		NameFirstWord: FirstSignificantWord(input.Name),
		Brand:         strings.TrimSpace(input.Brand),
		ProductType:   strings.TrimSpace(input.ProductType),
		Limit:         m.scanCap,
	})
	if err != nil {
		m.logger.Warn().Err(err).Str("name", input.Name).Msg("candidate query failed; treating as no match")
		return fuzzyHit{}, false
	}

	normalizedBrand := NormalizeName(input.Brand)

	var best fuzzyHit
	var found bool
	for i := range candidates {
		candidate := &candidates[i]
		similarity := BestSimilarity(normalizedName, NormalizeName(candidate.Name))

		brandMatch := normalizedBrand != "" && normalizedBrand == NormalizeName(candidate.Brand)
		abvMatch := input.ABV != nil && candidate.ABV != nil && math.Abs(*input.ABV-*candidate.ABV) < abvCloseEnough

		score := similarity
		if brandMatch {
			score += brandBonus
		}
		if abvMatch {
			score += abvBonus
		}
		if score > 1.0 {
			score = 1.0
		}

		threshold, accepted := acceptanceThreshold(score, brandMatch, abvMatch)
		if !accepted {
			continue
		}

		hit := fuzzyHit{
			product:    candidate,
			similarity: similarity,
			score:      score,
			threshold:  threshold,
			brandMatch: brandMatch,
			abvMatch:   abvMatch,
		}
		// Deterministic tie-break on product id keeps repeat runs stable.
		if !found || hit.score > best.score || (hit.score == best.score && hit.product.ProductID < best.product.ProductID) {
			best = hit
			found = true
		}
	}
	return best, found
}

// acceptanceThreshold returns the lowest gate the score clears: 0.85 with
// a brand match, 0.90 with an ABV match, 0.95 unconditionally.
func acceptanceThreshold(score float64, brandMatch, abvMatch bool) (float64, bool) {
	switch {
	case brandMatch && score >= fuzzyBrandThreshold:
		return fuzzyBrandThreshold, true
	case abvMatch && score >= fuzzyABVThreshold:
		return fuzzyABVThreshold, true
	case score >= fuzzyUnconditionalThreshold:
		return fuzzyUnconditionalThreshold, true
	default:
		return 0, false
	}
}

func normalizeGTIN(code string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(code))
	return cleaned
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
