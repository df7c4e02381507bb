package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/db"
)

// Pipeline decision boundaries. Above autoMergeFloor the match is applied
// automatically; between the two floors (inclusive) a reviewer decides.
// Fuzzy confidences top out at 0.90, so only GTIN and fingerprint hits
// auto-merge.
const (
	autoMergeFloor = 0.9
	reviewFloor    = 0.7
)

// Resolver persists a pipeline decision together with its audit event.
// *db.Pool's ApplyResolution satisfies it.
type Resolver interface {
	ApplyResolution(ctx context.Context, candidateID int64, res db.CandidateResolution, event db.MatchEvent) error
}

// Pipeline runs the full identity decision for one staged candidate:
// match against the catalog, consult the variant detector on a fuzzy
// hit, pick a terminal status, and persist it.
type Pipeline struct {
	matcher  *Matcher
	resolver Resolver
	logger   zerolog.Logger
}

func NewPipeline(matcher *Matcher, resolver Resolver, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		matcher:  matcher,
		resolver: resolver,
		logger:   logger,
	}
}

// Process resolves candidate and updates it in place. The candidate must
// be pending; the resolver's status guard makes the transition happen at
// most once even under concurrent runs. Matching itself is deterministic,
// so reprocessing an identical candidate against an unchanged catalog
// reaches the same decision.
func (p *Pipeline) Process(ctx context.Context, candidate *db.ProductCandidate) (Result, error) {
	if candidate == nil {
		return Result{}, fmt.Errorf("nil candidate")
	}
	if candidate.MatchStatus != db.CandidatePending {
		return Result{}, fmt.Errorf("candidate %d is %s, not pending", candidate.CandidateID, candidate.MatchStatus)
	}

	input := candidateInput(candidate)
	result := p.matcher.Match(ctx, input)

	var variant *VariantResult
	if result.Method == db.MethodFuzzy && result.Product != nil {
		variant = DetectVariant(input.Name, result.Product)
	}

	resolution := p.decide(result, variant)
	event := db.MatchEvent{
		Decision:         resolution.Status,
		Method:           resolution.Method,
		Confidence:       resolution.Confidence,
		MatchedProductID: resolution.MatchedProductID,
		Details:          marshalDetails(result.Details),
	}

	if err := p.resolver.ApplyResolution(ctx, candidate.CandidateID, resolution, event); err != nil {
		return Result{}, fmt.Errorf("apply resolution candidate_id=%d: %w", candidate.CandidateID, err)
	}

	candidate.MatchStatus = resolution.Status
	candidate.MatchConfidence = resolution.Confidence
	candidate.MatchMethod = resolution.Method
	candidate.MatchedProductID = resolution.MatchedProductID
	candidate.RelatedProductID = resolution.RelatedProductID
	if resolution.VariantType != "" {
		vt := resolution.VariantType
		candidate.VariantType = &vt
	}

	p.logger.Info().
		Int64("candidate_id", candidate.CandidateID).
		Str("status", resolution.Status).
		Str("method", resolution.Method).
		Float64("confidence", result.Confidence).
		Msg("candidate resolved")

	return result, nil
}

func (p *Pipeline) decide(result Result, variant *VariantResult) db.CandidateResolution {
	confidence := result.Confidence

	// A true variant is a distinct product related to the base, never a
	// merge target.
	if variant != nil && variant.IsVariant {
		related := variant.BaseProduct.ProductID
		return db.CandidateResolution{
			Status:           db.CandidateNewProduct,
			Confidence:       &confidence,
			Method:           result.Method,
			RelatedProductID: &related,
			VariantType:      variant.VariantType,
		}
	}

	if result.Product == nil || confidence < reviewFloor {
		return db.CandidateResolution{
			Status:     db.CandidateNewProduct,
			Confidence: optionalConfidence(result),
			Method:     result.Method,
		}
	}

	matched := result.Product.ProductID
	if confidence > autoMergeFloor {
		return db.CandidateResolution{
			Status:           db.CandidateMatched,
			Confidence:       &confidence,
			Method:           result.Method,
			MatchedProductID: &matched,
		}
	}
	return db.CandidateResolution{
		Status:           db.CandidateNeedsReview,
		Confidence:       &confidence,
		Method:           result.Method,
		MatchedProductID: &matched,
	}
}

func candidateInput(candidate *db.ProductCandidate) Input {
	name := candidate.NormalizedName
	if name == "" {
		name = candidate.RawName
	}
	input := Input{
		Name:        name,
		Brand:       candidate.Brand,
		ProductType: candidate.ProductType,
		ABV:         candidate.ABV,
		VolumeML:    candidate.VolumeML,
	}
	if candidate.GTIN != nil {
		input.GTIN = *candidate.GTIN
	}
	return input
}

func optionalConfidence(result Result) *float64 {
	if result.Method == db.MethodNone {
		return nil
	}
	c := result.Confidence
	return &c
}

func marshalDetails(details map[string]any) json.RawMessage {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return raw
}
