package match

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/db"
)

type fakeResolver struct {
	candidateID int64
	resolution  db.CandidateResolution
	event       db.MatchEvent
	calls       int
}

func (f *fakeResolver) ApplyResolution(_ context.Context, candidateID int64, res db.CandidateResolution, event db.MatchEvent) error {
	f.candidateID = candidateID
	f.resolution = res
	f.event = event
	f.calls++
	return nil
}

func stringPtr(s string) *string { return &s }

func newTestPipeline(catalog *fakeCatalog) (*Pipeline, *fakeResolver) {
	resolver := &fakeResolver{}
	matcher := NewMatcher(catalog, zerolog.Nop(), 100)
	return NewPipeline(matcher, resolver, zerolog.Nop()), resolver
}

func TestPipelineGTINHitAutoMerges(t *testing.T) {
	t.Parallel()

	product := &db.Product{ProductID: 21, Name: "Lagavulin 16 Year"}
	catalog := &fakeCatalog{byGTIN: map[string]*db.Product{"5000281005416": product}}
	pipeline, resolver := newTestPipeline(catalog)

	candidate := &db.ProductCandidate{
		CandidateID: 100,
		RawName:     "Lagavulin 16",
		MatchStatus: db.CandidatePending,
		GTIN:        stringPtr("5000281005416"),
	}
	result, err := pipeline.Process(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != db.MethodGTIN {
		t.Fatalf("method = %q, want gtin", result.Method)
	}
	if resolver.resolution.Status != db.CandidateMatched {
		t.Fatalf("status = %q, want matched", resolver.resolution.Status)
	}
	if resolver.resolution.MatchedProductID == nil || *resolver.resolution.MatchedProductID != 21 {
		t.Fatalf("matched product id = %v, want 21", resolver.resolution.MatchedProductID)
	}
	if candidate.MatchStatus != db.CandidateMatched {
		t.Fatal("candidate was not updated in place")
	}
	if resolver.event.Decision != db.CandidateMatched || resolver.event.Method != db.MethodGTIN {
		t.Fatalf("bad audit event: %+v", resolver.event)
	}
}

func TestCandidateInputCarriesIdentityFields(t *testing.T) {
	t.Parallel()

	abv, volume := 43.0, 700.0
	candidate := &db.ProductCandidate{
		RawName:        "Lagavulin 16 Year Old",
		NormalizedName: "lagavulin 16 year",
		Brand:          "Lagavulin",
		ProductType:    "whisky",
		GTIN:           stringPtr("5000281005416"),
		ABV:            &abv,
		VolumeML:       &volume,
	}

	input := candidateInput(candidate)
	if input.Name != "lagavulin 16 year" || input.Brand != "Lagavulin" || input.GTIN != "5000281005416" {
		t.Fatalf("unexpected input: %+v", input)
	}
	if input.ABV == nil || *input.ABV != 43.0 {
		t.Fatalf("abv not carried: %+v", input.ABV)
	}
	// Volume is part of the fingerprint tuple; dropping it here would make
	// the pipeline and a direct lookup fingerprint the same payload
	// differently.
	if input.VolumeML == nil || *input.VolumeML != 700.0 {
		t.Fatalf("volume not carried: %+v", input.VolumeML)
	}
}

func TestPipelineFuzzyHitNeedsReview(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 22, Name: "Glenlivet 12 Year", Brand: "Glenlivet"},
	}}
	pipeline, resolver := newTestPipeline(catalog)

	candidate := &db.ProductCandidate{
		CandidateID: 101,
		RawName:     "The Glenlivet 12 Years Old",
		Brand:       "Glenlivet",
		MatchStatus: db.CandidatePending,
	}
	if _, err := pipeline.Process(context.Background(), candidate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fuzzy confidences never exceed 0.9, so they always route to review.
	if resolver.resolution.Status != db.CandidateNeedsReview {
		t.Fatalf("status = %q, want needs_review", resolver.resolution.Status)
	}
	if resolver.resolution.MatchedProductID == nil || *resolver.resolution.MatchedProductID != 22 {
		t.Fatalf("matched product id = %v, want 22", resolver.resolution.MatchedProductID)
	}
}

func TestPipelineVariantBecomesNewProduct(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 23, Name: "Macallan 18 Year", Brand: "Macallan"},
	}}
	pipeline, resolver := newTestPipeline(catalog)

	candidate := &db.ProductCandidate{
		CandidateID: 102,
		RawName:     "Macallan 18 Year Sherry Oak",
		Brand:       "Macallan",
		MatchStatus: db.CandidatePending,
	}
	if _, err := pipeline.Process(context.Background(), candidate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.resolution.Status != db.CandidateNewProduct {
		t.Fatalf("status = %q, want new_product", resolver.resolution.Status)
	}
	if resolver.resolution.RelatedProductID == nil || *resolver.resolution.RelatedProductID != 23 {
		t.Fatalf("related product id = %v, want 23", resolver.resolution.RelatedProductID)
	}
	if resolver.resolution.VariantType != VariantCaskFinish {
		t.Fatalf("variant type = %q, want %q", resolver.resolution.VariantType, VariantCaskFinish)
	}
	if resolver.resolution.MatchedProductID != nil {
		t.Fatal("a variant must not be recorded as a merge target")
	}
}

func TestPipelineNoMatchNewProduct(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{}
	pipeline, resolver := newTestPipeline(catalog)

	candidate := &db.ProductCandidate{
		CandidateID: 103,
		RawName:     "Totally New Distillery Flagship",
		MatchStatus: db.CandidatePending,
	}
	if _, err := pipeline.Process(context.Background(), candidate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.resolution.Status != db.CandidateNewProduct {
		t.Fatalf("status = %q, want new_product", resolver.resolution.Status)
	}
	if resolver.resolution.Method != db.MethodNone {
		t.Fatalf("method = %q, want none", resolver.resolution.Method)
	}
	if resolver.resolution.Confidence != nil {
		t.Fatalf("no-match confidence should be nil, got %v", *resolver.resolution.Confidence)
	}
}

func TestPipelineRejectsNonPending(t *testing.T) {
	t.Parallel()

	pipeline, resolver := newTestPipeline(&fakeCatalog{})
	candidate := &db.ProductCandidate{
		CandidateID: 104,
		RawName:     "Lagavulin 16",
		MatchStatus: db.CandidateMatched,
	}
	if _, err := pipeline.Process(context.Background(), candidate); err == nil {
		t.Fatal("expected error for non-pending candidate")
	}
	if resolver.calls != 0 {
		t.Fatal("resolver must not be called for non-pending candidates")
	}
}
