package match

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/db"
)

type fakeCatalog struct {
	byGTIN        map[string]*db.Product
	byFingerprint map[string]*db.Product
	candidates    []db.Product

	gtinErr  error
	fpErr    error
	queryErr error

	lastQuery db.CandidateQueryOptions
}

func (f *fakeCatalog) FindByGTIN(_ context.Context, code string) (*db.Product, error) {
	if f.gtinErr != nil {
		return nil, f.gtinErr
	}
	return f.byGTIN[code], nil
}

func (f *fakeCatalog) FindByFingerprint(_ context.Context, fingerprint string) (*db.Product, error) {
	if f.fpErr != nil {
		return nil, f.fpErr
	}
	return f.byFingerprint[fingerprint], nil
}

func (f *fakeCatalog) QueryCandidates(_ context.Context, opts db.CandidateQueryOptions) ([]db.Product, error) {
	f.lastQuery = opts
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.candidates, nil
}

func floatPtr(v float64) *float64 { return &v }

func newTestMatcher(catalog *fakeCatalog) *Matcher {
	return NewMatcher(catalog, zerolog.Nop(), 100)
}

func TestMatchGTINExactConfidence(t *testing.T) {
	t.Parallel()

	product := &db.Product{ProductID: 11, Name: "Lagavulin 16 Year"}
	catalog := &fakeCatalog{byGTIN: map[string]*db.Product{"5000281005416": product}}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{Name: "Lagavulin 16", GTIN: "5 000281-005416"})
	if result.Method != db.MethodGTIN {
		t.Fatalf("method = %q, want gtin", result.Method)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("gtin confidence = %v, want exactly 1.0", result.Confidence)
	}
	if result.Product != product {
		t.Fatal("wrong product returned")
	}
}

func TestMatchFingerprintExactConfidence(t *testing.T) {
	t.Parallel()

	product := &db.Product{ProductID: 12, Name: "Glenlivet 12 Year"}
	fp := Fingerprint("Glenlivet 12 Year", "Glenlivet", 40, 700, "whisky")
	catalog := &fakeCatalog{byFingerprint: map[string]*db.Product{fp: product}}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{
		Name:        "The Glenlivet 12 Years Old",
		Brand:       "Glenlivet",
		ProductType: "whisky",
		ABV:         floatPtr(40),
		VolumeML:    floatPtr(700),
	})
	if result.Method != db.MethodFingerprint {
		t.Fatalf("method = %q, want fingerprint", result.Method)
	}
	if result.Confidence != ConfidenceFingerprint {
		t.Fatalf("fingerprint confidence = %v, want exactly 0.95", result.Confidence)
	}
}

func TestMatchFuzzyBandedConfidence(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 3, Name: "Glenlivet 12 Year", Brand: "Glenlivet", ABV: floatPtr(40)},
	}}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{
		Name:  "The Glenlivet 12 Years Old",
		Brand: "Glenlivet",
		ABV:   floatPtr(40),
	})
	if result.Method != db.MethodFuzzy {
		t.Fatalf("method = %q, want fuzzy", result.Method)
	}
	if result.Product == nil || result.Product.ProductID != 3 {
		t.Fatalf("wrong product: %+v", result.Product)
	}
	if result.Confidence < fuzzyBandFloor || result.Confidence > fuzzyBandCeiling {
		t.Fatalf("fuzzy confidence %v outside [%v, %v]", result.Confidence, fuzzyBandFloor, fuzzyBandCeiling)
	}
	// Perfect similarity with bonuses sits at the top of the band.
	if !almostEqual(result.Confidence, fuzzyBandCeiling) {
		t.Fatalf("expected band ceiling, got %v", result.Confidence)
	}
	if catalog.lastQuery.NameFirstWord != "glenlivet" {
		t.Fatalf("candidate query not narrowed by first word: %+v", catalog.lastQuery)
	}
}

func TestMatchFuzzyRejectsBelowThreshold(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 4, Name: "Glenfiddich 12 Year", Brand: "Glenfiddich"},
	}}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{Name: "Glenmorangie Original", Brand: "Glenmorangie"})
	if result.Method != db.MethodNone || result.Product != nil {
		t.Fatalf("expected no match, got %+v", result)
	}
}

func TestMatchEmptyNameShortCircuits(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{{ProductID: 1, Name: "Anything"}}}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{Name: "   "})
	if result.Method != db.MethodNone || result.Product != nil {
		t.Fatalf("blank name should not match, got %+v", result)
	}
}

func TestMatchStoreErrorsDegradeToNoMatch(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	catalog := &fakeCatalog{gtinErr: boom, fpErr: boom, queryErr: boom}
	m := newTestMatcher(catalog)

	result := m.Match(context.Background(), Input{
		Name:  "Lagavulin 16 Year",
		Brand: "Lagavulin",
		GTIN:  "5000281005416",
	})
	if result.Method != db.MethodNone || result.Product != nil {
		t.Fatalf("store errors must degrade to no match, got %+v", result)
	}
}

func TestLookupAdditiveScale(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 9, Name: "Ardbeg Uigeadail", Brand: "Ardbeg", ABV: floatPtr(54.2)},
	}}
	m := newTestMatcher(catalog)

	result := m.Lookup(context.Background(), Input{
		Name:  "Ardbeg Uigeadail",
		Brand: "Ardbeg",
		ABV:   floatPtr(54.2),
	})
	if result.Product == nil || result.Product.ProductID != 9 {
		t.Fatalf("expected lookup hit, got %+v", result)
	}
	// Perfect similarity plus both bonuses caps at 1.0 on this scale.
	if !almostEqual(result.Confidence, 1.0) {
		t.Fatalf("lookup confidence = %v, want 1.0", result.Confidence)
	}
}

func TestFindSimilarProductAdapter(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{candidates: []db.Product{
		{ProductID: 42, Name: "Talisker 10 Year", Brand: "Talisker"},
	}}
	m := newTestMatcher(catalog)

	id, found, err := m.FindSimilarProduct(context.Background(), "Talisker 10 Years Old", "Talisker")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || id != 42 {
		t.Fatalf("got (%d, %v), want (42, true)", id, found)
	}

	id, found, err = m.FindSimilarProduct(context.Background(), "Completely Unrelated Gin", "Hendricks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || id != 0 {
		t.Fatalf("got (%d, %v), want (0, false)", id, found)
	}
}
