package match

import (
	"testing"

	"horse.fit/decant/internal/db"
)

func TestDetectVariantSameNameIsNotVariant(t *testing.T) {
	t.Parallel()

	base := &db.Product{ProductID: 1, Name: "Macallan 18 Year"}
	if v := DetectVariant("Macallan 18 Year", base); v != nil {
		t.Fatalf("identical names should not be a variant, got %+v", v)
	}
}

func TestDetectVariantCaskFinish(t *testing.T) {
	t.Parallel()

	base := &db.Product{ProductID: 7, Name: "Macallan 18 Year"}
	v := DetectVariant("Macallan 18 Year Sherry Oak", base)
	if v == nil || !v.IsVariant {
		t.Fatal("expected a cask finish variant")
	}
	if v.VariantType != VariantCaskFinish {
		t.Fatalf("variant type = %q, want %q", v.VariantType, VariantCaskFinish)
	}
	if v.BaseProduct != base {
		t.Fatal("variant should reference the base product")
	}
}

func TestDetectVariantCaskStrength(t *testing.T) {
	t.Parallel()

	base := &db.Product{ProductID: 8, Name: "Glenfarclas 105"}
	v := DetectVariant("Glenfarclas 105 Cask Strength", base)
	if v == nil || v.VariantType != VariantCaskStrength {
		t.Fatalf("expected cask_strength, got %+v", v)
	}
}

func TestDetectVariantUnrelatedNames(t *testing.T) {
	t.Parallel()

	base := &db.Product{ProductID: 9, Name: "Lagavulin 16 Year"}
	if v := DetectVariant("Talisker 10 Year Limited Edition", base); v != nil {
		t.Fatalf("unrelated names should not relate, got %+v", v)
	}
}

func TestDetectVariantMarkerAlreadyOnBase(t *testing.T) {
	t.Parallel()

	// The marker must be new on the candidate side.
	base := &db.Product{ProductID: 10, Name: "Aberlour A'bunadh Cask Strength"}
	if v := DetectVariant("Aberlour A'bunadh Cask Strength Batch 70", base); v != nil {
		t.Fatalf("marker present on base should not flag a variant, got %+v", v)
	}
}

func TestDetectVariantNilAndEmptyInputs(t *testing.T) {
	t.Parallel()

	if v := DetectVariant("Macallan 18 Year Sherry Oak", nil); v != nil {
		t.Fatal("nil base should return nil")
	}
	if v := DetectVariant("", &db.Product{Name: "Macallan 18 Year"}); v != nil {
		t.Fatal("empty candidate should return nil")
	}
}
