package match

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	a := Fingerprint("Glenlivet 12 Years Old", "Glenlivet", 40, 700, "whisky")
	b := Fingerprint("The GLENLIVET 12yo", "glenlivet", 40, 700, "Whisky")
	if a == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	if a != b {
		t.Fatalf("formatting variants fingerprint differently: %s vs %s", a, b)
	}
}

func TestFingerprintDistinguishesTuple(t *testing.T) {
	t.Parallel()

	base := Fingerprint("Glenlivet 12 Year", "Glenlivet", 40, 700, "whisky")
	cases := map[string]string{
		"abv":    Fingerprint("Glenlivet 12 Year", "Glenlivet", 43, 700, "whisky"),
		"volume": Fingerprint("Glenlivet 12 Year", "Glenlivet", 40, 1000, "whisky"),
		"brand":  Fingerprint("Glenlivet 12 Year", "Gordon & MacPhail", 40, 700, "whisky"),
		"type":   Fingerprint("Glenlivet 12 Year", "Glenlivet", 40, 700, "liqueur"),
	}
	for field, fp := range cases {
		if fp == base {
			t.Fatalf("changing %s did not change the fingerprint", field)
		}
	}
}

func TestFingerprintEmptyName(t *testing.T) {
	t.Parallel()

	if fp := Fingerprint("   ", "Glenlivet", 40, 700, "whisky"); fp != "" {
		t.Fatalf("blank name should yield empty fingerprint, got %q", fp)
	}
}

func TestFingerprintMissingMeasures(t *testing.T) {
	t.Parallel()

	zero := Fingerprint("Lagavulin 16", "", 0, 0, "")
	negative := Fingerprint("Lagavulin 16", "", -1, -1, "")
	if zero != negative {
		t.Fatal("non-positive measures should normalize identically")
	}
}
