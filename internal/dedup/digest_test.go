package dedup

import "testing"

func TestContentDigest_WhitespaceInvariant(t *testing.T) {
	t.Parallel()

	if ContentDigest("Hello   World  ") != ContentDigest("Hello World") {
		t.Fatalf("expected digests to match after whitespace normalization")
	}
	if ContentDigest("Hello\n\tWorld") != ContentDigest("Hello World") {
		t.Fatalf("expected newline/tab runs to collapse to a single space")
	}
}

func TestContentDigest_EmptySentinel(t *testing.T) {
	t.Parallel()

	if got := ContentDigest(""); got != "" {
		t.Fatalf("expected empty sentinel for empty input, got %q", got)
	}
	if got := ContentDigest(" \n\t "); got != "" {
		t.Fatalf("expected empty sentinel for whitespace-only input, got %q", got)
	}
}

func TestContentDigest_Hex(t *testing.T) {
	t.Parallel()

	got := ContentDigest("Glen Moray 12 Year")
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d (%q)", len(got), got)
	}
	for _, r := range got {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("expected lowercase hex digest, got %q", got)
		}
	}
}
