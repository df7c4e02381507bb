package dedup

import "testing"

func TestCanonicalizeURL_StripsTrackingAndNormalizes(t *testing.T) {
	t.Parallel()

	got := CanonicalizeURL("HTTPS://WWW.Example.com/page/?utm_source=x&b=2&a=1#s")
	if got != "https://example.com/page?a=1&b=2" {
		t.Fatalf("unexpected canonical url: %q", got)
	}
}

func TestCanonicalizeURL_Idempotent(t *testing.T) {
	t.Parallel()

	first := CanonicalizeURL("https://shop.example.com:443/whisky/macallan-18/?gclid=abc&size=700ml")
	second := CanonicalizeURL(first)
	if first != second {
		t.Fatalf("canonicalization not idempotent: %q != %q", first, second)
	}
	if first != "https://shop.example.com/whisky/macallan-18?size=700ml" {
		t.Fatalf("unexpected canonical url: %q", first)
	}
}

func TestCanonicalizeURL_CollapsesSlashRuns(t *testing.T) {
	t.Parallel()

	first := CanonicalizeURL("https://example.com/a///b")
	if first != "https://example.com/a/b" {
		t.Fatalf("expected slash run fully collapsed, got %q", first)
	}
	if second := CanonicalizeURL(first); second != first {
		t.Fatalf("canonicalization not idempotent: %q != %q", first, second)
	}
}

func TestCanonicalizeURL_RootSlash(t *testing.T) {
	t.Parallel()

	if got := CanonicalizeURL("https://example.com/"); got != "https://example.com" {
		t.Fatalf("unexpected root canonical url: %q", got)
	}
}

func TestCanonicalizeURL_TrackingKeysCaseInsensitive(t *testing.T) {
	t.Parallel()

	got := CanonicalizeURL("https://example.com/p?UTM_Campaign=spring&FBCLID=1&id=9")
	if got != "https://example.com/p?id=9" {
		t.Fatalf("expected tracking keys dropped case-insensitively, got %q", got)
	}
}

func TestCanonicalizeURL_Malformed(t *testing.T) {
	t.Parallel()

	if got := CanonicalizeURL("not a url"); got != "" {
		t.Fatalf("expected empty string for malformed input, got %q", got)
	}
	if got := CanonicalizeURL("   "); got != "" {
		t.Fatalf("expected empty string for blank input, got %q", got)
	}
	if got := CanonicalizeURL("/relative/path"); got != "" {
		t.Fatalf("expected empty string for relative input, got %q", got)
	}
}
