package match

import "testing"

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "GLENFIDDICH", "glenfiddich"},
		{"apostrophe dropped", "Ballantine's", "ballantines"},
		{"curly apostrophe dropped", "Ballantine’s Finest", "ballantines finest"},
		{"hyphen widened", "Johnnie-Walker Black", "johnnie walker black"},
		{"trademark stripped", "Highland Park® 12", "highland park 12"},
		{"leading the removed", "The Macallan", "macallan"},
		{"years old collapsed", "Glenlivet 12 Years Old", "glenlivet 12 year"},
		{"yo collapsed", "Glenlivet 12 YO", "glenlivet 12 year"},
		{"attached yo collapsed", "Glenlivet 12yo", "glenlivet 12 year"},
		{"dotted yo collapsed", "Glenlivet 12 Y.O.", "glenlivet 12 year"},
		{"dotted yo collapsed mid-string", "Glenlivet 12 Y.O. Speyside", "glenlivet 12 year speyside"},
		{"slashed yo collapsed", "Glenlivet 12 y/o", "glenlivet 12 year"},
		{"yrs collapsed", "Laphroaig 10 yrs", "laphroaig 10 year"},
		{"whitespace collapsed", "  Ardbeg   Uigeadail  ", "ardbeg uigeadail"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeName(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := NormalizeName(got); again != got {
				t.Fatalf("NormalizeName is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestFirstSignificantWord(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"The Glenlivet 12 Year", "glenlivet"},
		{"A Midwinter Night's Dram", "midwinter"},
		{"Lagavulin 16", "lagavulin"},
		{"", ""},
		{"the", ""},
	}
	for _, tc := range cases {
		if got := FirstSignificantWord(tc.in); got != tc.want {
			t.Fatalf("FirstSignificantWord(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("Ballantine's 10-YO (Blended)")
	want := []string{"ballantine", "s", "10", "yo", "blended"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize returned %v, want %v", got, want)
		}
	}
}
