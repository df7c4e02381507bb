package match

import (
	"regexp"
	"strings"
	"unicode"
)

// The normalizer is shared by the fuzzy matcher and the enrichment
// validator. Any drift between the two produces inconsistent verdicts, so
// both must call NormalizeName, never a local variant.

var (
	apostropheReplacer = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "", "´", "")
	dashReplacer       = strings.NewReplacer("-", " ", "–", " ", "—", " ")
	trademarkReplacer  = strings.NewReplacer("®", "", "™", "", "(r)", "", "(tm)", "")

	// "10 years", "10 yrs", "10yo", "10 y/o", "10 y.o." all collapse to
	// "10 year". Longest alternatives first so "years old" wins over
	// "year". The boundary sits on each alternative because "y.o." and
	// "y/o" end in non-word characters, where \b never matches.
	agePattern = regexp.MustCompile(`\b(\d+)\s*(?:years?\s+old\b|years?\b|yrs?\b|y\.o\.|y/o\b|yo\b)`)
)

// NormalizeName standardizes a product or brand name for comparison:
// lowercase, apostrophes deleted, hyphens widened to spaces, trademark
// glyphs stripped, a leading "the " removed, age expressions collapsed to
// "N year", whitespace collapsed.
func NormalizeName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = trademarkReplacer.Replace(s)
	s = apostropheReplacer.Replace(s)
	s = dashReplacer.Replace(s)
	s = agePattern.ReplaceAllString(s, "${1} year")
	s = strings.TrimPrefix(s, "the ")
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// FirstSignificantWord returns the first word of a normalized name,
// skipping leading articles. Used to narrow candidate queries when no
// brand is available.
func FirstSignificantWord(name string) string {
	for _, word := range strings.Fields(NormalizeName(name)) {
		switch word {
		case "the", "a", "an":
			continue
		}
		return word
	}
	return ""
}

// Tokenize splits a string on non-alphanumeric boundaries, lowercased.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	parts := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}
