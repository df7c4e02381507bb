// Package enrich guards merges of extracted data into existing products.
// Matching decides that two records are the same product; this validator
// is the last line of defense against enriching the right product with
// the wrong page's data.
package enrich

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/match"
)

// Reason codes returned by Validate. Rejection is a common, expected
// outcome, so reasons are values, not errors.
const (
	ReasonValidated           = "product_match_validated"
	ReasonBothEmpty           = "both_empty"
	ReasonOneEmptyAllowed     = "one_empty_allowed"
	ReasonBrandMismatch       = "brand_mismatch"
	ReasonProductTypeMismatch = "product_type_mismatch"
	ReasonInsufficientTokens  = "insufficient_tokens"
	ReasonNameMismatch        = "name_mismatch"
)

// Significant-token overlap required at the name level.
const tokenOverlapFloor = 0.30

// Fields is one side of a validation: the catalog product being enriched
// or the freshly extracted page data.
type Fields struct {
	Name        string
	Brand       string
	Category    string
	Description string
	ProductType string
}

// Result reports the validation outcome. Reason carries the first failing
// level's code, or product_match_validated when all levels pass.
type Result struct {
	OK     bool
	Reason string
}

type exclusivePair struct {
	name   string
	groupA []*regexp.Regexp
	groupB []*regexp.Regexp
}

type pairSpec struct {
	name   string
	groupA []string
	groupB []string
}

// Keyword exclusivity table. Group B is checked first when deciding which
// side of a pair a text hits, so "late bottled vintage" does not also
// count as a "vintage" hit. The rye group deliberately matches specific
// rye-whiskey phrasings, never bare "rye": "high rye mashbill" bourbons
// must not trip it.
var exclusivePairSpecs = []pairSpec{
	{
		name:   "bourbon_vs_rye",
		groupA: []string{`\bbourbon\b`},
		groupB: []string{`\brye\s+whiske?y\b`, `\bstraight\s+rye\b`, `\brye\s*$`},
	},
	{
		name:   "single_malt_vs_blended",
		groupA: []string{`\bsingle\s+malt\b`},
		groupB: []string{`\bblended\b`},
	},
	{
		name:   "vintage_vs_lbv",
		groupA: []string{`\bvintage\b`},
		groupB: []string{`\blate\s+bottled\s+vintage\b`, `\blbv\b`},
	},
	{
		name:   "tawny_vs_ruby",
		groupA: []string{`\btawny\b`},
		groupB: []string{`\bruby\b`},
	},
}

// Generic stopwords stripped before token overlap.
var genericStopwords = wordSet(
	"the", "a", "an", "of", "and", "with", "from", "de", "la", "le", "el",
)

// Category stopwords: product-type words and age/bottling boilerplate
// that carry no product identity.
var categoryStopwords = wordSet(
	"whisky", "whiskey", "scotch", "bourbon", "rye", "gin", "vodka", "rum",
	"tequila", "mezcal", "brandy", "cognac", "armagnac", "liqueur", "wine",
	"port", "sherry", "spirit", "spirits",
	"single", "malt", "blended", "blend", "grain", "pot", "still",
	"year", "years", "yo", "old", "aged", "age",
	"cask", "casks", "barrel", "barrels", "reserve", "edition", "release",
	"limited", "special", "finish", "finished", "strength", "proof",
	"batch", "small", "bottled", "bottling", "vintage", "original",
)

// Validator runs the three-level cross-contamination gate. Pattern tables
// are compiled once at construction; a malformed pattern is skipped with
// a warning, never aborts validation.
type Validator struct {
	logger zerolog.Logger
	pairs  []exclusivePair
}

func NewValidator(logger zerolog.Logger) *Validator {
	v := &Validator{logger: logger}
	for _, spec := range exclusivePairSpecs {
		pair := exclusivePair{name: spec.name}
		pair.groupA = v.compileGroup(spec.name, spec.groupA)
		pair.groupB = v.compileGroup(spec.name, spec.groupB)
		if len(pair.groupA) == 0 || len(pair.groupB) == 0 {
			v.logger.Warn().Str("pair", spec.name).Msg("exclusivity pair has an empty side; skipping pair")
			continue
		}
		v.pairs = append(v.pairs, pair)
	}
	return v
}

func (v *Validator) compileGroup(pairName string, patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			v.logger.Warn().Err(err).Str("pair", pairName).Str("pattern", raw).Msg("bad exclusivity pattern; skipping")
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// Validate checks extracted page data against the target product. Levels
// run in order and the first failure wins: brand overlap, category
// keyword exclusivity, name token overlap.
func (v *Validator) Validate(target, extracted Fields) Result {
	if reason, ok := checkBrandOverlap(target.Brand, extracted.Brand); !ok {
		return Result{OK: false, Reason: reason}
	}

	if pairName, ok := v.checkKeywordExclusivity(target, extracted); !ok {
		v.logger.Debug().Str("pair", pairName).Msg("enrichment rejected by keyword exclusivity")
		return Result{OK: false, Reason: ReasonProductTypeMismatch}
	}

	if reason, ok := checkNameOverlap(target.Name, extracted.Name); !ok {
		return Result{OK: false, Reason: reason}
	}

	return Result{OK: true, Reason: ReasonValidated}
}

// checkBrandOverlap passes on missing data (both_empty, one_empty_allowed)
// and otherwise requires one normalized brand to contain the other.
func checkBrandOverlap(targetBrand, extractedBrand string) (string, bool) {
	a := match.NormalizeName(targetBrand)
	b := match.NormalizeName(extractedBrand)
	switch {
	case a == "" && b == "":
		return ReasonBothEmpty, true
	case a == "" || b == "":
		return ReasonOneEmptyAllowed, true
	case strings.Contains(a, b) || strings.Contains(b, a):
		return "", true
	default:
		return ReasonBrandMismatch, false
	}
}

func (v *Validator) checkKeywordExclusivity(target, extracted Fields) (string, bool) {
	targetBlob := textBlob(target)
	extractedBlob := textBlob(extracted)
	for _, pair := range v.pairs {
		targetA, targetB := pairSide(targetBlob, pair)
		extractedA, extractedB := pairSide(extractedBlob, pair)
		if (targetA && extractedB) || (targetB && extractedA) {
			return pair.name, false
		}
	}
	return "", true
}

// pairSide reports which side of a pair the text hits. Group B wins when
// both match, so the more specific phrasing claims the text.
func pairSide(text string, pair exclusivePair) (hitsA, hitsB bool) {
	for _, re := range pair.groupB {
		if re.MatchString(text) {
			return false, true
		}
	}
	for _, re := range pair.groupA {
		if re.MatchString(text) {
			return true, false
		}
	}
	return false, false
}

// checkNameOverlap compares identity-bearing name tokens. When stopword
// filtering leaves nothing to compare on either side, the level passes as
// undeterminable rather than rejecting.
func checkNameOverlap(targetName, extractedName string) (string, bool) {
	targetTokens := identityTokens(targetName)
	extractedTokens := identityTokens(extractedName)
	if len(targetTokens) == 0 || len(extractedTokens) == 0 {
		return ReasonInsufficientTokens, true
	}

	larger := len(targetTokens)
	if len(extractedTokens) > larger {
		larger = len(extractedTokens)
	}
	shared := 0
	for token := range targetTokens {
		if _, ok := extractedTokens[token]; ok {
			shared++
		}
	}
	if float64(shared)/float64(larger) >= tokenOverlapFloor {
		return "", true
	}
	return ReasonNameMismatch, false
}

// identityTokens tokenizes a name and keeps only tokens that can identify
// a product: stopwords, pure digits and single characters are dropped,
// and a plural "s" is stemmed so Ballantine's and Ballantines agree.
func identityTokens(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range match.Tokenize(name) {
		if len(token) < 2 || isDigits(token) {
			continue
		}
		if _, ok := genericStopwords[token]; ok {
			continue
		}
		if _, ok := categoryStopwords[token]; ok {
			continue
		}
		tokens[stemPlural(token)] = struct{}{}
	}
	return tokens
}

func stemPlural(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}

func isDigits(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func textBlob(f Fields) string {
	parts := []string{f.Name, f.Category, f.Description, f.ProductType}
	return strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
