package match

import "strings"

// Spirit keywords a competition category can carry and still be ingested.
var competitionSpiritKeywords = []string{
	"whisky", "whiskey", "bourbon", "scotch", "rye",
	"gin", "vodka", "rum", "tequila", "mezcal", "agave",
	"brandy", "cognac", "armagnac", "calvados",
	"liqueur", "spirit", "port", "sherry", "madeira",
	"shochu", "soju", "baijiu", "cachaca", "pisco", "grappa", "absinthe",
}

// Categories never ingested from competition listings.
var competitionExcludedKeywords = []string{
	"beer", "cider", "sake", "mead",
}

// AllowedCompetitionType reports whether a competition category label
// names a product type the catalog ingests. Plain wine categories are
// filtered out, with one literal exception kept as-is: "wine" passes
// when "port" appears in the same label (fortified listings such as
// "Port Wine"). Do not widen the exception.
func AllowedCompetitionType(category string) bool {
	label := strings.ToLower(strings.TrimSpace(category))
	if label == "" {
		return false
	}
	for _, kw := range competitionExcludedKeywords {
		if strings.Contains(label, kw) {
			return false
		}
	}
	if strings.Contains(label, "wine") && !strings.Contains(label, "port") {
		return false
	}
	for _, kw := range competitionSpiritKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}
