package match

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint derives a deterministic identity key from the normalized
// tuple (name, brand, abv, volume, product type). Equal inputs always
// yield equal fingerprints, so an exact index lookup substitutes for a
// fuzzy scan. Returns "" when the normalized name is empty.
func Fingerprint(name, brand string, abv, volumeML float64, productType string) string {
	normalizedName := NormalizeName(name)
	if normalizedName == "" {
		return ""
	}

	tuple := strings.Join([]string{
		normalizedName,
		NormalizeName(brand),
		formatMeasure(abv),
		formatMeasure(volumeML),
		strings.ToLower(strings.TrimSpace(productType)),
	}, "|")

	sum := sha256.Sum256([]byte(tuple))
	return hex.EncodeToString(sum[:])
}

func formatMeasure(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
