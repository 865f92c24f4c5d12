package constants

import "strings"

// FuelType is a canonical fuel sold at Colombian gas stations.
type FuelType string

// Stable values (store these exact strings in DB and API responses).
const (
	FuelCorriente FuelType = "Corriente"
	FuelACPM      FuelType = "ACPM"
	FuelUrea      FuelType = "Urea"
)

var allFuelTypes = []FuelType{FuelCorriente, FuelACPM, FuelUrea}

func FuelTypesAsStrings() []string {
	result := make([]string, len(allFuelTypes))
	for i, ft := range allFuelTypes {
		result[i] = string(ft)
	}
	return result
}

// CanonicalFuelType maps a captured fuel word onto the canonical
// capitalization. Unknown input passes through unchanged; the extraction
// rules only ever capture the three known words, so the fallback should be
// unreachable.
func CanonicalFuelType(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, ft := range allFuelTypes {
		if normalized == strings.ToLower(string(ft)) {
			return string(ft)
		}
	}
	return input
}
