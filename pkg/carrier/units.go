package carrier

import (
	"fmt"
	"strings"
)

const (
	kgPerLB = 0.45359237
	kgPerOZ = 0.028349523125
	cmPerIN = 2.54
)

// ConvertWeight converts a weight value between kg, lb and oz,
// pivoting through kilograms.
func ConvertWeight(value float64, from, to WeightUnit) float64 {
	if from == to {
		return value
	}

	var kg float64
	switch from {
	case WeightLB:
		kg = value * kgPerLB
	case WeightOZ:
		kg = value * kgPerOZ
	default:
		kg = value
	}

	switch to {
	case WeightLB:
		return kg / kgPerLB
	case WeightOZ:
		return kg / kgPerOZ
	default:
		return kg
	}
}

// ConvertDimension converts a linear measurement between cm and in.
func ConvertDimension(value float64, from, to DimensionUnit) float64 {
	if from == to {
		return value
	}
	if from == DimensionCM && to == DimensionIN {
		return value / cmPerIN
	}
	return value * cmPerIN
}

// TotalWeight sums package weights in the requested unit.
func TotalWeight(packages []PackageDetails, unit WeightUnit) float64 {
	var total float64
	for _, p := range packages {
		total += ConvertWeight(p.Weight.Value, p.Weight.Unit, unit)
	}
	return total
}

// FormatAddressLines renders an address as postal lines. Adapters that need
// a provider-specific layout build their own; this is the shared default.
func FormatAddressLines(a *Address) []string {
	lines := []string{a.Name, a.Line1}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	locality := fmt.Sprintf("%s, %s %s", a.City, a.State, a.PostalCode)
	lines = append(lines, locality, strings.ToUpper(a.CountryCode))
	return lines
}
