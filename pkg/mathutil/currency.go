// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons and for output.
func Round(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	rounded, _ := decimal.NewFromFloat(val).Round(constants.DecimalPlaces).Float64()
	return rounded
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// PercentToDecimal converts a percentage (5.0) into a fraction (0.05).
func PercentToDecimal(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// MonthlyRate converts an annual rate into the equivalent monthly
// compounding rate: (1+annual)^(1/12) - 1.
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/constants.MonthsPerYear) - 1
}
