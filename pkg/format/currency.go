// Package format renders monetary and percentage values for display.
package format

import (
	"strings"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount)
	formatted := formatPositiveCurrency(d.Abs())
	if d.Round(constants.DecimalPlaces).IsNegative() {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount)
	sign := ""
	if d.Round(constants.DecimalPlaces).IsNegative() {
		sign = "-"
	}
	return sign + formatPositiveCurrency(d.Abs())
}

// Percent renders a fraction as a percentage with two decimals ("4.25%").
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).StringFixed(constants.DecimalPlaces) + "%"
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.DecimalPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
