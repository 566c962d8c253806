// Package mortgage models a single owned property: its market value, the
// mortgage secured against it, carrying costs and transaction frictions.
package mortgage

import (
	"math"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula over the remaining term. The annual interest
// rate is a percentage.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	if remainingPrincipal <= 0 {
		return 0
	}
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

type bracket struct {
	upTo float64
	rate float64
}

// Marginal transfer tax schedules. The last bracket of each is unbounded.
var (
	ontarioBrackets = []bracket{
		{55000, 0.005},
		{250000, 0.01},
		{400000, 0.015},
		{2000000, 0.02},
		{math.Inf(1), 0.025},
	}
	britishColumbiaBrackets = []bracket{
		{200000, 0.01},
		{2000000, 0.02},
		{3000000, 0.03},
		{math.Inf(1), 0.05},
	}
)

func progressiveTax(price float64, brackets []bracket) float64 {
	tax := 0.0
	lower := 0.0
	for _, b := range brackets {
		if price <= lower {
			break
		}
		tax += (math.Min(price, b.upTo) - lower) * b.rate
		lower = b.upTo
	}
	return tax
}

// TransferTax returns the land transfer tax owed on a purchase at price in
// the given jurisdiction. Toronto levies the municipal tax on top of the
// provincial one; Montreal and unlisted cities pay the flat default rate.
func TransferTax(price float64, city string) float64 {
	if price <= 0 {
		return 0
	}
	switch city {
	case constants.CityToronto:
		return progressiveTax(price, ontarioBrackets) * 2
	case constants.CityVancouver:
		return progressiveTax(price, britishColumbiaBrackets)
	case constants.CityCalgary:
		return constants.NominalTransferFee
	default:
		return price * constants.DefaultTransferTaxRate
	}
}

// AcquisitionCost returns the one-time cost of closing a purchase: transfer
// tax plus legal fees.
func AcquisitionCost(price float64, city string) float64 {
	return TransferTax(price, city) + constants.LegalFees
}

// DispositionCost returns the commission, including sales tax on the
// commission, charged when selling at value.
func DispositionCost(value float64) float64 {
	if value <= 0 {
		return 0
	}
	return value * constants.AgentCommissionRate * (1 + constants.CommissionSalesTaxRate)
}
