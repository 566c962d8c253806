package validation

import (
	"fmt"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

// ValidateAmortizationWindow warns when the mortgage outlives the simulated
// window, leaving a balance to be repaid from sale proceeds.
func ValidateAmortizationWindow(startYear, endYear, amortizationYears int) string {
	payoffYear := startYear + amortizationYears - 1
	if payoffYear > endYear {
		return fmt.Sprintf("Mortgage amortizes through %d, after the simulation ends in %d - the final value is net of the outstanding balance",
			payoffYear, endYear)
	}
	return ""
}

// ValidateRelocationCadence warns when a configured relocation cadence never
// fires inside the simulated window.
func ValidateRelocationCadence(startYear, endYear, everyYears int) string {
	if everyYears <= 0 {
		return ""
	}
	if years := endYear - startYear + 1; everyYears >= years {
		return fmt.Sprintf("Relocation every %d years never occurs in a %d-year simulation", everyYears, years)
	}
	return ""
}

// ValidateProgramYears warns when the simulation starts before the
// tax-advantaged account programs it models existed.
func ValidateProgramYears(startYear int) []string {
	var warnings []string
	if startYear < constants.TaxFreeProgramStartYear {
		warnings = append(warnings, fmt.Sprintf("Tax-free account room only accrues from %d; earlier years invest in the tax-deferred and taxable accounts",
			constants.TaxFreeProgramStartYear))
	}
	if startYear < constants.TaxDeferredTableStartYear {
		warnings = append(warnings, fmt.Sprintf("Tax-deferred limits before %d use a flat approximation",
			constants.TaxDeferredTableStartYear))
	}
	return warnings
}

// ConfigValidator collects configuration warnings for a simulation.
type ConfigValidator struct {
	StartYear          int
	EndYear            int
	AmortizationYears  int
	RelocateEveryYears int
	InitialRent        *float64
	SweepStartYears    []int
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if w := ValidateAmortizationWindow(cv.StartYear, cv.EndYear, cv.AmortizationYears); w != "" {
		warnings = append(warnings, w)
	}
	if w := ValidateRelocationCadence(cv.StartYear, cv.EndYear, cv.RelocateEveryYears); w != "" {
		warnings = append(warnings, w)
	}
	warnings = append(warnings, ValidateProgramYears(cv.StartYear)...)

	if cv.InitialRent != nil && *cv.InitialRent <= 0 {
		warnings = append(warnings, "Initial rent is not positive - every housing dollar is invested")
	}

	for _, year := range cv.SweepStartYears {
		if year > cv.EndYear {
			warnings = append(warnings, fmt.Sprintf("Sweep start year %d is after the simulation end year %d", year, cv.EndYear))
		}
	}

	return warnings
}
