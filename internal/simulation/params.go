package simulation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
)

// Params is the parameter set of one simulation run. Rates are fractions
// unless noted otherwise.
type Params struct {
	StartYear             int      `json:"startYear" yaml:"startYear" mapstructure:"startYear" validate:"required"`
	EndYear               int      `json:"endYear,omitempty" yaml:"endYear" mapstructure:"endYear" validate:"gte=0"`
	AmortizationYears     int      `json:"amortizationYears" yaml:"amortizationYears" mapstructure:"amortizationYears" validate:"gte=1,lte=50"`
	DownPaymentPct        float64  `json:"downPaymentPct" yaml:"downPaymentPct" mapstructure:"downPaymentPct" validate:"gte=0,lte=100"`
	InitialRent           *float64 `json:"initialRent,omitempty" yaml:"initialRent" mapstructure:"initialRent" validate:"omitempty,gte=0"`
	City                  string   `json:"city" yaml:"city" mapstructure:"city"`
	MarginalTaxRate       float64  `json:"marginalTaxRate" yaml:"marginalTaxRate" mapstructure:"marginalTaxRate" validate:"gte=0,lte=1"`
	RelocateEveryYears    int      `json:"relocateEveryYears,omitempty" yaml:"relocateEveryYears" mapstructure:"relocateEveryYears" validate:"gte=0"`
	PriceModel            string   `json:"priceModel,omitempty" yaml:"priceModel" mapstructure:"priceModel" validate:"omitempty,oneof=annual seasonal"`
	FeeRate               float64  `json:"feeRate,omitempty" yaml:"feeRate" mapstructure:"feeRate" validate:"gte=0,lt=1"`
	TaxDragRate           float64  `json:"taxDragRate,omitempty" yaml:"taxDragRate" mapstructure:"taxDragRate" validate:"gte=0,lt=1"`
	NegativeContributions string   `json:"negativeContributions,omitempty" yaml:"negativeContributions" mapstructure:"negativeContributions" validate:"omitempty,oneof=ignore withdraw"`
}

// DefaultParams returns the reference scenario: 1990 start, 25-year
// amortization, 20% down, national prices and a 40% marginal rate.
func DefaultParams() Params {
	return Params{
		StartYear:             1990,
		EndYear:               constants.DefaultEndYear,
		AmortizationYears:     25,
		DownPaymentPct:        20,
		City:                  constants.DefaultCity,
		MarginalTaxRate:       0.40,
		PriceModel:            constants.PriceModelAnnual,
		NegativeContributions: constants.NegativeContributionIgnore,
	}
}

// WithDefaults returns a copy with unset optional fields filled in.
func (p Params) WithDefaults() Params {
	if p.EndYear == 0 {
		p.EndYear = constants.DefaultEndYear
	}
	if p.City == "" {
		p.City = constants.DefaultCity
	}
	if p.PriceModel == "" {
		p.PriceModel = constants.PriceModelAnnual
	}
	if p.NegativeContributions == "" {
		p.NegativeContributions = constants.NegativeContributionIgnore
	}
	if p.InitialRent != nil {
		rent := *p.InitialRent
		p.InitialRent = &rent
	}
	return p
}

// Months returns the number of simulated months.
func (p Params) Months() int {
	return (p.EndYear - p.StartYear + 1) * constants.MonthsPerYear
}

// Validate checks the parameters against their tags and against the years
// and cities the provider covers. Defaults are applied first.
func (p Params) Validate(provider history.Provider) error {
	p = p.WithDefaults()

	result := &validation.Error{}
	if err := validation.Struct(p); err != nil {
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			return err
		}
		result.Fields = append(result.Fields, vErr.Fields...)
	}

	minYear, maxYear := provider.YearRange()
	if p.StartYear != 0 && (p.StartYear < minYear || p.StartYear > maxYear) {
		result.Add("startYear", fmt.Sprintf("Must be between %d and %d", minYear, maxYear))
	}
	if p.EndYear < p.StartYear || p.EndYear > maxYear {
		result.Add("endYear", fmt.Sprintf("Must be between the start year and %d", maxYear))
	}

	known := false
	for _, city := range provider.Cities() {
		if city == p.City {
			known = true
			break
		}
	}
	if !known {
		result.Add("city", fmt.Sprintf("Unknown city %q", p.City))
	}

	return result.ErrOrNil()
}
