// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
)

// FlatProvider is a synthetic history.Provider returning the same market
// conditions every year. House prices grow at Appreciation percent a year
// from Price in MinYear.
type FlatProvider struct {
	MinYear      int
	MaxYear      int
	Price        float64
	Appreciation float64 // percent
	Return       float64 // percent
	Inflation    float64 // percent
	Rent         float64 // monthly
	Mortgage     float64 // percent
	TFSALimit    float64
	RRSPLimit    float64
	Inclusion    float64
	TaxRate      float64
}

// NewFlatProvider returns a provider for 2000-2024 with round numbers.
func NewFlatProvider() *FlatProvider {
	return &FlatProvider{
		MinYear:      2000,
		MaxYear:      2024,
		Price:        300000,
		Appreciation: 3,
		Return:       6,
		Inflation:    2,
		Rent:         1200,
		Mortgage:     5,
		TFSALimit:    6000,
		RRSPLimit:    20000,
		Inclusion:    0.5,
		TaxRate:      0.01,
	}
}

var _ history.Provider = (*FlatProvider)(nil)

func (f *FlatProvider) clamp(year int) int {
	if year < f.MinYear {
		return f.MinYear
	}
	if year > f.MaxYear {
		return f.MaxYear
	}
	return year
}

// HousePrice implements history.Provider.
func (f *FlatProvider) HousePrice(year int, _ string) float64 {
	return f.Price * math.Pow(1+f.Appreciation/constants.PercentageMultiplier, float64(f.clamp(year)-f.MinYear))
}

// HousePriceAnchor implements history.Provider.
func (f *FlatProvider) HousePriceAnchor(year int, city string) (float64, bool) {
	if year < f.MinYear || year > f.MaxYear {
		return 0, false
	}
	return f.HousePrice(year, city), true
}

// MonthlyHousePrice implements history.Provider without seasonality.
func (f *FlatProvider) MonthlyHousePrice(year, month int, city string) float64 {
	growth := math.Pow(1+f.Appreciation/constants.PercentageMultiplier, 1.0/constants.MonthsPerYear)
	return f.HousePrice(year, city) * math.Pow(growth, float64(month-1))
}

// RegionalMultiplier implements history.Provider.
func (f *FlatProvider) RegionalMultiplier(int, string) float64 { return 1 }

// StockReturn implements history.Provider.
func (f *FlatProvider) StockReturn(int) float64 { return f.Return }

// InflationRate implements history.Provider.
func (f *FlatProvider) InflationRate(int) float64 { return f.Inflation }

// AverageRent implements history.Provider.
func (f *FlatProvider) AverageRent(int, string) float64 { return f.Rent }

// MortgageRate implements history.Provider.
func (f *FlatProvider) MortgageRate(int) float64 { return f.Mortgage }

// ContributionLimit implements history.Provider.
func (f *FlatProvider) ContributionLimit(kind history.AccountKind, _ int) float64 {
	switch kind {
	case history.TaxFree:
		return f.TFSALimit
	case history.TaxDeferred:
		return f.RRSPLimit
	}
	return 0
}

// CapitalGainsInclusionRate implements history.Provider.
func (f *FlatProvider) CapitalGainsInclusionRate(int) float64 { return f.Inclusion }

// PropertyTaxRate implements history.Provider.
func (f *FlatProvider) PropertyTaxRate(string) float64 { return f.TaxRate }

// SeasonalIndex implements history.Provider.
func (f *FlatProvider) SeasonalIndex(int) float64 { return 1 }

// YearRange implements history.Provider.
func (f *FlatProvider) YearRange() (int, int) { return f.MinYear, f.MaxYear }

// Cities implements history.Provider.
func (f *FlatProvider) Cities() []string {
	return []string{constants.CityNational, constants.CityToronto}
}

// MustDefault returns the embedded historical tables and panics if they
// cannot be decoded.
func MustDefault() *history.Tables {
	tables, err := history.Default()
	if err != nil {
		panic(err)
	}
	return tables
}
