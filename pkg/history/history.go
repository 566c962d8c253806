// Package history provides the historical market, housing and policy series
// consumed by the simulation. Lookups are pure: the same arguments always
// return the same value, and years outside the table fall back to the nearest
// table edge.
package history

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"gopkg.in/yaml.v3"
)

//go:embed canada.yaml
var canadaYAML []byte

// AccountKind identifies a tax-advantaged account with an annual
// contribution limit.
type AccountKind string

const (
	// TaxFree accounts (TFSA) are funded after tax and withdrawn tax free.
	TaxFree AccountKind = "tfsa"
	// TaxDeferred accounts (RRSP) are deductible and taxed on withdrawal.
	TaxDeferred AccountKind = "rrsp"
)

// Provider is the read-only lookup service the simulation depends on.
// Percent-valued series (returns, inflation, mortgage rates) are returned as
// percentages, e.g. 5.0 for 5%.
type Provider interface {
	HousePrice(year int, city string) float64
	HousePriceAnchor(year int, city string) (float64, bool)
	MonthlyHousePrice(year, month int, city string) float64
	RegionalMultiplier(year int, city string) float64
	StockReturn(year int) float64
	InflationRate(year int) float64
	AverageRent(year int, city string) float64
	MortgageRate(year int) float64
	ContributionLimit(kind AccountKind, year int) float64
	CapitalGainsInclusionRate(year int) float64
	PropertyTaxRate(city string) float64
	SeasonalIndex(month int) float64
	YearRange() (int, int)
	Cities() []string
}

// Tables is a Provider backed by in-memory year-indexed series.
type Tables struct {
	Name                  string                     `yaml:"name"`
	MinYear               int                        `yaml:"minYear"`
	MaxYear               int                        `yaml:"maxYear"`
	HousePrices           map[int]float64            `yaml:"housePrices"`
	StockReturns          map[int]float64            `yaml:"stockReturns"`
	InflationRates        map[int]float64            `yaml:"inflationRates"`
	Rents                 map[int]float64            `yaml:"rents"`
	MortgageRates         map[int]float64            `yaml:"mortgageRates"`
	RegionalPremiums      map[int]map[string]float64 `yaml:"regionalPremiums"`
	RentPremiums          map[string]float64         `yaml:"rentPremiums"`
	CapitalGainsInclusion map[int]float64            `yaml:"capitalGainsInclusion"`
	TFSALimits            map[int]float64            `yaml:"tfsaLimits"`
	TFSALimitBeforeTable  float64                    `yaml:"tfsaLimitBeforeTable"`
	RRSPLimits            map[int]float64            `yaml:"rrspLimits"`
	RRSPLimitBeforeTable  float64                    `yaml:"rrspLimitBeforeTable"`
	PropertyTaxRates      map[string]float64         `yaml:"propertyTaxRates"`
	Seasonality           map[int]float64            `yaml:"seasonality"`

	keys map[string][]int
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the embedded Canadian tables. The tables are decoded once
// and are safe for concurrent read-only use.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Load(bytes.NewReader(canadaYAML))
	})
	return defaultTables, defaultErr
}

// LoadFile decodes tables from a YAML file on disk.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open historical data %s: %w", path, err)
	}
	defer f.Close()

	tables, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical data %s: %w", path, err)
	}
	return tables, nil
}

// Load decodes and validates tables from a YAML document.
func Load(r io.Reader) (*Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode historical data: %w", err)
	}
	if err := t.prepare(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) prepare() error {
	if len(t.HousePrices) == 0 {
		return fmt.Errorf("historical data %q has no house prices", t.Name)
	}
	if t.MinYear == 0 && t.MaxYear == 0 {
		years := sortedKeys(t.HousePrices)
		t.MinYear, t.MaxYear = years[0], years[len(years)-1]
	}
	if t.MinYear > t.MaxYear {
		return fmt.Errorf("historical data %q: minYear %d after maxYear %d", t.Name, t.MinYear, t.MaxYear)
	}
	partial := len(t.Seasonality) > 0
	if t.Seasonality == nil {
		t.Seasonality = make(map[int]float64)
	}
	for month := 1; month <= constants.MonthsPerYear; month++ {
		if _, ok := t.Seasonality[month]; !ok {
			if partial {
				return fmt.Errorf("historical data %q: seasonality missing month %d", t.Name, month)
			}
			t.Seasonality[month] = 1.0
		}
	}

	t.keys = map[string][]int{
		"house":     sortedKeys(t.HousePrices),
		"stock":     sortedKeys(t.StockReturns),
		"inflation": sortedKeys(t.InflationRates),
		"rent":      sortedKeys(t.Rents),
		"mortgage":  sortedKeys(t.MortgageRates),
		"inclusion": sortedKeys(t.CapitalGainsInclusion),
		"tfsa":      sortedKeys(t.TFSALimits),
		"rrsp":      sortedKeys(t.RRSPLimits),
	}
	premiumYears := make([]int, 0, len(t.RegionalPremiums))
	for year := range t.RegionalPremiums {
		premiumYears = append(premiumYears, year)
	}
	sort.Ints(premiumYears)
	t.keys["premium"] = premiumYears
	return nil
}

// YearRange returns the first and last year covered by the tables.
func (t *Tables) YearRange() (int, int) {
	return t.MinYear, t.MaxYear
}

// Cities lists the jurisdictions with a property tax entry, national first.
func (t *Tables) Cities() []string {
	cities := []string{constants.CityNational}
	others := make([]string, 0, len(t.PropertyTaxRates))
	for city := range t.PropertyTaxRates {
		if city != constants.CityNational {
			others = append(others, city)
		}
	}
	sort.Strings(others)
	return append(cities, others...)
}

func (t *Tables) clampYear(year int) int {
	if year < t.MinYear {
		return t.MinYear
	}
	if year > t.MaxYear {
		return t.MaxYear
	}
	return year
}

// HousePrice returns the average price for the year scaled by the city's
// regional multiplier.
func (t *Tables) HousePrice(year int, city string) float64 {
	y := t.clampYear(year)
	return nearest(t.HousePrices, t.keys["house"], y) * t.RegionalMultiplier(y, city)
}

// HousePriceAnchor returns the annual anchor price only when the year itself
// is covered by the table.
func (t *Tables) HousePriceAnchor(year int, city string) (float64, bool) {
	if year < t.MinYear || year > t.MaxYear {
		return 0, false
	}
	price, ok := t.HousePrices[year]
	if !ok {
		return 0, false
	}
	return price * t.RegionalMultiplier(year, city), true
}

// MonthlyHousePrice interpolates log-linearly from this year's anchor toward
// next year's and applies the seasonal index for the month.
func (t *Tables) MonthlyHousePrice(year, month int, city string) float64 {
	y := t.clampYear(year)
	m := clampMonth(month)

	current := t.HousePrice(y, city)
	growth := math.Pow(1+constants.FallbackAnnualAppreciation, 1.0/constants.MonthsPerYear)
	if next, ok := t.HousePriceAnchor(y+1, city); ok && current > 0 {
		growth = math.Pow(next/current, 1.0/constants.MonthsPerYear)
	}
	return current * math.Pow(growth, float64(m-1)) * t.SeasonalIndex(m)
}

// RegionalMultiplier returns the city's price premium over the national
// average, interpolated linearly between anchor years.
func (t *Tables) RegionalMultiplier(year int, city string) float64 {
	years := t.keys["premium"]
	if city == constants.CityNational || len(years) == 0 {
		return 1.0
	}
	premium := func(anchor int) float64 {
		if v, ok := t.RegionalPremiums[anchor][city]; ok {
			return v
		}
		return 1.0
	}

	y := t.clampYear(year)
	if y <= years[0] {
		return premium(years[0])
	}
	if y >= years[len(years)-1] {
		return premium(years[len(years)-1])
	}

	prev := years[0]
	next := years[len(years)-1]
	for _, anchor := range years {
		if anchor > y {
			next = anchor
			break
		}
		prev = anchor
	}
	if prev == next {
		return premium(prev)
	}
	ratio := float64(y-prev) / float64(next-prev)
	return premium(prev) + ratio*(premium(next)-premium(prev))
}

// StockReturn returns the annual total return percentage.
func (t *Tables) StockReturn(year int) float64 {
	return nearest(t.StockReturns, t.keys["stock"], t.clampYear(year))
}

// InflationRate returns the annual CPI inflation percentage.
func (t *Tables) InflationRate(year int) float64 {
	return nearest(t.InflationRates, t.keys["inflation"], t.clampYear(year))
}

// AverageRent returns the average monthly rent for the city.
func (t *Tables) AverageRent(year int, city string) float64 {
	base := nearest(t.Rents, t.keys["rent"], t.clampYear(year))
	if premium, ok := t.RentPremiums[city]; ok {
		return base * premium
	}
	return base
}

// MortgageRate returns the 5-year fixed mortgage rate percentage.
func (t *Tables) MortgageRate(year int) float64 {
	return nearest(t.MortgageRates, t.keys["mortgage"], t.clampYear(year))
}

// ContributionLimit returns the annual contribution limit for the account.
// Years before the table use the configured pre-table value.
func (t *Tables) ContributionLimit(kind AccountKind, year int) float64 {
	y := t.clampYear(year)
	switch kind {
	case TaxFree:
		return stepLookup(t.TFSALimits, t.keys["tfsa"], y, t.TFSALimitBeforeTable)
	case TaxDeferred:
		return stepLookup(t.RRSPLimits, t.keys["rrsp"], y, t.RRSPLimitBeforeTable)
	default:
		return 0
	}
}

// CapitalGainsInclusionRate returns the fraction of a realised gain that is
// taxable, using the rate in effect for the year.
func (t *Tables) CapitalGainsInclusionRate(year int) float64 {
	return stepLookup(t.CapitalGainsInclusion, t.keys["inclusion"], t.clampYear(year), 0)
}

// PropertyTaxRate returns the annual property tax as a fraction of value.
func (t *Tables) PropertyTaxRate(city string) float64 {
	if rate, ok := t.PropertyTaxRates[city]; ok {
		return rate
	}
	return constants.DefaultPropertyTaxRate
}

// SeasonalIndex returns the price multiplier for a calendar month.
func (t *Tables) SeasonalIndex(month int) float64 {
	if v, ok := t.Seasonality[clampMonth(month)]; ok {
		return v
	}
	return 1.0
}

func clampMonth(month int) int {
	if month < 1 {
		return 1
	}
	if month > constants.MonthsPerYear {
		return constants.MonthsPerYear
	}
	return month
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// nearest returns the value for year, or for the closest year present in
// the series (earlier year wins a tie).
func nearest(m map[int]float64, keys []int, year int) float64 {
	if v, ok := m[year]; ok {
		return v
	}
	if len(keys) == 0 {
		return 0
	}
	best := keys[0]
	for _, k := range keys[1:] {
		if abs(k-year) < abs(best-year) {
			best = k
		}
	}
	return m[best]
}

// stepLookup returns the value of the latest key not after year, or before
// when year precedes the series.
func stepLookup(m map[int]float64, keys []int, year int, before float64) float64 {
	value := before
	for _, k := range keys {
		if k > year {
			break
		}
		value = m[k]
	}
	return value
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
