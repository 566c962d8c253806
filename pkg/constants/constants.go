// Package constants provides shared constants for the rent-vs-buy application.
package constants

// DateTimeLayout is the month label format used in snapshots, notes and
// output.
const DateTimeLayout = "2006-01"

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// RenewalFrequencyMonths is the cadence at which the mortgage rate is
	// renewed at the then-current market rate (5-year fixed terms).
	RenewalFrequencyMonths = 60

	// RefundMonth is the calendar month in which the prior year's
	// tax-deferred contribution refund is reinvested.
	RefundMonth = 3
)

// Simulation window
const (
	// DefaultEndYear is the last simulated calendar year.
	DefaultEndYear = 2024

	// DefaultCity is the national (non-regional) jurisdiction.
	DefaultCity = CityNational

	// TaxFreeProgramStartYear is the first year tax-free account room accrues.
	TaxFreeProgramStartYear = 2009

	// TaxDeferredTableStartYear is the first year with a published
	// tax-deferred contribution limit.
	TaxDeferredTableStartYear = 1991
)

// Jurisdictions known to the default historical tables.
const (
	CityNational  = "National"
	CityToronto   = "Toronto"
	CityVancouver = "Vancouver"
	CityCalgary   = "Calgary"
	CityMontreal  = "Montreal"
)

// Housing cost constants
const (
	// MaintenanceRate is the annual maintenance cost as a fraction of the
	// purchase price; the resulting monthly amount inflates with CPI.
	MaintenanceRate = 0.01

	// DefaultMonthlyInsurance is the starting monthly home insurance premium.
	DefaultMonthlyInsurance = 100.0

	// DefaultPropertyTaxRate applies to jurisdictions without a table entry.
	DefaultPropertyTaxRate = 0.01

	// AgentCommissionRate is the listing agent commission on sale.
	AgentCommissionRate = 0.05

	// CommissionSalesTaxRate is the sales tax charged on the commission.
	CommissionSalesTaxRate = 0.13

	// LegalFees is the flat legal cost of closing a purchase.
	LegalFees = 1500.0

	// NominalTransferFee is charged where no land transfer tax exists.
	NominalTransferFee = 500.0

	// DefaultTransferTaxRate is the flat transfer tax used for jurisdictions
	// without a bracket schedule.
	DefaultTransferTaxRate = 0.015

	// FallbackAnnualAppreciation is assumed when no next-year price exists.
	FallbackAnnualAppreciation = 0.03
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatPDF is the PDF report output format
	OutputFormatPDF = "pdf"
)

// Price model constants
const (
	// PriceModelAnnual compounds the year's appreciation monthly.
	PriceModelAnnual = "annual"

	// PriceModelSeasonal interpolates between annual anchors and applies the
	// seasonal index.
	PriceModelSeasonal = "seasonal"
)

// Negative contribution policies
const (
	// NegativeContributionIgnore leaves all accounts untouched when rent
	// exceeds the cost of owning.
	NegativeContributionIgnore = "ignore"

	// NegativeContributionWithdraw funds the difference from the taxable
	// account, never below zero.
	NegativeContributionWithdraw = "withdraw"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. RVB_SIMULATION_CITY.
	EnvPrefix = "RVB"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DecimalPlaces is the number of decimal places kept for currency.
	DecimalPlaces = 2

	// MaxAmortizationYears bounds the mortgage term accepted as input.
	MaxAmortizationYears = 50
)

// Breakeven search defaults
const (
	// DefaultBreakevenLow is the lowest starting monthly rent searched.
	DefaultBreakevenLow = 0.0

	// DefaultBreakevenHigh is the highest starting monthly rent searched.
	DefaultBreakevenHigh = 10000.0

	// DefaultBreakevenTolerance is the rent bracket width at which the search stops.
	DefaultBreakevenTolerance = 0.01

	// DefaultMaxIterations caps the number of bisection steps.
	DefaultMaxIterations = 50
)

// DefaultMaxSweepRuns caps the number of grid cells one API request may run.
const DefaultMaxSweepRuns = 500
