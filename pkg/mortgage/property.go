package mortgage

import (
	"errors"
	"fmt"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidProperty is returned when a property cannot be constructed from
// its configuration.
var ErrInvalidProperty = errors.New("invalid property configuration")

// PropertyConfig holds the purchase terms of a property.
type PropertyConfig struct {
	PurchasePrice     float64
	DownPayment       float64
	InterestRate      float64 // annual percentage
	AmortizationYears int
	City              string
	PropertyTaxRate   float64 // annual fraction of value
	MaintenanceRate   float64 // annual fraction of purchase price, 0 uses the default
	MonthlyInsurance  float64 // 0 uses the default
}

// MonthlyCost is the cost breakdown of one simulated month of ownership.
type MonthlyCost struct {
	Payment            float64
	Interest           float64
	Principal          float64
	Maintenance        float64
	PropertyTax        float64
	Insurance          float64
	RemainingPrincipal float64
	PaidOff            bool
}

// Relocation describes the outcome of selling and rebuying at market value.
type Relocation struct {
	Friction float64 // disposition plus acquisition cost
	Applied  float64 // equity actually absorbed
	Lost     float64 // friction in excess of available equity
}

// Property is a single owned home and the mortgage secured against it. It is
// mutated in place one month at a time and must not be shared between runs.
type Property struct {
	PurchasePrice      float64
	Value              float64
	Principal          float64
	InterestRate       float64
	RemainingMonths    int
	MonthlyPayment     float64
	MonthlyMaintenance float64
	MonthlyInsurance   float64
	PropertyTaxRate    float64
	City               string

	TotalInterest    float64
	TotalPrincipal   float64
	TotalMaintenance float64
	TotalPropertyTax float64
	TotalInsurance   float64

	valueScale float64
	logger     *zap.Logger
}

// NewProperty creates a property purchased with the given terms and computes
// the initial payment.
func NewProperty(cfg PropertyConfig, logger *zap.Logger) (*Property, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PurchasePrice < 0 {
		return nil, fmt.Errorf("%w: purchase price %.2f is negative", ErrInvalidProperty, cfg.PurchasePrice)
	}
	if cfg.DownPayment < 0 || cfg.DownPayment > cfg.PurchasePrice {
		return nil, fmt.Errorf("%w: down payment %.2f outside [0, %.2f]", ErrInvalidProperty, cfg.DownPayment, cfg.PurchasePrice)
	}
	if cfg.AmortizationYears <= 0 {
		return nil, fmt.Errorf("%w: amortization of %d years", ErrInvalidProperty, cfg.AmortizationYears)
	}

	maintenanceRate := cfg.MaintenanceRate
	if maintenanceRate == 0 {
		maintenanceRate = constants.MaintenanceRate
	}
	insurance := cfg.MonthlyInsurance
	if insurance == 0 {
		insurance = constants.DefaultMonthlyInsurance
	}

	p := &Property{
		PurchasePrice:      cfg.PurchasePrice,
		Value:              cfg.PurchasePrice,
		Principal:          cfg.PurchasePrice - cfg.DownPayment,
		InterestRate:       cfg.InterestRate,
		RemainingMonths:    cfg.AmortizationYears * constants.MonthsPerYear,
		MonthlyMaintenance: cfg.PurchasePrice * maintenanceRate / constants.MonthsPerYear,
		MonthlyInsurance:   insurance,
		PropertyTaxRate:    cfg.PropertyTaxRate,
		City:               cfg.City,
		valueScale:         1.0,
		logger:             logger,
	}
	p.ComputePayment()
	return p, nil
}

// Equity returns the owner's stake: current value less remaining principal.
func (p *Property) Equity() float64 {
	return p.Value - p.Principal
}

// ComputePayment recomputes the monthly payment from the current principal,
// rate and remaining term.
func (p *Property) ComputePayment() float64 {
	p.MonthlyPayment = CalculateMonthlyPayment(p.Principal, p.InterestRate, p.RemainingMonths)
	return p.MonthlyPayment
}

// RenewRate resets the interest rate and remaining term and recomputes the
// payment. It is a no-op once the amortization period has elapsed.
func (p *Property) RenewRate(rate float64, remainingMonths int) {
	if remainingMonths <= 0 {
		return
	}
	previous := p.MonthlyPayment
	p.InterestRate = rate
	p.RemainingMonths = remainingMonths
	p.ComputePayment()
	p.logger.Debug("renewed mortgage",
		zap.String("op", "mortgage.RenewRate"),
		zap.Float64("rate", rate),
		zap.Int("remaining_months", remainingMonths),
		zap.Float64("previous_payment", previous),
		zap.Float64("payment", p.MonthlyPayment),
	)
}

// AdvanceOneMonth compounds the annual appreciation rate for one month and
// applies the month's payment and carrying costs. Rates are fractions.
func (p *Property) AdvanceOneMonth(appreciation, inflation float64) MonthlyCost {
	p.Value *= 1 + mathutil.MonthlyRate(appreciation)
	return p.step(inflation)
}

// AdvanceToValue sets the value from a market price curve and applies the
// month's payment and carrying costs. Any relocation write-down carries
// through to curve prices.
func (p *Property) AdvanceToValue(marketValue, inflation float64) MonthlyCost {
	p.Value = marketValue * p.valueScale
	return p.step(inflation)
}

func (p *Property) step(inflation float64) MonthlyCost {
	var cost MonthlyCost

	if p.Principal > 0 && p.RemainingMonths > 0 {
		interest := CalculateInterestPayment(p.Principal, p.InterestRate)
		payment := p.MonthlyPayment
		principal := payment - interest
		if principal >= p.Principal || p.RemainingMonths == 1 {
			principal = p.Principal
			payment = interest + principal
		}

		p.Principal -= principal
		if p.Principal < 0 {
			p.Principal = 0
		}
		p.RemainingMonths--

		p.TotalInterest += interest
		p.TotalPrincipal += principal
		cost.Payment = payment
		cost.Interest = interest
		cost.Principal = principal

		if p.Principal == 0 {
			p.MonthlyPayment = 0
			cost.PaidOff = true
			p.logger.Debug("mortgage paid off",
				zap.String("op", "mortgage.AdvanceOneMonth"),
				zap.Float64("final_payment", payment),
			)
		}
	}

	monthlyInflation := mathutil.MonthlyRate(inflation)
	p.MonthlyMaintenance *= 1 + monthlyInflation
	p.MonthlyInsurance *= 1 + monthlyInflation
	tax := p.Value * p.PropertyTaxRate / constants.MonthsPerYear

	p.TotalMaintenance += p.MonthlyMaintenance
	p.TotalInsurance += p.MonthlyInsurance
	p.TotalPropertyTax += tax

	cost.Maintenance = p.MonthlyMaintenance
	cost.Insurance = p.MonthlyInsurance
	cost.PropertyTax = tax
	cost.RemainingPrincipal = p.Principal
	return cost
}

// AcquisitionCost returns the closing cost of buying this property at its
// purchase price.
func (p *Property) AcquisitionCost() float64 {
	return AcquisitionCost(p.PurchasePrice, p.City)
}

// DispositionCost returns the cost of selling at the current value.
func (p *Property) DispositionCost() float64 {
	return DispositionCost(p.Value)
}

// DispositionProceeds returns the net cash realised by selling today.
func (p *Property) DispositionProceeds() float64 {
	return p.Equity() - p.DispositionCost()
}

// Relocate sells and immediately rebuys an equivalent home in city. Equity
// absorbs the friction and is floored at zero; the mortgage is ported, so
// principal and term are unchanged.
func (p *Property) Relocate(city string) Relocation {
	equity := p.Equity()
	friction := (equity - p.DispositionProceeds()) + AcquisitionCost(p.Value, city)
	result := Relocation{Friction: friction}

	if equity <= 0 {
		result.Lost = friction
		p.logger.Debug("relocation with no equity to absorb friction",
			zap.String("op", "mortgage.Relocate"),
			zap.Float64("friction", friction),
		)
		return result
	}

	remaining := equity - friction
	if remaining < 0 {
		result.Lost = -remaining
		remaining = 0
	}
	result.Applied = equity - remaining

	written := p.Principal + remaining
	if p.Value > 0 {
		p.valueScale *= written / p.Value
	}
	p.Value = written
	p.City = city

	p.logger.Debug("relocated",
		zap.String("op", "mortgage.Relocate"),
		zap.String("city", city),
		zap.Float64("friction", friction),
		zap.Float64("applied", result.Applied),
		zap.Float64("lost", result.Lost),
	)
	return result
}
