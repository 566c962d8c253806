// Package portfolio models an equity index portfolio spread across a
// tax-free account, a tax-deferred account and a taxable account.
package portfolio

import (
	"fmt"
	"math"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"go.uber.org/zap"
)

// InclusionRates looks up the capital gains inclusion rate for a year.
type InclusionRates interface {
	CapitalGainsInclusionRate(year int) float64
}

// Month holds the inputs for advancing the portfolio by one month. Rates are
// annual fractions.
type Month struct {
	AnnualReturn float64
	Contribution float64
	TFSARoom     float64
	RRSPRoom     float64
	FeeRate      float64
	TaxDragRate  float64
}

// Allocation reports where a month's contribution went.
type Allocation struct {
	TFSAUsed     float64
	RRSPUsed     float64
	TaxableAdded float64
	Withdrawn    float64
	Shortfall    float64
	Fees         float64
	TaxDrag      float64
}

// Portfolio holds the three account balances and the taxable cost basis. It
// is mutated in place one month at a time and must not be shared between
// runs.
type Portfolio struct {
	TFSA      float64
	RRSP      float64
	Taxable   float64
	CostBasis float64

	// AnnualRRSPContributions accumulates tax-deferred contributions made
	// this calendar year, for the refund calculation.
	AnnualRRSPContributions float64

	TotalFees        float64
	TotalTaxDrag     float64
	TotalContributed float64
	TotalWithdrawn   float64
	TotalShortfall   float64

	policy string
	logger *zap.Logger
}

// NewPortfolio creates a portfolio with the initial deposit held in the
// taxable account. The policy decides how negative contributions are treated.
func NewPortfolio(initialDeposit float64, policy string, logger *zap.Logger) (*Portfolio, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = constants.NegativeContributionIgnore
	}
	if policy != constants.NegativeContributionIgnore && policy != constants.NegativeContributionWithdraw {
		return nil, fmt.Errorf("unknown negative contribution policy %q", policy)
	}
	if initialDeposit < 0 {
		return nil, fmt.Errorf("initial deposit %.2f is negative", initialDeposit)
	}
	return &Portfolio{
		Taxable:   initialDeposit,
		CostBasis: initialDeposit,
		policy:    policy,
		logger:    logger,
	}, nil
}

// Balance returns the gross value of all three accounts.
func (p *Portfolio) Balance() float64 {
	return p.TFSA + p.RRSP + p.Taxable
}

// Policy returns the negative contribution policy in effect.
func (p *Portfolio) Policy() string {
	return p.policy
}

func growthFactor(annual float64) float64 {
	if annual <= -1 {
		return 0
	}
	return math.Pow(1+annual, 1.0/constants.MonthsPerYear)
}

// AdvanceOneMonth grows every account and then allocates the contribution:
// tax-free room first, then tax-deferred room, then the taxable account.
func (p *Portfolio) AdvanceOneMonth(m Month) Allocation {
	var alloc Allocation

	alloc.Fees = p.Balance() * m.FeeRate / constants.MonthsPerYear
	alloc.TaxDrag = p.Taxable * m.TaxDragRate / constants.MonthsPerYear
	p.TotalFees += alloc.Fees
	p.TotalTaxDrag += alloc.TaxDrag

	registered := growthFactor(m.AnnualReturn - m.FeeRate)
	taxable := growthFactor(m.AnnualReturn - m.FeeRate - m.TaxDragRate)
	p.TFSA *= registered
	p.RRSP *= registered
	p.Taxable *= taxable

	switch {
	case m.Contribution > 0:
		remaining := m.Contribution

		if room := math.Max(m.TFSARoom, 0); room > 0 {
			alloc.TFSAUsed = math.Min(remaining, room)
			p.TFSA += alloc.TFSAUsed
			remaining -= alloc.TFSAUsed
		}
		if room := math.Max(m.RRSPRoom, 0); remaining > 0 && room > 0 {
			alloc.RRSPUsed = math.Min(remaining, room)
			p.RRSP += alloc.RRSPUsed
			p.AnnualRRSPContributions += alloc.RRSPUsed
			remaining -= alloc.RRSPUsed
		}
		if remaining > 0 {
			alloc.TaxableAdded = remaining
			p.Taxable += remaining
			p.CostBasis += remaining
		}
		p.TotalContributed += m.Contribution

	case m.Contribution < 0 && p.policy == constants.NegativeContributionWithdraw:
		p.withdraw(-m.Contribution, &alloc)
	}

	return alloc
}

// withdraw takes amount from the taxable account, never below zero, and
// reduces the cost basis in proportion to the share sold.
func (p *Portfolio) withdraw(amount float64, alloc *Allocation) {
	taken := math.Min(amount, p.Taxable)
	if taken > 0 {
		p.CostBasis *= (p.Taxable - taken) / p.Taxable
		p.Taxable -= taken
	}
	if p.Taxable < 0 {
		p.Taxable = 0
	}

	alloc.Withdrawn = taken
	alloc.Shortfall = amount - taken
	p.TotalWithdrawn += taken
	p.TotalShortfall += alloc.Shortfall

	if alloc.Shortfall > 0 {
		p.logger.Debug("taxable account exhausted",
			zap.String("op", "portfolio.AdvanceOneMonth"),
			zap.Float64("requested", amount),
			zap.Float64("withdrawn", taken),
			zap.Float64("shortfall", alloc.Shortfall),
		)
	}
}

// TakeAnnualRRSPContributions returns this year's tax-deferred contributions
// and resets the counter.
func (p *Portfolio) TakeAnnualRRSPContributions() float64 {
	amount := p.AnnualRRSPContributions
	p.AnnualRRSPContributions = 0
	return amount
}

// UnrealizedGain returns the taxable account's gain above cost basis.
func (p *Portfolio) UnrealizedGain() float64 {
	return math.Max(0, p.Taxable-p.CostBasis)
}

// LiquidationValue returns the after-tax value of selling everything today.
// Tax-deferred withdrawals are taxed as income; only the included share of
// the taxable gain is taxed.
func (p *Portfolio) LiquidationValue(marginalRate, inclusionRate float64) float64 {
	tfsa := p.TFSA
	rrsp := p.RRSP - p.RRSP*marginalRate
	taxable := p.Taxable - p.UnrealizedGain()*inclusionRate*marginalRate
	return tfsa + rrsp + taxable
}

// LiquidationValueForYear is LiquidationValue with the inclusion rate in
// effect for the given year.
func (p *Portfolio) LiquidationValueForYear(year int, marginalRate float64, rates InclusionRates) float64 {
	return p.LiquidationValue(marginalRate, rates.CapitalGainsInclusionRate(year))
}
