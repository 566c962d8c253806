// Package simulation drives the month-by-month comparison of buying a home
// against renting and investing the difference.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/datetime"
	"github.com/iwvelando/rent-vs-buy/pkg/events"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
	"github.com/iwvelando/rent-vs-buy/pkg/mortgage"
	"github.com/iwvelando/rent-vs-buy/pkg/portfolio"
	"go.uber.org/zap"
)

// Phase is the state of a Simulator.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseYearBoundary
	PhaseSteppingMonth
	PhaseFinalizing
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseYearBoundary:
		return "year-boundary"
	case PhaseSteppingMonth:
		return "stepping-month"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var (
	// ErrFinished is returned by Step once every month has been simulated.
	ErrFinished = errors.New("simulation already finished")
	// ErrNotFinished is returned by Finalize while months remain.
	ErrNotFinished = errors.New("simulation has months remaining")
)

// Simulator owns the models of a single run. It is not safe for concurrent
// use; independent runs use independent simulators.
type Simulator struct {
	params   Params
	provider history.Provider
	logger   *zap.Logger

	property  *mortgage.Property
	portfolio *portfolio.Portfolio
	schedule  *events.Schedule

	renewal    events.Cadence
	relocation events.Cadence

	phase   Phase
	year    int
	month   int
	elapsed int

	// Per-year inputs, refreshed at each year boundary.
	stockReturn  float64
	inflation    float64
	appreciation float64
	rent         float64

	overrideRent   float64
	inflationIndex float64
	pendingRefund  float64
	tfsaRoom       float64
	rrspRoom       float64

	startHousePrice float64
	downPayment     float64
	closingCosts    float64

	totals  Totals
	history []Snapshot
	notes   map[string][]string
}

// New validates params and builds fresh models for one run.
func New(provider history.Provider, params Params, logger *zap.Logger) (*Simulator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		return nil, errors.New("historical data provider is required")
	}
	if err := params.Validate(provider); err != nil {
		return nil, err
	}
	params = params.WithDefaults()

	s := &Simulator{
		params:         params,
		provider:       provider,
		logger:         logger,
		renewal:        events.Cadence(constants.RenewalFrequencyMonths),
		relocation:     events.YearsCadence(params.RelocateEveryYears),
		phase:          PhaseInitializing,
		inflationIndex: 1.0,
		notes:          make(map[string][]string),
		history:        make([]Snapshot, 0, params.Months()),
	}

	s.startHousePrice = provider.HousePrice(params.StartYear, params.City)
	s.downPayment = s.startHousePrice * params.DownPaymentPct / constants.PercentageMultiplier
	s.closingCosts = mortgage.AcquisitionCost(s.startHousePrice, params.City)

	property, err := mortgage.NewProperty(mortgage.PropertyConfig{
		PurchasePrice:     s.startHousePrice,
		DownPayment:       s.downPayment,
		InterestRate:      provider.MortgageRate(params.StartYear),
		AmortizationYears: params.AmortizationYears,
		City:              params.City,
		PropertyTaxRate:   provider.PropertyTaxRate(params.City),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.property = property

	account, err := portfolio.NewPortfolio(s.downPayment+s.closingCosts, params.NegativeContributions, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	s.portfolio = account

	start := datetime.MonthLabel(params.StartYear, 1)
	end := datetime.MonthLabel(params.EndYear, constants.MonthsPerYear)
	schedule, err := events.NewSchedule(start, end, params.AmortizationYears*constants.MonthsPerYear, s.renewal, s.relocation)
	if err != nil {
		return nil, fmt.Errorf("failed to plan events: %w", err)
	}
	s.schedule = schedule

	if params.InitialRent != nil {
		s.overrideRent = *params.InitialRent
	}
	s.totals.ClosingCosts = s.closingCosts

	s.year = params.StartYear
	s.month = 1
	s.phase = PhaseYearBoundary

	logger.Debug("simulation initialized",
		zap.String("op", "simulation.New"),
		zap.Int("start_year", params.StartYear),
		zap.Int("end_year", params.EndYear),
		zap.String("city", params.City),
		zap.Float64("house_price", s.startHousePrice),
		zap.Float64("down_payment", s.downPayment),
		zap.Float64("closing_costs", s.closingCosts),
	)
	return s, nil
}

// Phase returns the current state.
func (s *Simulator) Phase() Phase {
	return s.phase
}

// Done reports whether every month has been simulated.
func (s *Simulator) Done() bool {
	return s.phase == PhaseFinalizing
}

// Step simulates exactly one month and returns its snapshot. Year
// boundaries are crossed inside Step.
func (s *Simulator) Step() (Snapshot, error) {
	if s.Done() {
		return Snapshot{}, ErrFinished
	}
	if s.phase == PhaseYearBoundary {
		s.beginYear()
	}

	snapshot := s.stepMonth()
	s.history = append(s.history, snapshot)

	s.elapsed++
	if s.month == constants.MonthsPerYear {
		s.endYear()
	} else {
		s.month++
	}
	return snapshot, nil
}

func (s *Simulator) beginYear() {
	y := s.year
	s.stockReturn = mathutil.PercentToDecimal(s.provider.StockReturn(y))
	s.inflation = mathutil.PercentToDecimal(s.provider.InflationRate(y))

	s.appreciation = constants.FallbackAnnualAppreciation
	current := s.provider.HousePrice(y, s.params.City)
	if next, ok := s.provider.HousePriceAnchor(y+1, s.params.City); ok && current > 0 {
		s.appreciation = next/current - 1
	}

	s.tfsaRoom += s.provider.ContributionLimit(history.TaxFree, y)
	s.rrspRoom += s.provider.ContributionLimit(history.TaxDeferred, y)

	if s.params.InitialRent != nil {
		s.rent = s.overrideRent
	} else {
		s.rent = s.provider.AverageRent(y, s.params.City)
	}

	s.phase = PhaseSteppingMonth
	s.logger.Debug("year boundary",
		zap.String("op", "simulation.Step"),
		zap.Int("year", y),
		zap.Float64("stock_return", s.stockReturn),
		zap.Float64("inflation", s.inflation),
		zap.Float64("appreciation", s.appreciation),
		zap.Float64("rent", s.rent),
		zap.Float64("tfsa_room", s.tfsaRoom),
		zap.Float64("rrsp_room", s.rrspRoom),
	)
}

func (s *Simulator) stepMonth() Snapshot {
	date := datetime.MonthLabel(s.year, s.month)
	snapshot := Snapshot{Year: s.year, Month: s.month, Date: date, Elapsed: s.elapsed}

	s.inflationIndex *= 1 + mathutil.MonthlyRate(s.inflation)

	if s.renewal.Due(s.elapsed) {
		remaining := s.params.AmortizationYears*constants.MonthsPerYear - s.elapsed
		if remaining > 0 {
			rate := s.provider.MortgageRate(s.year)
			s.property.RenewRate(rate, remaining)
			s.totals.Renewals++
			snapshot.Renewed = true
			s.note(date, fmt.Sprintf("renewed mortgage at %.2f%% over %d months, payment %.2f",
				rate, remaining, s.property.MonthlyPayment))
		}
	}

	var cost mortgage.MonthlyCost
	if s.params.PriceModel == constants.PriceModelSeasonal {
		market := s.provider.MonthlyHousePrice(s.year, s.month, s.params.City)
		cost = s.property.AdvanceToValue(market, s.inflation)
	} else {
		cost = s.property.AdvanceOneMonth(s.appreciation, s.inflation)
	}
	if cost.PaidOff {
		s.note(date, fmt.Sprintf("mortgage paid off with final payment %.2f", cost.Payment))
	}

	if s.relocation.Due(s.elapsed) {
		relocation := s.property.Relocate(s.params.City)
		s.totals.RelocationEvents++
		s.totals.RelocationFriction += relocation.Friction
		s.totals.RelocationLost += relocation.Lost
		snapshot.Relocated = true
		snapshot.RelocationFriction = relocation.Friction
		s.note(date, fmt.Sprintf("relocated in %s with %.2f friction", s.params.City, relocation.Friction))
		if relocation.Lost > 0 {
			s.note(date, fmt.Sprintf("relocation friction exceeded equity by %.2f", relocation.Lost))
		}
	}

	contribution := cost.Payment + cost.Maintenance - s.rent
	if s.month == constants.RefundMonth && s.pendingRefund > 0 {
		contribution += s.pendingRefund
		snapshot.RefundReinvested = s.pendingRefund
		s.totals.RefundsReinvested += s.pendingRefund
		s.note(date, fmt.Sprintf("reinvested tax refund of %.2f", s.pendingRefund))
		s.pendingRefund = 0
	}

	alloc := s.portfolio.AdvanceOneMonth(portfolio.Month{
		AnnualReturn: s.stockReturn,
		Contribution: contribution,
		TFSARoom:     s.tfsaRoom,
		RRSPRoom:     s.rrspRoom,
		FeeRate:      s.params.FeeRate,
		TaxDragRate:  s.params.TaxDragRate,
	})
	s.tfsaRoom -= alloc.TFSAUsed
	s.rrspRoom -= alloc.RRSPUsed

	s.totals.Rent += s.rent
	s.totals.Contributions += contribution
	s.totals.Fees += alloc.Fees
	s.totals.TaxDrag += alloc.TaxDrag
	s.totals.Withdrawals += alloc.Withdrawn
	s.totals.Shortfall += alloc.Shortfall

	snapshot.HouseValue = s.property.Value
	snapshot.HouseEquity = s.property.Equity()
	snapshot.RemainingPrincipal = s.property.Principal
	snapshot.MortgageRate = s.property.InterestRate
	snapshot.Payment = cost.Payment
	snapshot.Interest = cost.Interest
	snapshot.Principal = cost.Principal
	snapshot.Maintenance = cost.Maintenance
	snapshot.PropertyTax = cost.PropertyTax
	snapshot.Insurance = cost.Insurance
	snapshot.Rent = s.rent
	snapshot.Contribution = contribution
	snapshot.Withdrawn = alloc.Withdrawn
	snapshot.Shortfall = alloc.Shortfall
	snapshot.TFSA = s.portfolio.TFSA
	snapshot.RRSP = s.portfolio.RRSP
	snapshot.Taxable = s.portfolio.Taxable
	snapshot.StockBalance = s.portfolio.Balance()
	snapshot.TFSARoom = s.tfsaRoom
	snapshot.RRSPRoom = s.rrspRoom
	snapshot.InflationIndex = s.inflationIndex
	snapshot.RealHouseEquity = snapshot.HouseEquity / s.inflationIndex
	snapshot.RealStockBalance = snapshot.StockBalance / s.inflationIndex
	return snapshot
}

func (s *Simulator) endYear() {
	contributed := s.portfolio.TakeAnnualRRSPContributions()
	s.pendingRefund = contributed * s.params.MarginalTaxRate
	if s.params.InitialRent != nil {
		s.overrideRent *= 1 + s.inflation
	}

	s.year++
	s.month = 1
	if s.year > s.params.EndYear {
		s.phase = PhaseFinalizing
	} else {
		s.phase = PhaseYearBoundary
	}
}

func (s *Simulator) note(date, text string) {
	s.notes[date] = append(s.notes[date], text)
	s.logger.Debug(fmt.Sprintf("%s: %s", date, text),
		zap.String("op", "simulation.Step"),
	)
}

// Finalize values both strategies at the end of the window and returns the
// result. It fails while months remain.
func (s *Simulator) Finalize() (*Result, error) {
	if !s.Done() {
		return nil, fmt.Errorf("%w: at %s", ErrNotFinished, datetime.MonthLabel(s.year, s.month))
	}

	p := s.property
	account := s.portfolio

	s.totals.MortgageInterest = p.TotalInterest
	s.totals.PrincipalRepaid = p.TotalPrincipal
	s.totals.Maintenance = p.TotalMaintenance
	s.totals.PropertyTax = p.TotalPropertyTax
	s.totals.Insurance = p.TotalInsurance
	s.totals.SellingCosts = p.DispositionCost()

	result := &Result{
		RunID:               uuid.NewString(),
		Params:              s.params,
		History:             s.history,
		Notes:               s.notes,
		Events:              s.occurredEvents(),
		StartHousePrice:     s.startHousePrice,
		InitialDownPayment:  s.downPayment,
		ClosingCosts:        s.closingCosts,
		TotalInitialCapital: s.downPayment + s.closingCosts,
		FinalHouseValue:     p.Value,
		FinalHouseEquity:    p.Equity(),
		SellingCosts:        p.DispositionCost(),
		FinalHouseNet:       p.DispositionProceeds(),
		FinalStockGross:     account.Balance(),
		FinalStockNet:       account.LiquidationValueForYear(s.params.EndYear, s.params.MarginalTaxRate, s.provider),
		InflationIndex:      s.inflationIndex,
		Totals:              s.totals,
	}
	result.RealHouseNet = result.FinalHouseNet / s.inflationIndex
	result.RealStockNet = result.FinalStockNet / s.inflationIndex

	result.Advantage = result.FinalHouseNet - result.FinalStockNet
	switch {
	case mathutil.IsZero(result.Advantage):
		result.Winner = WinnerTie
	case result.Advantage > 0:
		result.Winner = WinnerBuy
	default:
		result.Winner = WinnerRent
	}
	return result, nil
}

// occurredEvents returns the scheduled events that actually fired. A
// planned March refund is dropped when nothing was reinvested that month.
func (s *Simulator) occurredEvents() []events.Occurrence {
	refunded := make(map[string]bool)
	for _, snapshot := range s.history {
		if snapshot.RefundReinvested > 0 {
			refunded[snapshot.Date] = true
		}
	}

	planned := s.schedule.Occurrences()
	occurred := make([]events.Occurrence, 0, len(planned))
	for _, occurrence := range planned {
		if occurrence.Kind == events.Refund && !refunded[occurrence.Date] {
			continue
		}
		occurred = append(occurred, occurrence)
	}
	return occurred
}

// Run performs a complete simulation. The context is checked before every
// month; a cancelled run returns the context error and no result.
func Run(ctx context.Context, logger *zap.Logger, provider history.Provider, params Params) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	started := time.Now()

	sim, err := New(provider, params, logger)
	if err != nil {
		return nil, err
	}
	for !sim.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := sim.Step(); err != nil {
			return nil, err
		}
	}

	result, err := sim.Finalize()
	if err != nil {
		return nil, err
	}
	logger.Info("simulation complete",
		zap.String("op", "simulation.Run"),
		zap.String("run_id", result.RunID),
		zap.Int("months", len(result.History)),
		zap.String("winner", result.Winner),
		zap.Float64("advantage", mathutil.Round(result.Advantage)),
		zap.Duration("duration", time.Since(started)),
	)
	return result, nil
}
