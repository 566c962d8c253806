// Package optimizer searches for the starting monthly rent at which buying
// and renting finish with equal net value.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/format"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
	"github.com/iwvelando/rent-vs-buy/pkg/optimization"
	"go.uber.org/zap"
)

// FieldInitialRent is the parameter the breakeven search varies.
const FieldInitialRent = "initialRent"

type Runner struct {
	logger   *zap.Logger
	provider history.Provider
	params   simulation.Params
	bounds   config.BreakevenConfig
}

type evaluation struct {
	rent      float64
	advantage float64
}

// buyingWins reports whether the house finishes at least level with the
// portfolio at this rent.
func (e evaluation) buyingWins() bool {
	return e.advantage >= 0
}

// NewRunner constructs a Runner for the provided parameters and bounds.
func NewRunner(logger *zap.Logger, provider history.Provider, params simulation.Params, bounds config.BreakevenConfig) (*Runner, error) {
	if provider == nil {
		return nil, errors.New("historical data provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(provider); err != nil {
		return nil, err
	}
	return &Runner{logger: logger, provider: provider, params: params.WithDefaults(), bounds: bounds}, nil
}

// Run bisects the rent bracket until it is narrower than the tolerance.
// A higher rent shrinks the renter's contributions, so the buying advantage
// never decreases as rent rises. When the bracket holds no sign change the
// nearer bound is returned unconverged with a note.
func (r *Runner) Run(ctx context.Context) (optimization.Summary, error) {
	started := time.Now()
	low, high := *r.bounds.Low, *r.bounds.High

	lowerEval, err := r.evaluate(ctx, low)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := r.evaluate(ctx, high)
	if err != nil {
		return optimization.Summary{}, err
	}

	if lowerEval.buyingWins() {
		return r.unbracketed(lowerEval, low, high,
			fmt.Sprintf("buying wins at every rent from %s to %s", format.Currency(low), format.Currency(high))), nil
	}
	if !upperEval.buyingWins() {
		return r.unbracketed(upperEval, low, high,
			fmt.Sprintf("renting wins at every rent from %s to %s", format.Currency(low), format.Currency(high))), nil
	}

	iterations := 0
	for iterations < r.bounds.MaxIterations && upperEval.rent-lowerEval.rent > r.bounds.Tolerance {
		mid := lowerEval.rent + (upperEval.rent-lowerEval.rent)/2
		evalMid, err := r.evaluate(ctx, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if evalMid.buyingWins() {
			if evalMid.rent == upperEval.rent {
				break
			}
			upperEval = evalMid
		} else {
			if evalMid.rent == lowerEval.rent {
				break
			}
			lowerEval = evalMid
		}
	}

	summary := optimization.Summary{
		Field:        FieldInitialRent,
		Value:        upperEval.rent,
		Low:          lowerEval.rent,
		High:         upperEval.rent,
		Advantage:    upperEval.advantage,
		Iterations:   iterations,
		Converged:    upperEval.rent-lowerEval.rent <= r.bounds.Tolerance,
		ValueDisplay: format.Currency(upperEval.rent),
	}
	if !summary.Converged {
		summary.Notes = []string{fmt.Sprintf("stopped after %d iterations with bracket %s to %s",
			iterations, format.Currency(lowerEval.rent), format.Currency(upperEval.rent))}
	}

	r.logger.Info("breakeven rent found",
		zap.String("op", "optimizer.Run"),
		zap.Int("start_year", r.params.StartYear),
		zap.String("city", r.params.City),
		zap.Float64("rent", mathutil.Round(summary.Value)),
		zap.Float64("advantage", mathutil.Round(summary.Advantage)),
		zap.Int("iterations", iterations),
		zap.Bool("converged", summary.Converged),
		zap.Duration("duration", time.Since(started)),
	)
	return summary, nil
}

func (r *Runner) unbracketed(best evaluation, low, high float64, note string) optimization.Summary {
	r.logger.Warn("breakeven rent outside bounds",
		zap.String("op", "optimizer.Run"),
		zap.Float64("low", low),
		zap.Float64("high", high),
		zap.String("note", note),
	)
	return optimization.Summary{
		Field:        FieldInitialRent,
		Value:        best.rent,
		Low:          low,
		High:         high,
		Advantage:    best.advantage,
		Converged:    math.Abs(best.advantage) <= constants.CurrencyTolerance,
		Notes:        []string{note},
		ValueDisplay: format.Currency(best.rent),
	}
}

func (r *Runner) evaluate(ctx context.Context, rent float64) (evaluation, error) {
	params := r.params
	params.InitialRent = &rent

	result, err := simulation.Run(ctx, r.logger, r.provider, params)
	if err != nil {
		return evaluation{}, fmt.Errorf("breakeven evaluation at rent %.2f failed: %w", rent, err)
	}
	return evaluation{rent: rent, advantage: result.Advantage}, nil
}
