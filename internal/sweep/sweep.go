// Package sweep runs a grid of independent simulations concurrently.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Grid lists the parameter values to combine. An empty axis keeps the base
// parameter's value.
type Grid struct {
	StartYears      []int     `json:"startYears,omitempty" yaml:"startYears" mapstructure:"startYears"`
	DownPaymentPcts []float64 `json:"downPaymentPcts,omitempty" yaml:"downPaymentPcts" mapstructure:"downPaymentPcts"`
	Parallelism     int       `json:"parallelism,omitempty" yaml:"parallelism" mapstructure:"parallelism"`
}

// Row is the outcome of one grid cell.
type Row struct {
	RunID          string  `json:"runId"`
	StartYear      int     `json:"startYear"`
	EndYear        int     `json:"endYear"`
	DownPaymentPct float64 `json:"downPaymentPct"`
	City           string  `json:"city"`
	HousePrice     float64 `json:"housePrice"`
	FinalHouseNet  float64 `json:"finalHouseNet"`
	FinalStockNet  float64 `json:"finalStockNet"`
	RealHouseNet   float64 `json:"realHouseNet"`
	RealStockNet   float64 `json:"realStockNet"`
	Advantage      float64 `json:"advantage"`
	Winner         string  `json:"winner"`
}

// Combinations expands the grid against base into one parameter set per
// cell, ordered by start year then down payment.
func (g Grid) Combinations(base simulation.Params) []simulation.Params {
	years := g.StartYears
	if len(years) == 0 {
		years = []int{base.StartYear}
	}
	downs := g.DownPaymentPcts
	if len(downs) == 0 {
		downs = []float64{base.DownPaymentPct}
	}

	combos := make([]simulation.Params, 0, len(years)*len(downs))
	for _, year := range years {
		for _, down := range downs {
			params := base.WithDefaults()
			params.StartYear = year
			params.DownPaymentPct = down
			combos = append(combos, params)
		}
	}
	return combos
}

// Run simulates every grid cell. Each run owns its own models, so cells
// execute in parallel up to Parallelism (GOMAXPROCS when unset). The first
// failure cancels the remaining cells and is returned.
func Run(ctx context.Context, logger *zap.Logger, provider history.Provider, base simulation.Params, grid Grid) ([]Row, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		return nil, errors.New("historical data provider is required")
	}
	started := time.Now()

	combos := grid.Combinations(base)
	limit := grid.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	rows := make([]Row, len(combos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, params := range combos {
		i, params := i, params
		g.Go(func() error {
			result, err := simulation.Run(gctx, logger.With(zap.Int("start_year", params.StartYear)), provider, params)
			if err != nil {
				return fmt.Errorf("start year %d with %.1f%% down: %w", params.StartYear, params.DownPaymentPct, err)
			}
			rows[i] = rowFromResult(result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StartYear != rows[j].StartYear {
			return rows[i].StartYear < rows[j].StartYear
		}
		return rows[i].DownPaymentPct < rows[j].DownPaymentPct
	})

	logger.Info("sweep complete",
		zap.String("op", "sweep.Run"),
		zap.Int("runs", len(rows)),
		zap.Int("parallelism", limit),
		zap.Duration("duration", time.Since(started)),
	)
	return rows, nil
}

func rowFromResult(result *simulation.Result) Row {
	return Row{
		RunID:          result.RunID,
		StartYear:      result.Params.StartYear,
		EndYear:        result.Params.EndYear,
		DownPaymentPct: result.Params.DownPaymentPct,
		City:           result.Params.City,
		HousePrice:     result.StartHousePrice,
		FinalHouseNet:  result.FinalHouseNet,
		FinalStockNet:  result.FinalStockNet,
		RealHouseNet:   result.RealHouseNet,
		RealStockNet:   result.RealStockNet,
		Advantage:      result.Advantage,
		Winner:         result.Winner,
	}
}

// Summary counts the winners across rows.
func Summary(rows []Row) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Winner]++
	}
	return counts
}
