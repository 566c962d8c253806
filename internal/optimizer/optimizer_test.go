package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/pkg/testutil"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"go.uber.org/zap"
)

func floatPtr(value float64) *float64 {
	return &value
}

func flatParams() simulation.Params {
	return simulation.Params{
		StartYear:         2000,
		AmortizationYears: 25,
		DownPaymentPct:    20,
		MarginalTaxRate:   0.4,
	}
}

func advantageAt(t *testing.T, provider *testutil.FlatProvider, rent float64) float64 {
	t.Helper()
	params := flatParams()
	params.InitialRent = &rent
	result, err := simulation.Run(context.Background(), nil, provider, params)
	if err != nil {
		t.Fatalf("simulation at rent %.2f failed: %v", rent, err)
	}
	return result.Advantage
}

func TestRunnerFindsBreakevenRent(t *testing.T) {
	provider := testutil.NewFlatProvider()
	runner, err := NewRunner(zap.NewNop(), provider, flatParams(), config.BreakevenConfig{
		Low:       floatPtr(0),
		High:      floatPtr(10000),
		Tolerance: 1,
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Converged {
		t.Fatalf("expected convergence, got %+v", summary)
	}
	if summary.Field != FieldInitialRent {
		t.Errorf("expected field %q, got %q", FieldInitialRent, summary.Field)
	}
	if summary.High-summary.Low > 1 {
		t.Errorf("bracket %.2f-%.2f wider than tolerance", summary.Low, summary.High)
	}
	if summary.Value != summary.High {
		t.Errorf("expected value at upper bracket, got %.2f vs %.2f", summary.Value, summary.High)
	}
	if summary.Iterations == 0 || summary.Iterations > 20 {
		t.Errorf("unexpected iteration count %d", summary.Iterations)
	}
	if summary.Value <= 0 || summary.Value >= 10000 {
		t.Errorf("breakeven rent %.2f outside search bounds", summary.Value)
	}
	if summary.ValueDisplay == "" || !strings.HasPrefix(summary.ValueDisplay, "$") {
		t.Errorf("unexpected display %q", summary.ValueDisplay)
	}

	if adv := advantageAt(t, provider, summary.Low); adv >= 0 {
		t.Errorf("expected renting to win just below breakeven, advantage %.2f", adv)
	}
	if adv := advantageAt(t, provider, summary.High); adv < 0 {
		t.Errorf("expected buying to win at breakeven, advantage %.2f", adv)
	}
	if adv := advantageAt(t, provider, summary.High); adv != summary.Advantage {
		t.Errorf("summary advantage %.2f does not match rerun %.2f", summary.Advantage, adv)
	}
}

func TestRunnerUnbracketed(t *testing.T) {
	provider := testutil.NewFlatProvider()

	tests := []struct {
		name      string
		low, high float64
		value     float64
		note      string
	}{
		{name: "renting always wins", low: 0, high: 1, value: 1, note: "renting wins"},
		{name: "buying always wins", low: 9000, high: 10000, value: 9000, note: "buying wins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, err := NewRunner(nil, provider, flatParams(), config.BreakevenConfig{
				Low:  floatPtr(tt.low),
				High: floatPtr(tt.high),
			})
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			summary, err := runner.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if summary.Converged {
				t.Errorf("expected no convergence")
			}
			if summary.Iterations != 0 {
				t.Errorf("expected no iterations, got %d", summary.Iterations)
			}
			if summary.Value != tt.value {
				t.Errorf("expected value %.2f, got %.2f", tt.value, summary.Value)
			}
			if len(summary.Notes) != 1 || !strings.Contains(summary.Notes[0], tt.note) {
				t.Errorf("unexpected notes %v", summary.Notes)
			}
		})
	}
}

func TestRunnerIterationCap(t *testing.T) {
	runner, err := NewRunner(nil, testutil.NewFlatProvider(), flatParams(), config.BreakevenConfig{
		Low:           floatPtr(0),
		High:          floatPtr(10000),
		Tolerance:     0.01,
		MaxIterations: 3,
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Converged {
		t.Errorf("expected the iteration cap to stop the search early")
	}
	if summary.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", summary.Iterations)
	}
	if summary.High-summary.Low != 1250 {
		t.Errorf("expected bracket width 1250, got %.2f", summary.High-summary.Low)
	}
	if len(summary.Notes) != 1 {
		t.Errorf("expected a note, got %v", summary.Notes)
	}
}

func TestNewRunnerErrors(t *testing.T) {
	provider := testutil.NewFlatProvider()

	if _, err := NewRunner(nil, nil, flatParams(), config.BreakevenConfig{}); err == nil {
		t.Errorf("expected error without provider")
	}
	if _, err := NewRunner(nil, provider, flatParams(), config.BreakevenConfig{Low: floatPtr(5), High: floatPtr(1)}); err == nil {
		t.Errorf("expected error for inverted bounds")
	}

	params := flatParams()
	params.StartYear = 1900
	_, err := NewRunner(nil, provider, params, config.BreakevenConfig{})
	if !errors.Is(err, validation.ErrInvalidInput) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRunnerCancelled(t *testing.T) {
	runner, err := NewRunner(nil, testutil.NewFlatProvider(), flatParams(), config.BreakevenConfig{})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
