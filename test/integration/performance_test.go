package integration

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"go.uber.org/zap"
)

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	logger := zap.NewNop()

	start := time.Now()
	conf, err := config.LoadConfiguration(exampleConfig)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	provider, err := conf.Provider()
	if err != nil {
		t.Fatalf("Provider failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	result, err := simulation.Run(context.Background(), logger, provider, conf.Simulation)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	runTime := time.Since(start)

	start = time.Now()
	rows, err := sweep.Run(context.Background(), logger, provider, conf.Simulation, conf.Sweep)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	sweepTime := time.Since(start)

	totalTime := loadTime + runTime + sweepTime

	t.Logf("Performance metrics:")
	t.Logf("  Load config and data: %v", loadTime)
	t.Logf("  Single simulation: %v", runTime)
	t.Logf("  Sweep of %d runs: %v", len(rows), sweepTime)
	t.Logf("  Total time: %v", totalTime)

	if totalTime > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", totalTime)
	}
	if len(result.History) != conf.Simulation.Months() {
		t.Errorf("Expected %d snapshots, got %d", conf.Simulation.Months(), len(result.History))
	}
}

// TestMemoryUsage runs the example repeatedly and checks heap growth stays bounded.
func TestMemoryUsage(t *testing.T) {
	logger := zap.NewNop()
	provider, err := history.Default()
	if err != nil {
		t.Fatalf("Default provider failed: %v", err)
	}
	params := simulation.DefaultParams()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	for i := 0; i < 10; i++ {
		if _, err := simulation.Run(context.Background(), logger, provider, params); err != nil {
			t.Fatalf("Run failed on iteration %d: %v", i, err)
		}
	}

	runtime.GC()
	runtime.ReadMemStats(&after)
	if after.HeapAlloc > before.HeapAlloc+64<<20 {
		t.Errorf("heap grew from %d to %d bytes over 10 runs", before.HeapAlloc, after.HeapAlloc)
	}
}

// TestDataConsistency validates that multiple runs produce identical results
func TestDataConsistency(t *testing.T) {
	logger := zap.NewNop()
	provider, err := history.Default()
	if err != nil {
		t.Fatalf("Default provider failed: %v", err)
	}
	params := simulation.DefaultParams()
	params.City = "Toronto"
	params.RelocateEveryYears = 7

	var first *simulation.Result
	for run := 0; run < 3; run++ {
		result, err := simulation.Run(context.Background(), logger, provider, params)
		if err != nil {
			t.Fatalf("Run failed on run %d: %v", run, err)
		}
		if run == 0 {
			first = result
			continue
		}

		if len(result.History) != len(first.History) {
			t.Fatalf("Run %d: history length mismatch %d != %d", run, len(result.History), len(first.History))
		}
		for i := range result.History {
			if result.History[i] != first.History[i] {
				t.Fatalf("Run %d: snapshot %s differs", run, result.History[i].Date)
			}
		}
		if result.Advantage != first.Advantage {
			t.Errorf("Run %d: advantage %.2f != %.2f", run, result.Advantage, first.Advantage)
		}
		if result.RunID == first.RunID {
			t.Errorf("Run %d reused run id %s", run, result.RunID)
		}
	}
}

// TestConfigurationVariations tests different configuration variations
func TestConfigurationVariations(t *testing.T) {
	logger := zap.NewNop()

	variations := []struct {
		name         string
		modifyConfig func(*config.Configuration)
		expectError  bool
	}{
		{
			name:         "Baseline config",
			modifyConfig: func(c *config.Configuration) {},
		},
		{
			name: "Seasonal prices in Vancouver",
			modifyConfig: func(c *config.Configuration) {
				c.Simulation.City = "Vancouver"
				c.Simulation.PriceModel = "seasonal"
			},
		},
		{
			name: "Relocation with withdrawals",
			modifyConfig: func(c *config.Configuration) {
				c.Simulation.RelocateEveryYears = 5
				c.Simulation.NegativeContributions = "withdraw"
				c.Simulation.FeeRate = 0.005
				c.Simulation.TaxDragRate = 0.002
			},
		},
		{
			name: "Rent override",
			modifyConfig: func(c *config.Configuration) {
				rent := 900.0
				c.Simulation.InitialRent = &rent
			},
		},
		{
			name: "Start year outside the data",
			modifyConfig: func(c *config.Configuration) {
				c.Simulation.StartYear = 1900
			},
			expectError: true,
		},
		{
			name: "Unknown city",
			modifyConfig: func(c *config.Configuration) {
				c.Simulation.City = "Atlantis"
			},
			expectError: true,
		},
	}

	for _, variation := range variations {
		t.Run(variation.name, func(t *testing.T) {
			conf, err := config.LoadConfiguration(exampleConfig)
			if err != nil {
				t.Fatalf("LoadConfiguration failed: %v", err)
			}
			variation.modifyConfig(conf)

			provider, err := conf.Provider()
			if err != nil {
				t.Fatalf("Provider failed: %v", err)
			}
			result, err := simulation.Run(context.Background(), logger, provider, conf.Simulation)
			if variation.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(result.History) == 0 {
				t.Errorf("Expected history but got none")
			}
		})
	}
}

func BenchmarkSimulation(b *testing.B) {
	logger := zap.NewNop()
	provider, err := history.Default()
	if err != nil {
		b.Fatal(err)
	}
	params := simulation.DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := simulation.Run(context.Background(), logger, provider, params); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSweep(b *testing.B) {
	logger := zap.NewNop()
	provider, err := history.Default()
	if err != nil {
		b.Fatal(err)
	}
	grid := sweep.Grid{StartYears: []int{1990, 1995, 2000, 2005, 2010}, DownPaymentPcts: []float64{5, 10, 20}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sweep.Run(context.Background(), logger, provider, simulation.DefaultParams(), grid); err != nil {
			b.Fatal(err)
		}
	}
}
