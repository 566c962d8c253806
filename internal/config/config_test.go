package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

const sampleConfig = `
simulation:
  startYear: 2000
  endYear: 2020
  amortizationYears: 30
  downPaymentPct: 10
  city: Toronto
  marginalTaxRate: 0.3
  relocateEveryYears: 7
  priceModel: seasonal
  initialRent: 1500
sweep:
  startYears: [1995, 2000]
  downPaymentPcts: [5, 20]
  parallelism: 2
breakeven:
  low: 100
  high: 5000
logging:
  level: debug
  format: json
output:
  format: csv
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Sample config file",
			configPath: writeConfig(t, sampleConfig),
		},
		{
			name:       "Malformed config file",
			configPath: writeConfig(t, "simulation: [1, 2"),
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationValues(t *testing.T) {
	conf, err := LoadConfiguration(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	p := conf.Simulation
	if p.StartYear != 2000 || p.EndYear != 2020 || p.AmortizationYears != 30 {
		t.Errorf("unexpected years: %+v", p)
	}
	if p.DownPaymentPct != 10 || p.City != constants.CityToronto || p.MarginalTaxRate != 0.3 {
		t.Errorf("unexpected parameters: %+v", p)
	}
	if p.RelocateEveryYears != 7 || p.PriceModel != constants.PriceModelSeasonal {
		t.Errorf("unexpected relocation or price model: %+v", p)
	}
	if p.InitialRent == nil || *p.InitialRent != 1500 {
		t.Errorf("expected initial rent 1500, got %v", p.InitialRent)
	}
	if p.NegativeContributions != constants.NegativeContributionIgnore {
		t.Errorf("expected default negative contribution policy, got %q", p.NegativeContributions)
	}

	if len(conf.Sweep.StartYears) != 2 || conf.Sweep.StartYears[1] != 2000 {
		t.Errorf("unexpected sweep start years: %v", conf.Sweep.StartYears)
	}
	if len(conf.Sweep.DownPaymentPcts) != 2 || conf.Sweep.Parallelism != 2 {
		t.Errorf("unexpected sweep grid: %+v", conf.Sweep)
	}
	if conf.Breakeven.Low == nil || *conf.Breakeven.Low != 100 || conf.Breakeven.High == nil || *conf.Breakeven.High != 5000 {
		t.Errorf("unexpected breakeven bounds: %+v", conf.Breakeven)
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "json" {
		t.Errorf("unexpected logging: %+v", conf.Logging)
	}
	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("unexpected output format %q", conf.Output.Format)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader("simulation:\n  startYear: 1995\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	p := conf.Simulation
	if p.StartYear != 1995 {
		t.Errorf("expected start year 1995, got %d", p.StartYear)
	}
	if p.EndYear != constants.DefaultEndYear || p.AmortizationYears != 25 || p.DownPaymentPct != 20 {
		t.Errorf("expected defaults, got %+v", p)
	}
	if p.City != constants.DefaultCity || p.PriceModel != constants.PriceModelAnnual {
		t.Errorf("expected default city and price model, got %+v", p)
	}
	if p.InitialRent != nil {
		t.Errorf("expected no rent override, got %v", *p.InitialRent)
	}
	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("expected pretty output, got %q", conf.Output.Format)
	}
	if conf.Breakeven.Low != nil {
		t.Errorf("expected unset breakeven bounds")
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("RVB_SIMULATION_STARTYEAR", "2005")
	t.Setenv("RVB_SIMULATION_CITY", constants.CityVancouver)

	conf, err := LoadConfiguration(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Simulation.StartYear != 2005 {
		t.Errorf("expected env start year 2005, got %d", conf.Simulation.StartYear)
	}
	if conf.Simulation.City != constants.CityVancouver {
		t.Errorf("expected env city %s, got %s", constants.CityVancouver, conf.Simulation.City)
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Configuration)
		expected int
	}{
		{
			name:     "Defaults before program years",
			mutate:   func(*Configuration) {},
			expected: 2,
		},
		{
			name: "Recent start with long amortization",
			mutate: func(c *Configuration) {
				c.Simulation.StartYear = 2010
			},
			expected: 1,
		},
		{
			name: "Clean configuration",
			mutate: func(c *Configuration) {
				c.Simulation.StartYear = 2010
				c.Simulation.AmortizationYears = 10
			},
			expected: 0,
		},
		{
			name: "Unknown output format",
			mutate: func(c *Configuration) {
				c.Simulation.StartYear = 2010
				c.Simulation.AmortizationYears = 10
				c.Output.Format = "xml"
			},
			expected: 1,
		},
		{
			name: "Sweep beyond end year",
			mutate: func(c *Configuration) {
				c.Simulation.StartYear = 2010
				c.Simulation.AmortizationYears = 10
				c.Sweep.StartYears = []int{2010, 2030}
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			tt.mutate(conf)
			warnings := conf.ValidateConfiguration()
			if len(warnings) != tt.expected {
				t.Errorf("expected %d warnings, got %d: %v", tt.expected, len(warnings), warnings)
			}
		})
	}
}

func TestProvider(t *testing.T) {
	conf := Default()
	provider, err := conf.Provider()
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	if minYear, maxYear := provider.YearRange(); minYear >= maxYear {
		t.Errorf("unexpected year range %d-%d", minYear, maxYear)
	}

	conf.Data.File = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := conf.Provider(); err == nil {
		t.Errorf("expected error for missing data file")
	}
}
