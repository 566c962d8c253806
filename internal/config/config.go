// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the month format used for dates in output.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for rent-vs-buy.
type Configuration struct {
	Simulation simulation.Params `yaml:"simulation" mapstructure:"simulation"`
	Sweep      sweep.Grid        `yaml:"sweep,omitempty" mapstructure:"sweep"`
	Breakeven  BreakevenConfig   `yaml:"breakeven,omitempty" mapstructure:"breakeven"`
	Data       DataConfig        `yaml:"data,omitempty" mapstructure:"data"`
	Logging    LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
}

// DataConfig points at an optional historical data file replacing the
// embedded tables.
type DataConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, pdf
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with RVB override
// file values, e.g. RVB_SIMULATION_STARTYEAR.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	return &Configuration{
		Simulation: simulation.DefaultParams(),
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Output:     OutputConfig{Format: constants.OutputFormatPretty},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults register the keys so environment overrides apply even when
	// the file omits them.
	defaults := simulation.DefaultParams()
	v.SetDefault("simulation.startYear", defaults.StartYear)
	v.SetDefault("simulation.endYear", defaults.EndYear)
	v.SetDefault("simulation.amortizationYears", defaults.AmortizationYears)
	v.SetDefault("simulation.downPaymentPct", defaults.DownPaymentPct)
	v.SetDefault("simulation.city", defaults.City)
	v.SetDefault("simulation.marginalTaxRate", defaults.MarginalTaxRate)
	v.SetDefault("simulation.relocateEveryYears", defaults.RelocateEveryYears)
	v.SetDefault("simulation.priceModel", defaults.PriceModel)
	v.SetDefault("simulation.feeRate", defaults.FeeRate)
	v.SetDefault("simulation.taxDragRate", defaults.TaxDragRate)
	v.SetDefault("simulation.negativeContributions", defaults.NegativeContributions)
	v.SetDefault("data.file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.file", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Simulation = configuration.Simulation.WithDefaults()
	return &configuration, nil
}

// Provider returns the historical data the configuration selects: the
// embedded tables, or the data file when one is configured.
func (c *Configuration) Provider() (history.Provider, error) {
	if c.Data.File == "" {
		return history.Default()
	}
	tables, err := history.LoadFile(c.Data.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical data: %w", err)
	}
	return tables, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	params := c.Simulation.WithDefaults()
	cv := validation.ConfigValidator{
		StartYear:          params.StartYear,
		EndYear:            params.EndYear,
		AmortizationYears:  params.AmortizationYears,
		RelocateEveryYears: params.RelocateEveryYears,
		InitialRent:        params.InitialRent,
		SweepStartYears:    c.Sweep.StartYears,
	}
	warnings := cv.ValidateAll()

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}
