package config

import (
	"fmt"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

// BreakevenConfig bounds the search for the starting monthly rent at which
// buying and renting finish with equal net value.
type BreakevenConfig struct {
	Low           *float64 `json:"low,omitempty" yaml:"low,omitempty" mapstructure:"low"`
	High          *float64 `json:"high,omitempty" yaml:"high,omitempty" mapstructure:"high"`
	Tolerance     float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int      `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// Normalize applies defaults to unset fields.
func (b *BreakevenConfig) Normalize() {
	if b == nil {
		return
	}
	if b.Low == nil {
		low := constants.DefaultBreakevenLow
		b.Low = &low
	}
	if b.High == nil {
		high := constants.DefaultBreakevenHigh
		b.High = &high
	}
	if b.Tolerance <= 0 {
		b.Tolerance = constants.DefaultBreakevenTolerance
	}
	if b.MaxIterations <= 0 {
		b.MaxIterations = constants.DefaultMaxIterations
	}
}

// Validate normalizes the bounds and returns an error when they cannot be
// searched.
func (b *BreakevenConfig) Validate() error {
	if b == nil {
		return fmt.Errorf("breakeven configuration cannot be nil")
	}

	b.Normalize()

	if *b.Low < 0 {
		return fmt.Errorf("breakeven minimum rent %.2f must not be negative", *b.Low)
	}
	if *b.Low >= *b.High {
		return fmt.Errorf("breakeven minimum rent %.2f must be less than maximum %.2f", *b.Low, *b.High)
	}
	return nil
}
