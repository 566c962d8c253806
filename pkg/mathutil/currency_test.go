package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Already rounded", 12.34, 12.34},
		{"Round down", 12.344, 12.34},
		{"Round up", 12.346, 12.35},
		{"Half cent", 0.125, 0.13},
		{"Negative", -1234.567, -1234.57},
		{"Zero", 0, 0},
		{"Large value", 1234567.891, 1234567.89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.input); got != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRoundNonFinite(t *testing.T) {
	if !math.IsNaN(Round(math.NaN())) {
		t.Error("Round(NaN) should stay NaN")
	}
	if !math.IsInf(Round(math.Inf(1)), 1) {
		t.Error("Round(+Inf) should stay +Inf")
	}
}

func TestIsZero(t *testing.T) {
	if !IsZero(0.005) {
		t.Error("IsZero(0.005) should be true")
	}
	if IsZero(-0.02) {
		t.Error("IsZero(-0.02) should be false")
	}
}

func TestMonthlyRate(t *testing.T) {
	tests := []struct {
		name   string
		annual float64
	}{
		{"Zero", 0},
		{"Five percent", 0.05},
		{"Negative", -0.2},
		{"High", 0.37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monthly := MonthlyRate(tt.annual)
			compounded := math.Pow(1+monthly, 12) - 1
			if math.Abs(compounded-tt.annual) > 1e-12 {
				t.Errorf("MonthlyRate(%v) compounds to %v", tt.annual, compounded)
			}
		})
	}
}

func TestPercentToDecimal(t *testing.T) {
	if got := PercentToDecimal(13.0); math.Abs(got-0.13) > 1e-15 {
		t.Errorf("PercentToDecimal(13) = %v", got)
	}
}
