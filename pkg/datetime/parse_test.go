package datetime

import (
	"testing"
)

func TestMonthLabel(t *testing.T) {
	tests := []struct {
		year     int
		month    int
		expected string
	}{
		{1990, 1, "1990-01"},
		{2024, 12, "2024-12"},
		{1975, 7, "1975-07"},
	}

	for _, tt := range tests {
		if got := MonthLabel(tt.year, tt.month); got != tt.expected {
			t.Errorf("MonthLabel(%d, %d) = %s, expected %s", tt.year, tt.month, got, tt.expected)
		}
	}
}

func TestParseMonthLabel(t *testing.T) {
	year, month, err := ParseMonthLabel("2003-03")
	if err != nil {
		t.Fatalf("ParseMonthLabel() error = %v", err)
	}
	if year != 2003 || month != 3 {
		t.Errorf("ParseMonthLabel() = %d, %d, expected 2003, 3", year, month)
	}

	if _, _, err := ParseMonthLabel("2003/03"); err == nil {
		t.Error("ParseMonthLabel() expected error for invalid label")
	}
}

func TestOffsetDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
		wantErr  bool
	}{
		{"Add multiple years", "2025-01", 24, "2027-01", false},
		{"Subtract multiple years", "2025-01", -24, "2023-01", false},
		{"Cross year boundary forward", "2025-06", 8, "2026-02", false},
		{"Renewal cadence", "1990-01", 60, "1995-01", false},
		{"Invalid date", "not-a-date", 1, "not-a-date", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, DateTimeLayout, tt.months)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OffsetDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %s, expected %s", result, tt.expected)
			}
		})
	}
}
