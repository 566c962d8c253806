// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

const (
	// DateTimeLayout is the month label format, e.g. "1990-01".
	DateTimeLayout = constants.DateTimeLayout
)

// MonthLabel formats a calendar year and 1-based month as "YYYY-MM".
func MonthLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(DateTimeLayout)
}

// ParseMonthLabel splits a "YYYY-MM" label into its year and month.
func ParseMonthLabel(label string) (int, int, error) {
	t, err := time.Parse(DateTimeLayout, label)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month label %q: %w", label, err)
	}
	return t.Year(), int(t.Month()), nil
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}
