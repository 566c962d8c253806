// Package events provides the periodic policy events of a simulation:
// mortgage renewals, tax refund reinvestment and relocations.
package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/datetime"
)

// Kind names a periodic event.
type Kind string

const (
	Renewal    Kind = "renewal"
	Refund     Kind = "refund"
	Relocation Kind = "relocation"
)

// Cadence is an event period in months. A zero or negative cadence never
// fires.
type Cadence int

// YearsCadence converts a period in years into a monthly cadence.
func YearsCadence(years int) Cadence {
	return Cadence(years * constants.MonthsPerYear)
}

// Due reports whether an event with this cadence fires after the given
// number of elapsed months: at every positive multiple of the cadence.
func (c Cadence) Due(elapsed int) bool {
	return c > 0 && elapsed > 0 && elapsed%int(c) == 0
}

// Event represents a periodic event with date processing capabilities.
type Event struct {
	Kind      Kind
	StartDate string
	EndDate   string
	Frequency int // months
	DateList  []time.Time
}

// FormDateList expands the event into every date from StartDate through
// EndDate inclusive, stepping by Frequency months.
func (event *Event) FormDateList() error {
	if event.Frequency <= 0 {
		return fmt.Errorf("event %s has non-positive frequency %d", event.Kind, event.Frequency)
	}
	startDateT, err := time.Parse(datetime.DateTimeLayout, event.StartDate)
	if err != nil {
		return err
	}
	endDateT, err := time.Parse(datetime.DateTimeLayout, event.EndDate)
	if err != nil {
		return err
	}

	var dateList []time.Time
	for next := startDateT; !next.After(endDateT); next = next.AddDate(0, event.Frequency, 0) {
		dateList = append(dateList, next)
	}
	event.DateList = dateList
	return nil
}

// Dates returns the event dates as month labels.
func (event *Event) Dates() []string {
	labels := make([]string, len(event.DateList))
	for i, d := range event.DateList {
		labels[i] = d.Format(datetime.DateTimeLayout)
	}
	return labels
}

// Schedule is the plan of periodic events over a simulation window.
type Schedule struct {
	Events []*Event
}

// Occurrence is one dated event in a schedule.
type Occurrence struct {
	Date string `json:"date"`
	Kind Kind   `json:"kind"`
}

// NewSchedule lays out renewals, March refunds and relocations between
// start and end (inclusive month labels). Renewals stop once the
// amortization term has elapsed.
func NewSchedule(start, end string, amortizationMonths int, renewal, relocation Cadence) (*Schedule, error) {
	startYear, _, err := datetime.ParseMonthLabel(start)
	if err != nil {
		return nil, err
	}
	if _, _, err := datetime.ParseMonthLabel(end); err != nil {
		return nil, err
	}

	s := &Schedule{}
	add := func(kind Kind, first, last string, frequency int) error {
		if frequency <= 0 || first > last {
			return nil
		}
		event := &Event{Kind: kind, StartDate: first, EndDate: last, Frequency: frequency}
		if err := event.FormDateList(); err != nil {
			return err
		}
		s.Events = append(s.Events, event)
		return nil
	}

	if renewal > 0 {
		first, err := datetime.OffsetDate(start, datetime.DateTimeLayout, int(renewal))
		if err != nil {
			return nil, err
		}
		// The last renewal must leave at least one month of amortization.
		lastRenewal, err := datetime.OffsetDate(start, datetime.DateTimeLayout, amortizationMonths-1)
		if err != nil {
			return nil, err
		}
		if err := add(Renewal, first, minLabel(end, lastRenewal), int(renewal)); err != nil {
			return nil, err
		}
	}

	refundStart := datetime.MonthLabel(startYear+1, constants.RefundMonth)
	if err := add(Refund, refundStart, end, constants.MonthsPerYear); err != nil {
		return nil, err
	}

	if relocation > 0 {
		first, err := datetime.OffsetDate(start, datetime.DateTimeLayout, int(relocation))
		if err != nil {
			return nil, err
		}
		if err := add(Relocation, first, end, int(relocation)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Count returns the number of planned occurrences of kind.
func (s *Schedule) Count(kind Kind) int {
	n := 0
	for _, event := range s.Events {
		if event.Kind == kind {
			n += len(event.DateList)
		}
	}
	return n
}

// Occurrences returns every planned event ordered by date, then kind.
func (s *Schedule) Occurrences() []Occurrence {
	var out []Occurrence
	for _, event := range s.Events {
		for _, date := range event.Dates() {
			out = append(out, Occurrence{Date: date, Kind: event.Kind})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func minLabel(a, b string) string {
	if a < b {
		return a
	}
	return b
}
