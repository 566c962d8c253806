// Package output provides utilities for formatting and displaying simulation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/datetime"
	"github.com/iwvelando/rent-vs-buy/pkg/format"
	"github.com/iwvelando/rent-vs-buy/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable summary followed by one row per
// simulated year (the December snapshot) and the dated notes.
func PrettyFormat(w io.Writer, result *simulation.Result) {
	p := message.NewPrinter(language.English)
	params := result.Params

	_, _ = fmt.Fprintf(w, "--- Rent vs buy: %s, %d to %d ---\n", params.City, params.StartYear, params.EndYear)
	_, _ = fmt.Fprintf(w, "Run:                 %s\n", result.RunID)
	_, _ = fmt.Fprintf(w, "Purchase price:      %s\n", format.Currency(result.StartHousePrice))
	_, _ = fmt.Fprintf(w, "Down payment:        %s (%.1f%%)\n", format.Currency(result.InitialDownPayment), params.DownPaymentPct)
	_, _ = fmt.Fprintf(w, "Closing costs:       %s\n", format.Currency(result.ClosingCosts))
	_, _ = fmt.Fprintf(w, "Initial capital:     %s\n", format.Currency(result.TotalInitialCapital))
	_, _ = fmt.Fprintf(w, "Amortization:        %d years\n", params.AmortizationYears)
	if params.RelocateEveryYears > 0 {
		_, _ = fmt.Fprintf(w, "Relocation:          every %d years\n", params.RelocateEveryYears)
	}
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Year | House value    | Equity         | Mortgage       | Rent       | Portfolio      | Notes\n")
	_, _ = fmt.Fprintf(w, "____ | ______________ | ______________ | ______________ | __________ | ______________ | _____\n")
	notes := notesByYear(result.Notes)
	for _, s := range result.History {
		if s.Month != constants.MonthsPerYear {
			continue
		}
		_, _ = p.Fprintf(w, "%s | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f | %s\n",
			strconv.Itoa(s.Year), s.HouseValue, s.HouseEquity, s.RemainingPrincipal, s.Rent, s.StockBalance, strconv.Itoa(notes[s.Year]))
	}
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Buy:  house %s, selling costs %s, net %s (real %s)\n",
		format.Currency(result.FinalHouseValue), format.Currency(result.SellingCosts),
		format.Currency(result.FinalHouseNet), format.Currency(result.RealHouseNet))
	_, _ = fmt.Fprintf(w, "Rent: portfolio %s, after tax %s (real %s)\n",
		format.Currency(result.FinalStockGross), format.Currency(result.FinalStockNet),
		format.Currency(result.RealStockNet))
	_, _ = fmt.Fprintf(w, "Inflation index:     %.4f\n", result.InflationIndex)

	t := result.Totals
	_, _ = fmt.Fprintf(w, "Totals: interest %s, maintenance %s, property tax %s, rent %s, refunds %s\n",
		format.Currency(t.MortgageInterest), format.Currency(t.Maintenance), format.Currency(t.PropertyTax),
		format.Currency(t.Rent), format.Currency(t.RefundsReinvested))
	if t.RelocationEvents > 0 {
		_, _ = fmt.Fprintf(w, "Relocations: %d costing %s", t.RelocationEvents, format.Currency(t.RelocationFriction))
		if t.RelocationLost > 0 {
			_, _ = fmt.Fprintf(w, " (%s beyond equity)", format.Currency(t.RelocationLost))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
	if t.Fees > 0 || t.TaxDrag > 0 {
		_, _ = fmt.Fprintf(w, "Portfolio costs: fees %s, tax drag %s\n", format.Currency(t.Fees), format.Currency(t.TaxDrag))
	}
	if t.Shortfall > 0 {
		_, _ = fmt.Fprintf(w, "Unfunded housing cost: %s\n", format.Currency(t.Shortfall))
	}
	_, _ = fmt.Fprintf(w, "Winner: %s by %s\n", strings.ToUpper(result.Winner), format.Currency(abs(result.Advantage)))

	if len(result.Notes) > 0 {
		_, _ = fmt.Fprintf(w, "\nNotes:\n")
		for _, date := range sortedDates(result.Notes) {
			_, _ = fmt.Fprintf(w, "%s | %s\n", date, strings.Join(result.Notes[date], "; "))
		}
	}
}

// CsvFormat writes one row per simulated month in comma-separated value format.
func CsvFormat(w io.Writer, result *simulation.Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"date", "house value", "house equity", "remaining principal", "mortgage rate",
		"payment", "interest", "principal", "maintenance", "property tax", "insurance",
		"rent", "contribution", "refund", "tfsa", "rrsp", "taxable", "stock balance",
		"inflation index", "real house equity", "real stock balance", "notes",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range result.History {
		record := []string{
			s.Date,
			money(s.HouseValue), money(s.HouseEquity), money(s.RemainingPrincipal),
			strconv.FormatFloat(s.MortgageRate, 'f', -1, 64),
			money(s.Payment), money(s.Interest), money(s.Principal),
			money(s.Maintenance), money(s.PropertyTax), money(s.Insurance),
			money(s.Rent), money(s.Contribution), money(s.RefundReinvested),
			money(s.TFSA), money(s.RRSP), money(s.Taxable), money(s.StockBalance),
			strconv.FormatFloat(s.InflationIndex, 'f', 6, 64),
			money(s.RealHouseEquity), money(s.RealStockBalance),
			strings.Join(result.Notes[s.Date], "; "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CsvFormat output as a string.
func CsvString(result *simulation.Result) (string, error) {
	var b strings.Builder
	if err := CsvFormat(&b, result); err != nil {
		return "", err
	}
	return b.String(), nil
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SweepPretty writes one line per sweep row and a winner tally.
func SweepPretty(w io.Writer, rows []sweep.Row) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "Start | Down   | City       | Price          | Buy net        | Rent net       | Winner\n")
	_, _ = fmt.Fprintf(w, "_____ | ______ | __________ | ______________ | ______________ | ______________ | ______\n")
	for _, row := range rows {
		_, _ = p.Fprintf(w, "%s | %.1f%% | %s | $%.2f | $%.2f | $%.2f | %s\n",
			strconv.Itoa(row.StartYear), row.DownPaymentPct, row.City, row.HousePrice,
			row.FinalHouseNet, row.FinalStockNet, row.Winner)
	}

	counts := sweep.Summary(rows)
	_, _ = fmt.Fprintf(w, "\nBuy wins %d, rent wins %d, ties %d of %d runs\n",
		counts[simulation.WinnerBuy], counts[simulation.WinnerRent], counts[simulation.WinnerTie], len(rows))
}

// SweepCsv writes sweep rows in comma-separated value format.
func SweepCsv(w io.Writer, rows []sweep.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start year", "end year", "down payment pct", "city", "house price",
		"buy net", "rent net", "real buy net", "real rent net", "advantage", "winner", "run id"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.StartYear), strconv.Itoa(row.EndYear),
			strconv.FormatFloat(row.DownPaymentPct, 'f', -1, 64), row.City,
			money(row.HousePrice), money(row.FinalHouseNet), money(row.FinalStockNet),
			money(row.RealHouseNet), money(row.RealStockNet), money(row.Advantage),
			row.Winner, row.RunID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BreakevenPretty writes a breakeven search summary.
func BreakevenPretty(w io.Writer, params simulation.Params, summary optimization.Summary) {
	_, _ = fmt.Fprintf(w, "Breakeven starting rent for %s from %d: %s\n", params.City, params.StartYear, format.Currency(summary.Value))
	_, _ = fmt.Fprintf(w, "Bracket: %s to %s after %d iterations (converged: %t)\n",
		format.Currency(summary.Low), format.Currency(summary.High), summary.Iterations, summary.Converged)
	_, _ = fmt.Fprintf(w, "Buying advantage at that rent: %s\n", format.Currency(summary.Advantage))
	for _, note := range summary.Notes {
		_, _ = fmt.Fprintf(w, "Note: %s\n", note)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', constants.DecimalPlaces, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sortedDates(notes map[string][]string) []string {
	dates := make([]string, 0, len(notes))
	for date := range notes {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func notesByYear(notes map[string][]string) map[int]int {
	counts := make(map[int]int)
	for date, list := range notes {
		year, _, err := datetime.ParseMonthLabel(date)
		if err != nil {
			continue
		}
		counts[year] += len(list)
	}
	return counts
}
