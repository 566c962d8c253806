package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/optimization"
	"github.com/iwvelando/rent-vs-buy/pkg/testutil"
)

func fixtureResult() *simulation.Result {
	params := simulation.DefaultParams()
	params.StartYear = 2023
	params.RelocateEveryYears = 1
	return &simulation.Result{
		RunID:  "run-1",
		Params: params,
		History: []simulation.Snapshot{
			{Year: 2023, Month: 11, Date: "2023-11", HouseValue: 500000, HouseEquity: 100000, StockBalance: 150000},
			{Year: 2023, Month: 12, Date: "2023-12", HouseValue: 510000, HouseEquity: 112345.67, RemainingPrincipal: 397654.33, Rent: 2100, StockBalance: 151000, InflationIndex: 1.02},
			{Year: 2024, Month: 12, Date: "2024-12", HouseValue: 520000, HouseEquity: 125000, RemainingPrincipal: 395000, Rent: 2150, StockBalance: 160000, InflationIndex: 1.04},
		},
		Notes: map[string][]string{
			"2023-12": {"Test note", "Second note"},
			"2024-12": {"Relocated"},
		},
		StartHousePrice:    490000,
		InitialDownPayment: 98000,
		ClosingCosts:       8850,
		FinalHouseValue:    520000,
		FinalHouseEquity:   125000,
		SellingCosts:       29380,
		FinalHouseNet:      95620,
		FinalStockGross:    160000,
		FinalStockNet:      150000,
		InflationIndex:     1.04,
		Totals:             simulation.Totals{RelocationEvents: 1, RelocationFriction: 40000, RelocationLost: 1500},
		Winner:             simulation.WinnerRent,
		Advantage:          -54380,
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, fixtureResult())
	output := buf.String()

	for _, want := range []string{
		"--- Rent vs buy: National, 2023 to 2024 ---",
		"Purchase price:      $490,000.00",
		"Relocation:          every 1 years",
		"2023 | $510,000.00 | $112,345.67",
		"2024 | $520,000.00",
		"Relocations: 1 costing $40,000.00 ($1,500.00 beyond equity)",
		"Winner: RENT by $54,380.00",
		"2023-12 | Test note; Second note",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat missing %q in:\n%s", want, output)
		}
	}
	if strings.Contains(output, "2023 | $500,000.00") {
		t.Errorf("PrettyFormat should only print December rows")
	}
}

func TestCsvFormat(t *testing.T) {
	result := fixtureResult()
	out, err := CsvString(result)
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) != len(result.History)+1 {
		t.Fatalf("expected %d records, got %d", len(result.History)+1, len(records))
	}
	header := records[0]
	if header[0] != "date" || header[len(header)-1] != "notes" {
		t.Errorf("unexpected header %v", header)
	}
	row := records[2]
	if row[0] != "2023-12" || row[1] != "510000.00" || row[2] != "112345.67" {
		t.Errorf("unexpected row %v", row)
	}
	if row[len(row)-1] != "Test note; Second note" {
		t.Errorf("unexpected notes cell %q", row[len(row)-1])
	}
	for i, record := range records {
		if len(record) != len(header) {
			t.Errorf("record %d has %d fields, want %d", i, len(record), len(header))
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, fixtureResult()); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	if decoded["runId"] != "run-1" || decoded["winner"] != simulation.WinnerRent {
		t.Errorf("unexpected JSON fields: %v", decoded)
	}
	history, ok := decoded["history"].([]any)
	if !ok || len(history) != 3 {
		t.Errorf("expected 3 history entries, got %v", decoded["history"])
	}
}

func TestPDFReport(t *testing.T) {
	result, err := simulation.Run(context.Background(), nil, testutil.NewFlatProvider(), simulation.Params{
		StartYear:          2000,
		AmortizationYears:  25,
		DownPaymentPct:     20,
		MarginalTaxRate:    0.4,
		RelocateEveryYears: 5,
	})
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}

	pdf, err := PDFReport(result)
	if err != nil {
		t.Fatalf("PDFReport() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("output is not a PDF document")
	}
	if len(pdf) < 1000 {
		t.Errorf("PDF suspiciously small: %d bytes", len(pdf))
	}

	if _, err := PDFReport(nil); err == nil {
		t.Errorf("expected error for nil result")
	}
}

func TestSweepOutputs(t *testing.T) {
	rows := []sweep.Row{
		{RunID: "a", StartYear: 1990, EndYear: 2024, DownPaymentPct: 20, City: "National", HousePrice: 140000, FinalHouseNet: 600000, FinalStockNet: 500000, Advantage: 100000, Winner: simulation.WinnerBuy},
		{RunID: "b", StartYear: 2000, EndYear: 2024, DownPaymentPct: 20, City: "National", HousePrice: 160000, FinalHouseNet: 400000, FinalStockNet: 450000, Advantage: -50000, Winner: simulation.WinnerRent},
	}

	var buf bytes.Buffer
	SweepPretty(&buf, rows)
	output := buf.String()
	if !strings.Contains(output, "1990 | 20.0% | National | $140,000.00 | $600,000.00 | $500,000.00 | buy") {
		t.Errorf("SweepPretty missing row in:\n%s", output)
	}
	if !strings.Contains(output, "Buy wins 1, rent wins 1, ties 0 of 2 runs") {
		t.Errorf("SweepPretty missing tally in:\n%s", output)
	}

	buf.Reset()
	if err := SweepCsv(&buf, rows); err != nil {
		t.Fatalf("SweepCsv() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("sweep CSV does not parse: %v", err)
	}
	if len(records) != 3 || records[2][0] != "2000" || records[2][10] != simulation.WinnerRent {
		t.Errorf("unexpected sweep CSV %v", records)
	}
}

func TestBreakevenPretty(t *testing.T) {
	var buf bytes.Buffer
	BreakevenPretty(&buf, simulation.DefaultParams(), optimization.Summary{
		Value:      1234.5,
		Low:        1234,
		High:       1234.5,
		Advantage:  12,
		Iterations: 14,
		Converged:  true,
		Notes:      []string{"checked"},
	})
	output := buf.String()
	for _, want := range []string{
		"Breakeven starting rent for National from 1990: $1,234.50",
		"after 14 iterations (converged: true)",
		"Note: checked",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("BreakevenPretty missing %q in:\n%s", want, output)
		}
	}
}
