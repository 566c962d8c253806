package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/format"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

type pdfReport struct {
	pdf    *fpdf.Fpdf
	result *simulation.Result
}

// PDFReport renders a result as an A4 report: the scenario, the final
// comparison, category totals, a year-by-year table and the notes.
func PDFReport(result *simulation.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	r := &pdfReport{pdf: fpdf.New("P", "mm", "A4", ""), result: result}
	r.pdf.SetMargins(marginLeft, marginTop, marginRight)
	r.pdf.SetAutoPageBreak(true, marginBottom)
	r.pdf.SetTitle("Rent vs buy report", false)

	r.addSummaryPage()
	r.addYearTable()
	r.addNotes()

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *pdfReport) addSummaryPage() {
	res := r.result
	params := res.Params
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 24)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 14, "Rent vs Buy", "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "", 12)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("%s, %d to %d", params.City, params.StartYear, params.EndYear), "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "", 8)
	r.pdf.CellFormat(contentWidth, 6, "Run "+res.RunID, "", 1, "C", false, 0, "")
	r.pdf.Ln(6)

	r.drawSectionHeader("Scenario")
	r.drawPairs([][2]string{
		{"Purchase price", format.Currency(res.StartHousePrice)},
		{"Down payment", fmt.Sprintf("%s (%.1f%%)", format.Currency(res.InitialDownPayment), params.DownPaymentPct)},
		{"Closing costs", format.Currency(res.ClosingCosts)},
		{"Amortization", fmt.Sprintf("%d years", params.AmortizationYears)},
		{"Marginal tax rate", format.Percent(params.MarginalTaxRate)},
		{"Relocation", relocationText(params.RelocateEveryYears)},
		{"Price model", params.PriceModel},
	})

	r.drawSectionHeader("Outcome")
	widths := []float64{60, 60, 60}
	r.drawTableHeader([]string{"", "Buy", "Rent and invest"}, widths)
	r.drawTableRow([]string{"Gross", format.Currency(res.FinalHouseEquity), format.Currency(res.FinalStockGross)}, widths, false)
	r.drawTableRow([]string{"Selling costs / tax", format.Currency(res.SellingCosts), format.Currency(res.FinalStockGross - res.FinalStockNet)}, widths, false)
	r.drawTableRow([]string{"Net", format.Currency(res.FinalHouseNet), format.Currency(res.FinalStockNet)}, widths, true)
	r.drawTableRow([]string{"Net (start-year dollars)", format.Currency(res.RealHouseNet), format.Currency(res.RealStockNet)}, widths, false)
	r.pdf.Ln(4)

	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Winner: %s by %s", strings.ToUpper(res.Winner), format.Currency(abs(res.Advantage))), "", 1, "L", false, 0, "")
	r.pdf.Ln(4)

	t := res.Totals
	r.drawSectionHeader("Totals")
	r.drawPairs([][2]string{
		{"Mortgage interest", format.Currency(t.MortgageInterest)},
		{"Principal repaid", format.Currency(t.PrincipalRepaid)},
		{"Maintenance", format.Currency(t.Maintenance)},
		{"Property tax", format.Currency(t.PropertyTax)},
		{"Insurance", format.Currency(t.Insurance)},
		{"Rent", format.Currency(t.Rent)},
		{"Refunds reinvested", format.Currency(t.RefundsReinvested)},
		{"Relocation friction", fmt.Sprintf("%s over %d moves", format.Currency(t.RelocationFriction), t.RelocationEvents)},
		{"Mortgage renewals", strconv.Itoa(t.Renewals)},
	})
}

func (r *pdfReport) addYearTable() {
	r.pdf.AddPage()
	r.drawSectionHeader("Year by year")
	widths := []float64{18, 34, 34, 30, 30, 34}
	r.drawTableHeader([]string{"Year", "House value", "Equity", "Mortgage", "Rent", "Portfolio"}, widths)
	for _, s := range r.result.History {
		if s.Month != constants.MonthsPerYear {
			continue
		}
		r.drawTableRow([]string{
			strconv.Itoa(s.Year),
			format.NumericCurrency(s.HouseValue),
			format.NumericCurrency(s.HouseEquity),
			format.NumericCurrency(s.RemainingPrincipal),
			format.NumericCurrency(s.Rent),
			format.NumericCurrency(s.StockBalance),
		}, widths, false)
	}
}

func (r *pdfReport) addNotes() {
	if len(r.result.Notes) == 0 {
		return
	}
	r.pdf.AddPage()
	r.drawSectionHeader("Notes")
	r.pdf.SetFont("Arial", "", 9)
	r.pdf.SetTextColor(50, 50, 50)
	for _, date := range sortedDates(r.result.Notes) {
		r.pdf.MultiCell(contentWidth, 5, date+"  "+strings.Join(r.result.Notes[date], "; "), "", "L", false)
	}
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 9, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(3)
}

func (r *pdfReport) drawPairs(pairs [][2]string) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	for _, pair := range pairs {
		r.pdf.CellFormat(60, 6, pair[0], "", 0, "L", false, 0, "")
		r.pdf.CellFormat(contentWidth-60, 6, pair[1], "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(3)
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64, bold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)
	if bold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}
	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func relocationText(everyYears int) string {
	if everyYears <= 0 {
		return "never"
	}
	return fmt.Sprintf("every %d years", everyYears)
}
