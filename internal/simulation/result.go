package simulation

import (
	"github.com/iwvelando/rent-vs-buy/pkg/events"
)

// Strategy outcomes.
const (
	WinnerBuy  = "buy"
	WinnerRent = "rent"
	WinnerTie  = "tie"
)

// Snapshot is the immutable record of one simulated month.
type Snapshot struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Date    string `json:"date"`
	Elapsed int    `json:"elapsed"`

	HouseValue         float64 `json:"houseValue"`
	HouseEquity        float64 `json:"houseEquity"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
	MortgageRate       float64 `json:"mortgageRate"`

	Payment     float64 `json:"payment"`
	Interest    float64 `json:"interest"`
	Principal   float64 `json:"principal"`
	Maintenance float64 `json:"maintenance"`
	PropertyTax float64 `json:"propertyTax"`
	Insurance   float64 `json:"insurance"`

	Rent             float64 `json:"rent"`
	Contribution     float64 `json:"contribution"`
	RefundReinvested float64 `json:"refundReinvested"`
	Withdrawn        float64 `json:"withdrawn,omitempty"`
	Shortfall        float64 `json:"shortfall,omitempty"`

	TFSA         float64 `json:"tfsa"`
	RRSP         float64 `json:"rrsp"`
	Taxable      float64 `json:"taxable"`
	StockBalance float64 `json:"stockBalance"`
	TFSARoom     float64 `json:"tfsaRoom"`
	RRSPRoom     float64 `json:"rrspRoom"`

	InflationIndex   float64 `json:"inflationIndex"`
	RealHouseEquity  float64 `json:"realHouseEquity"`
	RealStockBalance float64 `json:"realStockBalance"`

	Renewed            bool    `json:"renewed,omitempty"`
	Relocated          bool    `json:"relocated,omitempty"`
	RelocationFriction float64 `json:"relocationFriction,omitempty"`
}

// Totals are the category sums accumulated over a run.
type Totals struct {
	MortgageInterest   float64 `json:"mortgageInterest"`
	PrincipalRepaid    float64 `json:"principalRepaid"`
	Maintenance        float64 `json:"maintenance"`
	PropertyTax        float64 `json:"propertyTax"`
	Insurance          float64 `json:"insurance"`
	Rent               float64 `json:"rent"`
	Contributions      float64 `json:"contributions"`
	RefundsReinvested  float64 `json:"refundsReinvested"`
	ClosingCosts       float64 `json:"closingCosts"`
	SellingCosts       float64 `json:"sellingCosts"`
	RelocationFriction float64 `json:"relocationFriction"`
	RelocationLost     float64 `json:"relocationLost"`
	RelocationEvents   int     `json:"relocationEvents"`
	Renewals           int     `json:"renewals"`
	Fees               float64 `json:"fees"`
	TaxDrag            float64 `json:"taxDrag"`
	Withdrawals        float64 `json:"withdrawals"`
	Shortfall          float64 `json:"shortfall"`
}

// Result is the full outcome of a simulation run. Events lists the
// renewals, refund reinvestments and relocations that took place.
type Result struct {
	RunID   string              `json:"runId"`
	Params  Params              `json:"params"`
	History []Snapshot          `json:"history"`
	Notes   map[string][]string `json:"notes"`
	Events  []events.Occurrence `json:"events"`

	StartHousePrice     float64 `json:"startHousePrice"`
	InitialDownPayment  float64 `json:"initialDownPayment"`
	ClosingCosts        float64 `json:"closingCosts"`
	TotalInitialCapital float64 `json:"totalInitialCapital"`

	FinalHouseValue  float64 `json:"finalHouseValue"`
	FinalHouseEquity float64 `json:"finalHouseEquity"`
	SellingCosts     float64 `json:"sellingCosts"`
	FinalHouseNet    float64 `json:"finalHouseNet"`
	FinalStockGross  float64 `json:"finalStockGross"`
	FinalStockNet    float64 `json:"finalStockNet"`

	InflationIndex float64 `json:"inflationIndex"`
	RealHouseNet   float64 `json:"realHouseNet"`
	RealStockNet   float64 `json:"realStockNet"`

	Totals    Totals  `json:"totals"`
	Winner    string  `json:"winner"`
	Advantage float64 `json:"advantage"`
}

// First returns the first snapshot, or false when the history is empty.
func (r *Result) First() (Snapshot, bool) {
	if len(r.History) == 0 {
		return Snapshot{}, false
	}
	return r.History[0], true
}

// Last returns the final snapshot, or false when the history is empty.
func (r *Result) Last() (Snapshot, bool) {
	if len(r.History) == 0 {
		return Snapshot{}, false
	}
	return r.History[len(r.History)-1], true
}

// Find returns the snapshot for a month label.
func (r *Result) Find(date string) (Snapshot, bool) {
	for _, s := range r.History {
		if s.Date == date {
			return s, true
		}
	}
	return Snapshot{}, false
}
