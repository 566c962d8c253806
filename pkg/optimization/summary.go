// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single breakeven search.
type Summary struct {
	Field        string   `json:"field"`
	Value        float64  `json:"value"`
	Low          float64  `json:"low"`
	High         float64  `json:"high"`
	Advantage    float64  `json:"advantage"`
	Iterations   int      `json:"iterations"`
	Converged    bool     `json:"converged"`
	Notes        []string `json:"notes,omitempty"`
	ValueDisplay string   `json:"valueDisplay,omitempty"`
}
