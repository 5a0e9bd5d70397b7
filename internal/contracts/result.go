package contracts

import (
	"encoding/json"
	"math"
	"time"

	"github.com/wonny/mtm-engine/internal/tenor"
)

// ValuationResult is the appended result record for one contract.
// Float fields are NaN when the value could not be determined.
type ValuationResult struct {
	Contract ContractRow

	TenorNormalized tenor.Month
	TenorType       tenor.Type // "" when the tenor is invalid
	FeRatio         float64
	DMTQuantity     float64
	ResolvedPrice   float64
	PriceDate       time.Time   // zero when no price was resolved
	PriceTenor      tenor.Month // tenor actually used (differs after a fallback)
	MTMValue        float64

	// Reserved for period-over-period comparison; NaN in the baseline
	MTMPrevValue float64
	MTMChange    float64

	Notes Notes
}

// NewValuationResult returns a result with every numeric field set to NaN
func NewValuationResult(c ContractRow) ValuationResult {
	nan := math.NaN()
	return ValuationResult{
		Contract:      c,
		FeRatio:       nan,
		DMTQuantity:   nan,
		ResolvedPrice: nan,
		MTMValue:      nan,
		MTMPrevValue:  nan,
		MTMChange:     nan,
	}
}

// Valued reports whether the row contributes to the portfolio total
func (r ValuationResult) Valued() bool {
	return !math.IsNaN(r.MTMValue) && !math.IsInf(r.MTMValue, 0)
}

// AddNote appends a note
func (r *ValuationResult) AddNote(n Note) {
	r.Notes = append(r.Notes, n)
}

// AddNotes appends notes in order
func (r *ValuationResult) AddNotes(ns []Note) {
	r.Notes = append(r.Notes, ns...)
}

type resultJSON struct {
	ContractRow
	TenorNormalized string   `json:"TenorNormalized"`
	TenorType       string   `json:"TenorType"`
	FeRatio         *float64 `json:"FeRatio"`
	DMTQuantity     *float64 `json:"DMTQuantity"`
	ResolvedPrice   *float64 `json:"ResolvedPrice"`
	PriceDate       string   `json:"PriceDate"`
	PriceTenor      string   `json:"PriceTenor"`
	MTMValue        *float64 `json:"MTMValue"`
	Notes           Notes    `json:"notes"`
	MTMPrevValue    *float64 `json:"mtm_prev_value"`
	MTMChange       *float64 `json:"mtm_change"`
}

// MarshalJSON writes NaN as null (encoding/json rejects NaN)
func (r ValuationResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		ContractRow:     r.Contract,
		TenorNormalized: r.TenorNormalized.String(),
		TenorType:       string(r.TenorType),
		FeRatio:         nullable(r.FeRatio),
		DMTQuantity:     nullable(r.DMTQuantity),
		ResolvedPrice:   nullable(r.ResolvedPrice),
		PriceTenor:      r.PriceTenor.String(),
		MTMValue:        nullable(r.MTMValue),
		Notes:           r.Notes,
		MTMPrevValue:    nullable(r.MTMPrevValue),
		MTMChange:       nullable(r.MTMChange),
	}
	if !r.PriceDate.IsZero() {
		out.PriceDate = r.PriceDate.Format("2006-01-02")
	}
	if out.Notes == nil {
		out.Notes = Notes{}
	}
	return json.Marshal(out)
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Report is the output of one valuation run
type Report struct {
	RunID         string            `json:"run_id,omitempty"`
	SettingsHash  string            `json:"settings_hash,omitempty"`
	ValuationDate time.Time         `json:"valuation_date"`
	Results       []ValuationResult `json:"results"`
	TotalMTM      float64           `json:"total_mtm"`
	ValuedCount   int               `json:"valued_count"`
	SkippedCount  int               `json:"skipped_count"`

	// price table preprocessing
	PricePoints      int `json:"price_points"`
	PriceRowsDropped int `json:"price_rows_dropped"`
}

// RowsWithNotes counts rows that carry at least one note
func (r *Report) RowsWithNotes() int {
	n := 0
	for _, res := range r.Results {
		if len(res.Notes) > 0 {
			n++
		}
	}
	return n
}

// NoteCounts tallies notes by code across all rows
func (r *Report) NoteCounts() map[NoteCode]int {
	counts := make(map[NoteCode]int)
	for _, res := range r.Results {
		for _, n := range res.Notes {
			counts[n.Code]++
		}
	}
	return counts
}
