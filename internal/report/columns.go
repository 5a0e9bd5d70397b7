// Package report serializes a valuation report to CSV and XLSX and reads
// the CSV form back for reconciliation.
package report

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/mtm-engine/internal/contracts"
)

// Result columns appended after the contract columns, in output order
var ResultColumns = []string{
	"TenorNormalized",
	"TenorType",
	"FeRatio",
	"DMTQuantity",
	"ResolvedPrice",
	"PriceDate",
	"PriceTenor",
	"MTMValue",
	"notes",
	"mtm_prev_value",
	"mtm_change",
}

// Header returns the full output header
func Header() []string {
	h := make([]string, 0, len(contracts.ContractColumns)+len(ResultColumns))
	h = append(h, contracts.ContractColumns...)
	return append(h, ResultColumns...)
}

// formatFloat writes the shortest exact decimal; NaN/Inf become a blank cell
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).String()
}

// formatMoney rounds to cents for display only
func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// record returns one row in Header() order
func record(r contracts.ValuationResult) []string {
	rec := r.Contract.Values()

	priceDate := ""
	if !r.PriceDate.IsZero() {
		priceDate = r.PriceDate.Format("2006-01-02")
	}

	return append(rec,
		r.TenorNormalized.String(),
		string(r.TenorType),
		formatFloat(r.FeRatio),
		formatFloat(r.DMTQuantity),
		formatFloat(r.ResolvedPrice),
		priceDate,
		r.PriceTenor.String(),
		formatFloat(r.MTMValue),
		r.Notes.String(),
		formatFloat(r.MTMPrevValue),
		formatFloat(r.MTMChange),
	)
}
