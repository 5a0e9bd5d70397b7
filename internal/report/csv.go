package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/numeric"
)

// CSVWriter implements contracts.ReportWriter
type CSVWriter struct{}

// Write implements contracts.ReportWriter
func (CSVWriter) Write(w io.Writer, rep *contracts.Report) error {
	return WriteCSV(w, rep)
}

// WriteCSV writes the header and one row per result
func WriteCSV(w io.Writer, rep *contracts.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rep.Results {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("write row %s: %w", r.Contract.ContractID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is a report row read back from CSV. Numeric cells are NaN when blank.
type Row struct {
	ContractID      string
	TenorNormalized string
	TenorType       string
	FeRatio         float64
	DMTQuantity     float64
	ResolvedPrice   float64
	MTMValue        float64
	MTMPrevValue    float64
	MTMChange       float64
	Notes           string
}

// ReadCSV reads a report written by WriteCSV
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	pos := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		pos[h] = i
	}
	for _, col := range append([]string{"ContractID"}, ResultColumns...) {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("read report: missing column %q", col)
		}
	}

	num := func(rec []string, col string) float64 {
		return numeric.Parse(rec[pos[col]]).Float()
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			ContractID:      rec[pos["ContractID"]],
			TenorNormalized: rec[pos["TenorNormalized"]],
			TenorType:       rec[pos["TenorType"]],
			FeRatio:         num(rec, "FeRatio"),
			DMTQuantity:     num(rec, "DMTQuantity"),
			ResolvedPrice:   num(rec, "ResolvedPrice"),
			MTMValue:        num(rec, "MTMValue"),
			MTMPrevValue:    num(rec, "mtm_prev_value"),
			MTMChange:       num(rec, "mtm_change"),
			Notes:           rec[pos["notes"]],
		})
	}
	return rows, nil
}
