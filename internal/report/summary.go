package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonny/mtm-engine/internal/contracts"
)

// File names written by Save
const (
	CSVFile  = "mtm_report.csv"
	XLSXFile = "mtm_report.xlsx"
)

// Summary is the portfolio-level view shown next to the preview
type Summary struct {
	TotalMTM      float64                    `json:"total_mtm"`
	Contracts     int                        `json:"contracts"`
	Valued        int                        `json:"valued"`
	NotValued     int                        `json:"not_valued"`
	RowsWithNotes int                        `json:"rows_with_notes"`
	NoteCounts    map[contracts.NoteCode]int `json:"note_counts"`
}

// Summarize computes the summary of a report
func Summarize(rep *contracts.Report) Summary {
	return Summary{
		TotalMTM:      rep.TotalMTM,
		Contracts:     len(rep.Results),
		Valued:        rep.ValuedCount,
		NotValued:     rep.SkippedCount,
		RowsWithNotes: rep.RowsWithNotes(),
		NoteCounts:    rep.NoteCounts(),
	}
}

// WriteSummary prints the console summary
func WriteSummary(w io.Writer, rep *contracts.Report) {
	s := Summarize(rep)

	fmt.Fprintf(w, "  Valuation date : %s\n", rep.ValuationDate.Format("2006-01-02"))
	if rep.RunID != "" {
		fmt.Fprintf(w, "  Run ID         : %s\n", rep.RunID)
	}
	fmt.Fprintf(w, "  Total MTM      : %s\n", formatMoney(s.TotalMTM))
	fmt.Fprintf(w, "  Contracts      : %d (valued %d, not valued %d)\n", s.Contracts, s.Valued, s.NotValued)
	fmt.Fprintf(w, "  Rows with notes: %d\n", s.RowsWithNotes)
	if rep.PriceRowsDropped > 0 {
		fmt.Fprintf(w, "  Price rows dropped: %d\n", rep.PriceRowsDropped)
	}

	codes := make([]string, 0, len(s.NoteCounts))
	for code := range s.NoteCounts {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "    %-24s %d\n", code, s.NoteCounts[contracts.NoteCode(code)])
	}
}

// Save writes mtm_report.csv and mtm_report.xlsx into dir, creating it if needed
func Save(dir string, rep *contracts.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	csvPath := filepath.Join(dir, CSVFile)
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, err
	}
	if err := WriteCSV(f, rep); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	xlsxPath := filepath.Join(dir, XLSXFile)
	if err := WriteXLSX(xlsxPath, rep); err != nil {
		return nil, err
	}

	return []string{csvPath, xlsxPath}, nil
}
