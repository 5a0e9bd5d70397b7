package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/mtm-engine/internal/contracts"
)

const (
	resultsSheet = "MTM"
	summarySheet = "Summary"
)

// numeric result columns, written as number cells instead of text
var numericColumns = map[string]bool{
	"FeRatio":        true,
	"DMTQuantity":    true,
	"ResolvedPrice":  true,
	"MTMValue":       true,
	"mtm_prev_value": true,
	"mtm_change":     true,
}

// WriteXLSX writes the results sheet (rows with notes highlighted) and a summary sheet
func WriteXLSX(path string, rep *contracts.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	noteStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
	})
	if err != nil {
		return err
	}

	header := Header()
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &headerCells); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(resultsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range rep.Results {
		rowNum := i + 2
		cells := xlsxCells(header, record(r))

		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(resultsSheet, start, &cells); err != nil {
			return fmt.Errorf("row %d: %w", rowNum, err)
		}
		if len(r.Notes) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(header), rowNum)
			if err := f.SetCellStyle(resultsSheet, start, end, noteStyle); err != nil {
				return err
			}
		}
	}

	if err := writeSummarySheet(f, rep); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// xlsxCells converts text cells to typed values; blank numeric cells stay empty
func xlsxCells(header, rec []string) []interface{} {
	cells := make([]interface{}, len(rec))
	for i, text := range rec {
		cells[i] = text
		if !numericColumns[header[i]] {
			continue
		}
		if text == "" {
			cells[i] = nil
			continue
		}
		if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(v) {
			cells[i] = v
		}
	}
	return cells
}

func writeSummarySheet(f *excelize.File, rep *contracts.Report) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	s := Summarize(rep)
	rows := [][]interface{}{
		{"Valuation date", rep.ValuationDate.Format("2006-01-02")},
		{"Run ID", rep.RunID},
		{"Settings hash", rep.SettingsHash},
		{"Total MTM", s.TotalMTM},
		{"Contracts", s.Contracts},
		{"Valued", s.Valued},
		{"Not valued", s.NotValued},
		{"Rows with notes", s.RowsWithNotes},
		{"Price points", rep.PricePoints},
		{"Price rows dropped", rep.PriceRowsDropped},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
