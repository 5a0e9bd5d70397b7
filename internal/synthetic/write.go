package synthetic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/mtm-engine/internal/contracts"
)

// File names written by WriteFiles (extension added per format)
const (
	ContractsFile = "Contracts_synthetic"
	PricesFile    = "Prices_synthetic"
)

var priceColumns = []string{"Index", "Date", "Tenor", "Price"}

// WriteContractsCSV writes the contracts table with its canonical header
func WriteContractsCSV(w io.Writer, rows []contracts.ContractRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Values())
	}
	return writeCSV(w, contracts.ContractColumns, records)
}

// WritePricesCSV writes the prices table
func WritePricesCSV(w io.Writer, rows []contracts.PriceRow) error {
	return writeCSV(w, priceColumns, priceRecords(rows))
}

// WriteFiles writes both tables into dir as "csv" or "xlsx" and returns their paths
func WriteFiles(dir, format string, rows []contracts.ContractRow, prices []contracts.PriceRow) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format != "csv" && format != "xlsx" {
		return "", "", fmt.Errorf("unsupported format %q (csv, xlsx)", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create data dir: %w", err)
	}

	cPath := filepath.Join(dir, ContractsFile+"."+format)
	pPath := filepath.Join(dir, PricesFile+"."+format)

	contractRecords := make([][]string, 0, len(rows))
	for _, r := range rows {
		contractRecords = append(contractRecords, r.Values())
	}

	write := writeCSVFile
	if format == "xlsx" {
		write = writeXLSXFile
	}
	if err := write(cPath, contracts.ContractColumns, contractRecords); err != nil {
		return "", "", err
	}
	if err := write(pPath, priceColumns, priceRecords(prices)); err != nil {
		return "", "", err
	}
	return cPath, pPath, nil
}

func priceRecords(rows []contracts.PriceRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Index, r.Date, r.Tenor, r.Price})
	}
	return records
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func writeCSVFile(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCSV(f, header, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writeXLSXFile writes every cell as text so the loader sees exactly what the CSV would carry
func writeXLSXFile(path string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return err
	}

	for n, rec := range records {
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
