// Package loader reads the contracts and prices tables from CSV, XLSX or
// Postgres and checks that the required columns are present. Cell values
// are passed through as text; the valuation pipeline casts them.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrMissingColumns is matched by *MissingColumnsError
	ErrMissingColumns = errors.New("missing required columns")

	// ErrUnsupportedFormat is returned for extensions other than .csv/.xlsx/.xlsm
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// MissingColumnsError names the table and the columns that were not found
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) match
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// table is a header row plus data rows
type table struct {
	header []string
	rows   [][]string
}

// readTable dispatches on the file extension
func readTable(path string) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readCSV(f)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readCSV(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return toTable(records), nil
}

// readXLSX reads the first sheet. Raw cell values are used so that numbers
// are not reformatted; date cells are converted from Excel serials by dateText.
func readXLSX(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table{}, nil
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toTable(records), nil
}

func toTable(records [][]string) *table {
	if len(records) == 0 {
		return &table{}
	}
	t := &table{header: records[0]}
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// headerKey folds "Contract_ID", "contract id" and "ContractID" together
func headerKey(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == '_' || r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// columns maps each wanted column to its position; optional columns map to -1
func (t *table) columns(name string, required, optional []string) (map[string]int, error) {
	pos := make(map[string]int, len(t.header))
	for i, h := range t.header {
		k := headerKey(h)
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}

	out := make(map[string]int, len(required)+len(optional))
	var missing []string
	for _, col := range required {
		i, ok := pos[headerKey(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		out[col] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Table: name, Columns: missing}
	}

	for _, col := range optional {
		if i, ok := pos[headerKey(col)]; ok {
			out[col] = i
		} else {
			out[col] = -1
		}
	}
	return out, nil
}

// cell returns the text at column i, "" when the row is short or i < 0
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Excel date serials between 1954 and 2119; wider would catch "202506"-style tenors
const (
	minSerial = 20000
	maxSerial = 80000
)

// dateText turns an Excel date serial into YYYY-MM-DD and passes anything else through
func dateText(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < minSerial || v > maxSerial {
		return raw
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
