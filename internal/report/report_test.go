package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/valuation"
)

func sampleReport(t *testing.T) *contracts.Report {
	t.Helper()

	rows := []contracts.ContractRow{
		{ContractID: "C-001", BaseIndex: "IODEX", Tenor: "2025-06", Quantity: "1000", Unit: "WMT",
			Moisture: "0.08", TypicalFe: "58", Cost: "2", Discount: "0.95"},
		{ContractID: "C-002", BaseIndex: "IODEX", Tenor: "2025-10", Quantity: "333.3", Unit: "DMT",
			TypicalFe: "63.7", Cost: "1.1", Discount: "0.97"},
		{ContractID: "C-003", BaseIndex: "IODEX", Tenor: "2025-06", Quantity: "1000", Unit: "XYZ",
			TypicalFe: "NoAdj", Cost: "2", Discount: "0.95"},
	}
	prices := []contracts.PriceRow{
		{Index: "IODEX", Date: "2025-06-05", Tenor: "2025-06", Price: "100.17"},
		{Index: "IODEX", Date: "2025-06-25", Tenor: "2025-06", Price: "110"},
		{Index: "IODEX", Date: "2025-06-10", Tenor: "2025-12", Price: "97.3"},
	}

	rep, err := valuation.NewEngine(nil).Run(rows, prices,
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), mtmconfig.Defaults())
	require.NoError(t, err)
	rep.RunID = "run-1"
	return rep
}

func assertFloat(t *testing.T, want, got float64, msg string) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), msg)
		return
	}
	assert.InDelta(t, want, got, 1e-9, msg)
}

func TestHeader(t *testing.T) {
	h := Header()
	assert.Equal(t, "ContractID", h[0])
	assert.Equal(t, "mtm_change", h[len(h)-1])
	assert.Len(t, h, len(contracts.ContractColumns)+len(ResultColumns))
}

func TestCSVRoundTrip(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rep))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(rep.Results))

	for i, want := range rep.Results {
		got := rows[i]
		id := want.Contract.ContractID
		assert.Equal(t, id, got.ContractID)
		assert.Equal(t, want.TenorNormalized.String(), got.TenorNormalized)
		assert.Equal(t, string(want.TenorType), got.TenorType)
		assertFloat(t, want.FeRatio, got.FeRatio, id+" FeRatio")
		assertFloat(t, want.DMTQuantity, got.DMTQuantity, id+" DMTQuantity")
		assertFloat(t, want.ResolvedPrice, got.ResolvedPrice, id+" ResolvedPrice")
		assertFloat(t, want.MTMValue, got.MTMValue, id+" MTMValue")
		assertFloat(t, want.MTMPrevValue, got.MTMPrevValue, id+" mtm_prev_value")
		assertFloat(t, want.MTMChange, got.MTMChange, id+" mtm_change")
		assert.Equal(t, want.Notes.String(), got.Notes)
	}
}

func TestWriteCSV_Cells(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, CSVWriter{}.Write(&buf, rep))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ContractID,BaseIndex,"))
	// NaN cells are blank, never "NaN"
	assert.NotContains(t, buf.String(), "NaN")
	assert.Contains(t, lines[2], "FALLBACK_LATER_TENOR")
	assert.Contains(t, lines[2], "2025-12")
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("ContractID,MTMValue\nC1,1\n"))
	assert.Error(t, err)

	rows, err := ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteXLSX(t *testing.T) {
	rep := sampleReport(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{resultsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(resultsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 1+len(rep.Results))
	assert.Equal(t, Header(), rows[0])

	mtmCol := len(contracts.ContractColumns) + 7
	got, err := f.GetCellValue(resultsSheet, cellName(mtmCol, 2), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// invalid unit row has a blank MTM cell
	got, err = f.GetCellValue(resultsSheet, cellName(mtmCol, 4))
	require.NoError(t, err)
	assert.Empty(t, got)

	total, err := f.GetCellValue(summarySheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Total MTM", total)
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		panic(err)
	}
	return name
}

func TestSave(t *testing.T) {
	rep := sampleReport(t)
	dir := filepath.Join(t.TempDir(), "out", "2025-06-20")

	paths, err := Save(dir, rep)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, CSVFile), paths[0])
	assert.Equal(t, filepath.Join(dir, XLSXFile), paths[1])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSummary(t *testing.T) {
	rep := sampleReport(t)

	s := Summarize(rep)
	assert.Equal(t, 3, s.Contracts)
	assert.Equal(t, 2, s.Valued)
	assert.Equal(t, 1, s.NotValued)
	assert.Equal(t, 2, s.RowsWithNotes)
	assert.Equal(t, 1, s.NoteCounts[contracts.NoteUnitInvalid])

	var buf bytes.Buffer
	WriteSummary(&buf, rep)
	out := buf.String()
	assert.Contains(t, out, "2025-06-20")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "valued 2, not valued 1")
	assert.Contains(t, out, "UNIT_INVALID")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", formatFloat(math.NaN()))
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "83509.29", formatMoney(83509.2903))
	assert.Equal(t, "n/a", formatMoney(math.Inf(1)))
}
