package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/mtm-engine/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// RunMetadata holds the header fields of a valuation run
type RunMetadata struct {
	Title         string
	RunID         string
	ValuationDate string
	Source        string
	Settings      string // path or "(defaults)"
	SettingsHash  string
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(meta RunMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.Title)
	PrintSeparator()
	fmt.Printf("  Run ID    : %s\n", meta.RunID)
	fmt.Printf("  Val. date : %s\n", meta.ValuationDate)
	fmt.Printf("  Source    : %s\n", meta.Source)
	fmt.Printf("  Settings  : %s\n", meta.Settings)
	if meta.SettingsHash != "" {
		fmt.Printf("  Hash      : %s\n", shortHash(meta.SettingsHash))
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		if len(val) > widths[i] {
			val = val[:widths[i]-1] + "…"
		}
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

var previewColumns = []string{"ContractID", "Tenor", "Type", "Price", "PriceTenor", "MTM", "Notes"}
var previewWidths = []int{16, 8, 8, 10, 10, 16, 40}

// PrintPreview prints the first n result rows (all when n < 0)
func PrintPreview(rep *contracts.Report, n int) {
	rows := rep.Results
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	if len(rows) == 0 {
		return
	}

	fmt.Println()
	PrintTableHeader(previewColumns, previewWidths)
	for _, r := range rows {
		PrintTableRow([]string{
			r.Contract.ContractID,
			r.TenorNormalized.String(),
			string(r.TenorType),
			fixed(r.ResolvedPrice, 2),
			priceTenor(r),
			fixed(r.MTMValue, 2),
			strings.Join(codes(r.Notes), ","),
		}, previewWidths)
	}
	if len(rows) < len(rep.Results) {
		fmt.Printf("   … %d more rows\n", len(rep.Results)-len(rows))
	}
}

func priceTenor(r contracts.ValuationResult) string {
	if !r.PriceTenor.Valid() {
		return "-"
	}
	return r.PriceTenor.String()
}

func codes(notes contracts.Notes) []string {
	out := make([]string, 0, len(notes))
	for _, c := range notes.Codes() {
		out = append(out, string(c))
	}
	return out
}

func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
