// Package synthetic generates deterministic contract and price tables that
// exercise every price fallback branch (past, current, later/prior tenor,
// duplicates, gaps, unit and grade variants).
package synthetic

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/tenor"
)

// TenorShifts are the month offsets applied to every base contract
var TenorShifts = []int{-12, -6, -3, 0, 3, 6, 12}

// neighbourShifts are the extra tenors quoted around each base price month
var neighbourShifts = []int{-6, -3, 3, 6}

// quoteDays are the observation days inside a tenor month
var quoteDays = []int{5, 15, 25}

// IndexSpec is one benchmark index and its price level
type IndexSpec struct {
	Name  string
	Level float64
}

// BaseContract is a template row before tenor shifting
type BaseContract struct {
	ID        string
	Index     string
	Tenor     tenor.Month
	Quantity  float64
	Unit      contracts.Unit
	Moisture  float64
	TypicalFe string
	Cost      float64
	Discount  float64
}

// Options controls the generated tables
type Options struct {
	Copies    int            // variants per (base contract, tenor shift)
	Start     tenor.Month    // first month of the base price curve
	Months    int            // length of the base price curve
	Indices   []IndexSpec    // quoted indices
	Base      []BaseContract // template contracts
	Gaps      int            // (index, tenor) pairs removed per index
	Anomalies bool           // inject invalid units, blanks and bad numbers
}

// DefaultOptions returns the options used by `mtm generate`
func DefaultOptions() Options {
	return Options{
		Copies: 3,
		Start:  tenor.Month{Year: 2024, Month: time.January},
		Months: 24,
		Indices: []IndexSpec{
			{Name: "PlattsIO62", Level: 120},
			{Name: "TSI58", Level: 95},
			{Name: "MB65", Level: 140},
		},
		Base: []BaseContract{
			{ID: "C1", Index: "PlattsIO62", Tenor: tenor.Month{Year: 2024, Month: time.June}, Quantity: 100000, Unit: contracts.UnitWMT, Moisture: 0.08, TypicalFe: "62", Cost: 5.0, Discount: 0.98},
			{ID: "C2", Index: "PlattsIO62", Tenor: tenor.Month{Year: 2024, Month: time.December}, Quantity: 80000, Unit: contracts.UnitDMT, TypicalFe: "65", Cost: 4.5, Discount: 1.0},
			{ID: "C3", Index: "TSI58", Tenor: tenor.Month{Year: 2025, Month: time.June}, Quantity: 120000, Unit: contracts.UnitWMT, Moisture: 0.10, TypicalFe: "NoAdj", Cost: 6.0, Discount: 0.95},
			{ID: "C4", Index: "MB65", Tenor: tenor.Month{Year: 2026, Month: time.January}, Quantity: 60000, Unit: contracts.UnitDMT, TypicalFe: "64", Cost: 7.0, Discount: 1.02},
		},
		Gaps: 2,
	}
}

// Generate builds both tables. The same seed and options always give the same rows.
func Generate(seed int64, opts Options) ([]contracts.ContractRow, []contracts.PriceRow) {
	if opts.Copies <= 0 {
		opts.Copies = 1
	}
	rng := rand.New(rand.NewSource(seed))

	rows := mutateContracts(rng, opts)
	prices := expandPrices(rng, opts)
	prices = dropGaps(rng, prices, opts.Gaps)

	if opts.Anomalies {
		injectAnomalies(rng, rows)
	}
	return rows, prices
}

func mutateContracts(rng *rand.Rand, opts Options) []contracts.ContractRow {
	rows := make([]contracts.ContractRow, 0, len(opts.Base)*len(TenorShifts)*opts.Copies)

	for _, base := range opts.Base {
		for _, shift := range TenorShifts {
			m := base.Tenor.AddMonths(shift)

			for i := 0; i < opts.Copies; i++ {
				row := contracts.ContractRow{
					ContractID: fmt.Sprintf("%s_T%+d_v%d", base.ID, shift, i+1),
					BaseIndex:  base.Index,
					Tenor:      m.String(),
					Quantity:   money(base.Quantity * uniform(rng, 0.7, 1.3)),
					TypicalFe:  base.TypicalFe,
				}

				// v1은 base 단위 유지, 나머지는 WMT/DMT 혼합
				switch {
				case i == 0 && base.Unit == contracts.UnitDMT:
					row.Unit = string(contracts.UnitDMT)
					row.Moisture = "0"
				case i == 0 && base.Unit == contracts.UnitWMT:
					row.Unit = string(contracts.UnitWMT)
					row.Moisture = ratio(base.Moisture)
				case rng.Intn(2) == 0:
					row.Unit = string(contracts.UnitWMT)
					row.Moisture = ratio(uniform(rng, 0.05, 0.12))
				default:
					row.Unit = string(contracts.UnitDMT)
					row.Moisture = "0"
				}

				switch rng.Intn(3) {
				case 1:
					row.TypicalFe = "NoAdj"
				case 2:
					row.TypicalFe = ""
				}

				row.Cost = money(base.Cost * uniform(rng, 0.9, 1.1))
				row.Discount = ratio(base.Discount * uniform(rng, 0.95, 1.05))

				rows = append(rows, row)
			}
		}
	}
	return rows
}

func expandPrices(rng *rand.Rand, opts Options) []contracts.PriceRow {
	var rows []contracts.PriceRow

	for _, idx := range opts.Indices {
		for k := 0; k < opts.Months; k++ {
			m := opts.Start.AddMonths(k)
			level := idx.Level * uniform(rng, 0.9, 1.1)

			for _, day := range quoteDays {
				rows = append(rows, priceRow(idx.Name, m, day, level*uniform(rng, 0.98, 1.02)))
			}

			// fallback용 인접 tenor, 같은 날짜 중복 1-2개
			for _, shift := range neighbourShifts {
				nm := m.AddMonths(shift)
				near := level * uniform(rng, 0.9, 1.1)
				copies := 1 + rng.Intn(2)
				for d := 0; d < copies; d++ {
					rows = append(rows, priceRow(idx.Name, nm, 15, near+uniform(rng, -1, 1)))
				}
			}
		}
	}
	return rows
}

// dropGaps removes every quote of n random (index, tenor) pairs per index
func dropGaps(rng *rand.Rand, rows []contracts.PriceRow, n int) []contracts.PriceRow {
	if n <= 0 || len(rows) == 0 {
		return rows
	}

	tenorsByIndex := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, r := range rows {
		key := [2]string{r.Index, r.Tenor}
		if !seen[key] {
			seen[key] = true
			tenorsByIndex[r.Index] = append(tenorsByIndex[r.Index], r.Tenor)
		}
	}

	indices := make([]string, 0, len(tenorsByIndex))
	for idx := range tenorsByIndex {
		indices = append(indices, idx)
	}
	sort.Strings(indices)

	gaps := make(map[[2]string]bool)
	for _, idx := range indices {
		ts := tenorsByIndex[idx]
		sort.Strings(ts)
		// 양 끝은 남겨서 later/prior fallback이 모두 가능하게
		if len(ts) <= 2 {
			continue
		}
		for i := 0; i < n && i < len(ts)-2; i++ {
			gaps[[2]string{idx, ts[1+rng.Intn(len(ts)-2)]}] = true
		}
	}

	out := rows[:0:0]
	for _, r := range rows {
		if !gaps[[2]string{r.Index, r.Tenor}] {
			out = append(out, r)
		}
	}
	return out
}

// injectAnomalies corrupts a few rows so every note path shows up in a run
func injectAnomalies(rng *rand.Rand, rows []contracts.ContractRow) {
	if len(rows) == 0 {
		return
	}
	corrupt := []func(*contracts.ContractRow){
		func(r *contracts.ContractRow) { r.Unit = "MT" },
		func(r *contracts.ContractRow) { r.Quantity = "" },
		func(r *contracts.ContractRow) { r.Cost = "n/a" },
		func(r *contracts.ContractRow) { r.Discount = "-0.5" },
		func(r *contracts.ContractRow) { r.Tenor = "TBD" },
		func(r *contracts.ContractRow) { r.Unit = "WMT"; r.Moisture = "1.4" },
		func(r *contracts.ContractRow) { r.TypicalFe = "high" },
		func(r *contracts.ContractRow) { r.BaseIndex = "UNQUOTED" },
	}
	for _, fn := range corrupt {
		fn(&rows[rng.Intn(len(rows))])
	}
}

func priceRow(index string, m tenor.Month, day int, price float64) contracts.PriceRow {
	date := time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
	return contracts.PriceRow{
		Index: index,
		Date:  date.Format("2006-01-02"),
		Tenor: m.String(),
		Price: money(price),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func ratio(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}
