// Package pricing turns raw price rows into a deduplicated price book and
// resolves the single applicable price for a contract tenor.
package pricing

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/numeric"
	"github.com/wonny/mtm-engine/internal/tenor"
)

// ParseStats counts what happened to the raw rows
type ParseStats struct {
	Rows        int `json:"rows"`
	Parsed      int `json:"parsed"`
	BadIndex    int `json:"bad_index"`
	BadDate     int `json:"bad_date"`
	BadTenor    int `json:"bad_tenor"`
	BadPrice    int `json:"bad_price"`
	TenorInfers int `json:"tenor_inferred"` // blank Tenor cell, month taken from Date
}

// Dropped returns the number of rows that did not become a point
func (s ParseStats) Dropped() int {
	return s.Rows - s.Parsed
}

// ParseRows casts raw price rows to points, preserving input order.
// Date keeps the time of day; Deduplicate truncates it.
// Rows with no index, an unparseable date, tenor or price are dropped and counted.
func ParseRows(rows []contracts.PriceRow) ([]contracts.PricePoint, ParseStats) {
	stats := ParseStats{Rows: len(rows)}
	points := make([]contracts.PricePoint, 0, len(rows))

	for _, row := range rows {
		index := strings.TrimSpace(row.Index)
		if index == "" {
			stats.BadIndex++
			continue
		}

		date, err := tenor.ParseTimestamp(row.Date)
		if err != nil {
			stats.BadDate++
			continue
		}

		var month tenor.Month
		if strings.TrimSpace(row.Tenor) == "" {
			month = tenor.MonthOf(date)
			stats.TenorInfers++
		} else {
			month, err = tenor.Normalize(row.Tenor)
			if err != nil {
				stats.BadTenor++
				continue
			}
		}

		price := numeric.Parse(row.Price)
		if !price.OK() {
			stats.BadPrice++
			continue
		}

		points = append(points, contracts.PricePoint{
			Index: index,
			Tenor: month,
			Date:  date,
			Price: price.Value,
		})
	}

	stats.Parsed = len(points)
	return points, stats
}

type dedupKey struct {
	index string
	tenor int
	date  time.Time
}

// Deduplicate collapses points sharing (index, tenor, date) into one.
//
//	mean: arithmetic mean of the group
//	last: the group's latest timestamp, input order breaking ties
//
// The output is sorted by (index, tenor, date), so applying Deduplicate to
// its own output returns the same slice contents.
func Deduplicate(points []contracts.PricePoint, method mtmconfig.DuplicateMethod) []contracts.PricePoint {
	type group struct {
		point contracts.PricePoint
		at    time.Time
		sum   float64
		count int
	}

	groups := make(map[dedupKey]*group, len(points))
	order := make([]dedupKey, 0, len(points))

	for _, p := range points {
		day := tenor.Day(p.Date)
		k := dedupKey{index: p.Index, tenor: p.Tenor.Index(), date: day}

		g, ok := groups[k]
		if !ok {
			g = &group{at: p.Date}
			groups[k] = g
			order = append(order, k)
		}
		if !p.Date.Before(g.at) {
			g.point = p
			g.at = p.Date
		}
		g.sum += p.Price
		g.count++
	}

	out := make([]contracts.PricePoint, 0, len(order))
	for _, k := range order {
		g := groups[k]
		p := g.point
		p.Date = tenor.Day(p.Date)
		if method != mtmconfig.DuplicateLast {
			p.Price = g.sum / float64(g.count)
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.Tenor != b.Tenor {
			return a.Tenor.Before(b.Tenor)
		}
		return a.Date.Before(b.Date)
	})
	return out
}
