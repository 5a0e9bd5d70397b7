package pricing

import (
	"sort"
	"strings"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/tenor"
)

// Book indexes deduplicated points as index → tenor → series.
// A Book is read-only after NewBook returns.
type Book struct {
	series map[string]map[tenor.Month]*contracts.PriceSeries
	tenors map[string][]tenor.Month // ascending, per index
	size   int
}

// NewBook builds a Book. Points must already be deduplicated.
func NewBook(points []contracts.PricePoint) *Book {
	b := &Book{
		series: make(map[string]map[tenor.Month]*contracts.PriceSeries),
		tenors: make(map[string][]tenor.Month),
		size:   len(points),
	}

	for _, p := range points {
		byTenor, ok := b.series[p.Index]
		if !ok {
			byTenor = make(map[tenor.Month]*contracts.PriceSeries)
			b.series[p.Index] = byTenor
		}
		s, ok := byTenor[p.Tenor]
		if !ok {
			s = &contracts.PriceSeries{Index: p.Index, Tenor: p.Tenor}
			byTenor[p.Tenor] = s
			b.tenors[p.Index] = append(b.tenors[p.Index], p.Tenor)
		}
		s.Points = append(s.Points, p)
	}

	for index, byTenor := range b.series {
		for _, s := range byTenor {
			s.Sort()
		}
		months := b.tenors[index]
		sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	}
	return b
}

// Len returns the number of points in the book
func (b *Book) Len() int {
	return b.size
}

// Indices returns the index names, sorted
func (b *Book) Indices() []string {
	out := make([]string, 0, len(b.series))
	for index := range b.series {
		out = append(out, index)
	}
	sort.Strings(out)
	return out
}

// Series returns the series for (index, tenor), or nil
func (b *Book) Series(index string, m tenor.Month) *contracts.PriceSeries {
	byTenor, ok := b.series[strings.TrimSpace(index)]
	if !ok {
		return nil
	}
	return byTenor[m]
}

// Tenors returns the tenors with data for index, ascending
func (b *Book) Tenors(index string) []tenor.Month {
	return b.tenors[strings.TrimSpace(index)]
}

// nextAfter returns the nearest tenor strictly after m
func (b *Book) nextAfter(index string, m tenor.Month) (tenor.Month, bool) {
	months := b.Tenors(index)
	i := sort.Search(len(months), func(i int) bool { return months[i].After(m) })
	if i == len(months) {
		return tenor.Invalid, false
	}
	return months[i], true
}

// prevBefore returns the nearest tenor strictly before m
func (b *Book) prevBefore(index string, m tenor.Month) (tenor.Month, bool) {
	months := b.Tenors(index)
	i := sort.Search(len(months), func(i int) bool { return !months[i].Before(m) })
	if i == 0 {
		return tenor.Invalid, false
	}
	return months[i-1], true
}
