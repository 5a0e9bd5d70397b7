package contracts

import (
	"sort"
	"time"

	"github.com/wonny/mtm-engine/internal/tenor"
)

// PricePoint is one parsed observation for (index, tenor) on a date
type PricePoint struct {
	Index string      `json:"index"`
	Tenor tenor.Month `json:"tenor"`
	Date  time.Time   `json:"date"`
	Price float64     `json:"price"`
}

// PriceSeries is the date-ordered set of points for one (index, tenor).
// After deduplication no two points share a date.
type PriceSeries struct {
	Index  string
	Tenor  tenor.Month
	Points []PricePoint
}

// Sort orders points by observation date ascending
func (s *PriceSeries) Sort() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// Latest returns the point with the maximum observation date
func (s *PriceSeries) Latest() (PricePoint, bool) {
	if s == nil || len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// LatestOnOrBefore returns the latest point with Date <= cutoff
func (s *PriceSeries) LatestOnOrBefore(cutoff time.Time) (PricePoint, bool) {
	if s == nil {
		return PricePoint{}, false
	}
	// Points are sorted; first index with Date > cutoff
	i := sort.Search(len(s.Points), func(i int) bool {
		return s.Points[i].Date.After(cutoff)
	})
	if i == 0 {
		return PricePoint{}, false
	}
	return s.Points[i-1], true
}
