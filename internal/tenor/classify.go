package tenor

import "time"

// Type labels a tenor relative to the valuation month
type Type string

const (
	Past    Type = "past"
	Current Type = "current"
	Future  Type = "future"
)

// String returns the label written to reports
func (t Type) String() string {
	return string(t)
}

// Classify compares the tenor month with the valuation date's month.
// Only the month matters; the valuation day is ignored here.
func Classify(m Month, valuationDate time.Time) Type {
	val := MonthOf(valuationDate).Index()
	switch idx := m.Index(); {
	case idx < val:
		return Past
	case idx == val:
		return Current
	default:
		return Future
	}
}
