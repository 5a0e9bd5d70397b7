// Package numeric casts spreadsheet cells to numbers without ever failing.
//
// A cell is either present (parsed), missing (blank / NaN marker) or
// unparseable. Callers can tell the last two apart, which a bare NaN
// would hide.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// State describes the outcome of a tolerant cast
type State int

const (
	Missing State = iota
	Present
	Unparseable
)

// String returns the state name used in notes and logs
func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Unparseable:
		return "unparseable"
	default:
		return "missing"
	}
}

// Number is the result of a tolerant cast. Raw keeps the original cell text.
type Number struct {
	Value float64
	State State
	Raw   string
}

// missingMarkers are cell values the upstream exports use for "no value"
var missingMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"n/a":  {},
	"na":   {},
	"-":    {},
}

// Parse casts raw cell text to a Number.
// Thousands separators and surrounding whitespace are tolerated.
func Parse(raw string) Number {
	text := strings.TrimSpace(raw)
	if _, ok := missingMarkers[strings.ToLower(text)]; ok {
		return Number{Value: math.NaN(), State: Missing, Raw: raw}
	}

	cleaned := strings.ReplaceAll(text, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Value: math.NaN(), State: Unparseable, Raw: raw}
	}

	return Number{Value: v, State: Present, Raw: raw}
}

// ParsePercent behaves like Parse but also accepts a trailing '%' (e.g. "62%").
// The value is NOT divided by 100: "62%" means 62.
func ParsePercent(raw string) Number {
	text := strings.TrimSpace(raw)
	if strings.HasSuffix(text, "%") {
		n := Parse(strings.TrimSpace(strings.TrimSuffix(text, "%")))
		n.Raw = raw
		return n
	}
	return Parse(raw)
}

// Of wraps an already-typed value (used by non-text sources such as JSON)
func Of(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Value: math.NaN(), State: Missing}
	}
	return Number{Value: v, State: Present, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// OK reports whether the number holds a usable value
func (n Number) OK() bool {
	return n.State == Present
}

// Float returns the value, or NaN when the number is not present
func (n Number) Float() float64 {
	if n.State != Present {
		return math.NaN()
	}
	return n.Value
}
