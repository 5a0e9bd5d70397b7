// Package tenor normalizes delivery-period text to a year-month key and
// classifies it against a valuation date.
package tenor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidTenor is returned when tenor text cannot be normalized
var ErrInvalidTenor = errors.New("invalid tenor")

// Month is a canonical year-month key (e.g. 2025-06).
// The zero value is the "invalid tenor" sentinel.
type Month struct {
	Year  int
	Month time.Month
}

// Invalid is the sentinel returned for unparseable tenors
var Invalid = Month{}

// NewMonth builds a Month from year and month
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf truncates a date to its month
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Valid reports whether m is a real month (not the sentinel)
func (m Month) Valid() bool {
	return m.Year > 0 && m.Month >= time.January && m.Month <= time.December
}

// Index returns the integer month index used for ordering and distance
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

// Distance returns the number of months from m to other (other - m)
func (m Month) Distance(other Month) int {
	return other.Index() - m.Index()
}

// Before reports whether m is strictly earlier than other
func (m Month) Before(other Month) bool {
	return m.Index() < other.Index()
}

// After reports whether m is strictly later than other
func (m Month) After(other Month) bool {
	return m.Index() > other.Index()
}

// AddMonths shifts m by n months (n may be negative)
func (m Month) AddMonths(n int) Month {
	idx := m.Index() + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// FirstDay returns the first calendar day of the month (UTC)
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the month (UTC)
func (m Month) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// String formats the key as YYYY-MM, or "" for the sentinel
func (m Month) String() string {
	if !m.Valid() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Month) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = Invalid
		return nil
	}
	parsed, err := Normalize(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var (
	yearMonthRe = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})[-/.](\d{4})$`)
	compactRe   = regexp.MustCompile(`^(\d{4})(\d{2})$`)
	namedRe     = regexp.MustCompile(`^([A-Za-z]{3,9})\.?[-\s/']*(\d{2}|\d{4})$`)
	yearOnlyRe  = regexp.MustCompile(`^\d{4}$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// Normalize converts date-like tenor text to a Month.
//
// Exact year-month patterns are tried first ("2025-06", "06/2025",
// "202506", "Jan-25", "June 2025"), then general date parsing truncated to
// the month ("2025-01-15", "15 Jan 2025", "15/06/2025"). A bare year is
// rejected. On failure it returns Invalid and
// an error wrapping ErrInvalidTenor; it never panics.
func Normalize(raw string) (Month, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Invalid, fmt.Errorf("%w: empty", ErrInvalidTenor)
	}

	if m, ok := parseYearMonth(text); ok {
		return m, nil
	}
	// 연도만 있으면 월을 알 수 없음
	if yearOnlyRe.MatchString(text) {
		return Invalid, fmt.Errorf("%w: %q has no month", ErrInvalidTenor, raw)
	}

	t, err := ParseDate(text)
	if err != nil {
		return Invalid, fmt.Errorf("%w: %q", ErrInvalidTenor, raw)
	}
	return MonthOf(t), nil
}

func parseYearMonth(text string) (Month, bool) {
	if g := yearMonthRe.FindStringSubmatch(text); g != nil {
		return build(g[1], g[2])
	}
	if g := monthYearRe.FindStringSubmatch(text); g != nil {
		return build(g[2], g[1])
	}
	if g := compactRe.FindStringSubmatch(text); g != nil {
		return build(g[1], g[2])
	}
	if g := namedRe.FindStringSubmatch(text); g != nil {
		name := strings.ToLower(g[1])
		month, ok := monthNames[name]
		if !ok && len(name) > 3 {
			month, ok = monthNames[name[:3]]
			if ok && !strings.HasPrefix(strings.ToLower(month.String()), name) {
				ok = false
			}
		}
		if !ok {
			return Invalid, false
		}
		year, _ := strconv.Atoi(g[2])
		if len(g[2]) == 2 {
			year += 2000
		}
		m := Month{Year: year, Month: month}
		return m, m.Valid()
	}
	return Invalid, false
}

func build(yearText, monthText string) (Month, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return Invalid, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return Invalid, false
	}
	return Month{Year: year, Month: time.Month(month)}, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses an observation or valuation date and truncates it to
// midnight UTC. Well-known layouts are tried before free-form parsing.
func ParseDate(raw string) (time.Time, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// ParseTimestamp parses date text keeping the time of day.
// Slash dates are read month-first; a first field above 12 is read as the day.
func ParseTimestamp(raw string) (time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseAny(text, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// Day truncates t to its calendar day at midnight UTC
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
