package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/tenor"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func point(index string, year int, month time.Month, date string, price float64) contracts.PricePoint {
	return contracts.PricePoint{
		Index: index,
		Tenor: tenor.NewMonth(year, month),
		Date:  day(date),
		Price: price,
	}
}

func TestParseRows(t *testing.T) {
	rows := []contracts.PriceRow{
		{Index: "IODEX", Date: "2025-06-05", Tenor: "2025-06", Price: "100"},
		{Index: " IODEX ", Date: "2025-06-06", Tenor: "Jun-25", Price: "1,001.5"},
		{Index: "IODEX", Date: "2025-07-01", Tenor: "", Price: "99"},
		{Index: "", Date: "2025-06-05", Tenor: "2025-06", Price: "1"},
		{Index: "IODEX", Date: "someday", Tenor: "2025-06", Price: "1"},
		{Index: "IODEX", Date: "2025-06-05", Tenor: "soon", Price: "1"},
		{Index: "IODEX", Date: "2025-06-05", Tenor: "2025-06", Price: "n/a"},
		{Index: "IODEX", Date: "13/06/2025", Tenor: "15/06/2025", Price: "101"},
	}

	points, stats := ParseRows(rows)
	require.Len(t, points, 4)

	assert.Equal(t, "IODEX", points[1].Index)
	assert.Equal(t, 1001.5, points[1].Price)
	assert.Equal(t, tenor.NewMonth(2025, time.July), points[2].Tenor)
	assert.Equal(t, tenor.NewMonth(2025, time.June), points[3].Tenor)
	assert.Equal(t, day("2025-06-13"), points[3].Date)

	assert.Equal(t, 8, stats.Rows)
	assert.Equal(t, 4, stats.Parsed)
	assert.Equal(t, 4, stats.Dropped())
	assert.Equal(t, 1, stats.BadIndex)
	assert.Equal(t, 1, stats.BadDate)
	assert.Equal(t, 1, stats.BadTenor)
	assert.Equal(t, 1, stats.BadPrice)
	assert.Equal(t, 1, stats.TenorInfers)
}

func TestDeduplicate(t *testing.T) {
	points := []contracts.PricePoint{
		point("B", 2025, time.June, "2025-06-05", 10),
		point("A", 2025, time.June, "2025-06-05", 100),
		point("A", 2025, time.June, "2025-06-05", 110),
		point("A", 2025, time.June, "2025-06-01", 90),
		point("A", 2025, time.June, "2025-06-05", 120),
	}

	t.Run("mean", func(t *testing.T) {
		out := Deduplicate(points, mtmconfig.DuplicateMean)
		require.Len(t, out, 3)
		assert.Equal(t, "A", out[0].Index)
		assert.Equal(t, 90.0, out[0].Price)
		assert.Equal(t, 110.0, out[1].Price)
		assert.Equal(t, "B", out[2].Index)
	})

	t.Run("last", func(t *testing.T) {
		out := Deduplicate(points, mtmconfig.DuplicateLast)
		require.Len(t, out, 3)
		assert.Equal(t, 120.0, out[1].Price)
	})

	t.Run("same date different time of day", func(t *testing.T) {
		p := point("A", 2025, time.June, "2025-06-05", 100)
		q := p
		q.Date = q.Date.Add(15 * time.Hour)
		q.Price = 200
		out := Deduplicate([]contracts.PricePoint{p, q}, mtmconfig.DuplicateMean)
		require.Len(t, out, 1)
		assert.Equal(t, 150.0, out[0].Price)
	})

	t.Run("last picks the latest quote of the day", func(t *testing.T) {
		rows := []contracts.PriceRow{
			{Index: "IODEX", Date: "2025-06-05 17:30:00", Tenor: "2025-06", Price: "110"},
			{Index: "IODEX", Date: "2025-06-05 09:00:00", Tenor: "2025-06", Price: "100"},
		}
		parsed, _ := ParseRows(rows)

		out := Deduplicate(parsed, mtmconfig.DuplicateLast)
		require.Len(t, out, 1)
		assert.Equal(t, 110.0, out[0].Price)
		assert.Equal(t, day("2025-06-05"), out[0].Date)
	})

	t.Run("last ties keep input order", func(t *testing.T) {
		p := point("A", 2025, time.June, "2025-06-05", 1)
		q := point("A", 2025, time.June, "2025-06-05", 2)
		out := Deduplicate([]contracts.PricePoint{p, q}, mtmconfig.DuplicateLast)
		require.Len(t, out, 1)
		assert.Equal(t, 2.0, out[0].Price)
	})
}

func TestDeduplicate_Idempotent(t *testing.T) {
	points := []contracts.PricePoint{
		point("A", 2025, time.July, "2025-06-05", 7),
		point("A", 2025, time.June, "2025-06-05", 1),
		point("A", 2025, time.June, "2025-06-05", 2),
		point("A", 2025, time.June, "2025-06-05", 4),
		point("C", 2024, time.December, "2024-12-31", 3),
		point("A", 2025, time.June, "2025-06-02", 5),
	}

	for _, method := range []mtmconfig.DuplicateMethod{mtmconfig.DuplicateMean, mtmconfig.DuplicateLast} {
		t.Run(string(method), func(t *testing.T) {
			once := Deduplicate(points, method)
			twice := Deduplicate(once, method)
			assert.Equal(t, once, twice)
		})
	}
}

func fixtureBook() *Book {
	return NewBook(Deduplicate([]contracts.PricePoint{
		point("IODEX", 2025, time.March, "2025-03-10", 80),
		point("IODEX", 2025, time.March, "2025-03-28", 82),
		point("IODEX", 2025, time.June, "2025-06-05", 100),
		point("IODEX", 2025, time.June, "2025-06-25", 110),
		point("IODEX", 2025, time.September, "2025-06-01", 120),
		point("IODEX", 2025, time.September, "2025-06-15", 125),
		point("IODEX", 2025, time.December, "2025-06-10", 130),
		point("MB62", 2025, time.July, "2025-07-02", 90),
	}, mtmconfig.DuplicateMean))
}

func TestBook(t *testing.T) {
	b := fixtureBook()
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, []string{"IODEX", "MB62"}, b.Indices())
	assert.Equal(t, []tenor.Month{
		tenor.NewMonth(2025, time.March),
		tenor.NewMonth(2025, time.June),
		tenor.NewMonth(2025, time.September),
		tenor.NewMonth(2025, time.December),
	}, b.Tenors("IODEX"))
	assert.Nil(t, b.Series("IODEX", tenor.NewMonth(2025, time.April)))
	assert.Nil(t, b.Series("NOPE", tenor.NewMonth(2025, time.June)))
}

func TestResolve(t *testing.T) {
	b := fixtureBook()
	valuation := day("2025-06-20")

	tests := []struct {
		name      string
		index     string
		tenor     tenor.Month
		wantFound bool
		wantPrice float64
		wantTenor tenor.Month
		wantNote  contracts.NoteCode
	}{
		{
			name: "past takes latest of tenor", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.March), wantFound: true,
			wantPrice: 82, wantTenor: tenor.NewMonth(2025, time.March),
		},
		{
			name: "past without data has no cross month fallback", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.April), wantNote: contracts.NotePastTenorNoPrice,
		},
		{
			name: "current excludes future dated point", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.June), wantFound: true,
			wantPrice: 100, wantTenor: tenor.NewMonth(2025, time.June),
		},
		{
			name: "current without data", index: "MB62",
			tenor: tenor.NewMonth(2025, time.June), wantNote: contracts.NoteCurrentTenorNoPrice,
		},
		{
			name: "future exact", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.September), wantFound: true,
			wantPrice: 125, wantTenor: tenor.NewMonth(2025, time.September),
		},
		{
			name: "future prefers nearest later tenor", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.October), wantFound: true,
			wantPrice: 130, wantTenor: tenor.NewMonth(2025, time.December),
			wantNote: contracts.NoteFallbackLaterTenor,
		},
		{
			name: "future later beats closer prior", index: "IODEX",
			tenor: tenor.NewMonth(2025, time.July), wantFound: true,
			wantPrice: 125, wantTenor: tenor.NewMonth(2025, time.September),
			wantNote: contracts.NoteFallbackLaterTenor,
		},
		{
			name: "future falls back to prior", index: "IODEX",
			tenor: tenor.NewMonth(2026, time.March), wantFound: true,
			wantPrice: 130, wantTenor: tenor.NewMonth(2025, time.December),
			wantNote: contracts.NoteFallbackPriorTenor,
		},
		{
			name: "unknown index", index: "NOPE",
			tenor: tenor.NewMonth(2025, time.September), wantNote: contracts.NoteNoPricesForIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := tenor.Classify(tt.tenor, valuation)
			res, notes := b.Resolve(tt.index, tt.tenor, class, valuation)

			assert.Equal(t, tt.wantFound, res.Found)
			if tt.wantFound {
				assert.Equal(t, tt.wantPrice, res.Price)
				assert.Equal(t, tt.wantTenor, res.Point.Tenor)
			} else {
				assert.True(t, math.IsNaN(res.Price))
			}

			if tt.wantNote == "" {
				assert.Empty(t, notes)
			} else {
				require.Len(t, notes, 1)
				assert.Equal(t, tt.wantNote, notes[0].Code)
				assert.Equal(t, contracts.StageResolve, notes[0].Stage)
			}
		})
	}
}

func TestResolve_FallbackNoteNamesTenor(t *testing.T) {
	b := fixtureBook()
	m := tenor.NewMonth(2025, time.October)
	_, notes := b.Resolve("IODEX", m, tenor.Future, day("2025-06-20"))
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "2025-12")
}

func TestResolve_PastIgnoresValuationDay(t *testing.T) {
	b := NewBook([]contracts.PricePoint{
		point("IODEX", 2025, time.May, "2025-05-20", 95),
		point("IODEX", 2025, time.May, "2025-06-25", 97),
		point("IODEX", 2025, time.May, "2025-07-02", 99),
	})
	m := tenor.NewMonth(2025, time.May)

	// a late-June settlement is still within the valuation month
	res, notes := b.Resolve("IODEX", m, tenor.Past, day("2025-06-03"))
	require.True(t, res.Found)
	assert.Empty(t, notes)
	assert.Equal(t, 97.0, res.Price)
	assert.False(t, res.Point.Date.After(tenor.NewMonth(2025, time.June).LastDay()))
}

func TestResolve_CurrentNeverUsesFutureDate(t *testing.T) {
	b := NewBook([]contracts.PricePoint{
		point("IODEX", 2025, time.June, "2025-06-25", 110),
	})
	valuation := day("2025-06-20")
	m := tenor.NewMonth(2025, time.June)

	res, notes := b.Resolve("IODEX", m, tenor.Current, valuation)
	assert.False(t, res.Found)
	require.Len(t, notes, 1)
	assert.Equal(t, contracts.NoteCurrentTenorNoPrice, notes[0].Code)
	assert.Contains(t, notes[0].Message, "after 2025-06-20")
}

func TestResolve_InvalidTenor(t *testing.T) {
	b := fixtureBook()
	res, notes := b.Resolve("IODEX", tenor.Invalid, "", day("2025-06-20"))
	assert.False(t, res.Found)
	assert.Empty(t, notes)
}
