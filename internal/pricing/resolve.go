package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/tenor"
)

// Resolution is the outcome of one lookup.
// Found is false when no price applies; Price is NaN then.
type Resolution struct {
	Found bool
	Price float64
	Point contracts.PricePoint
}

func none() Resolution {
	return Resolution{Price: math.NaN()}
}

func found(p contracts.PricePoint) Resolution {
	return Resolution{Found: true, Price: p.Price, Point: p}
}

// Resolve selects the price for a contract tenor.
//
//	past:    latest point of the exact tenor dated within the valuation month or earlier
//	current: latest point of the exact tenor dated on or before the valuation date
//	future:  exact tenor's latest point, else nearest later tenor, else nearest prior tenor
//
// Past and current never fall back to another tenor. Resolve never fails
// with an error; a missing price is a Resolution with Found == false plus notes.
func (b *Book) Resolve(index string, m tenor.Month, class tenor.Type, valuationDate time.Time) (Resolution, []contracts.Note) {
	index = strings.TrimSpace(index)
	if !m.Valid() {
		return none(), nil
	}

	if len(b.Tenors(index)) == 0 {
		return none(), []contracts.Note{contracts.NewNote(
			contracts.StageResolve, contracts.NoteNoPricesForIndex, "BaseIndex",
			"no prices for index %q", index,
		)}
	}

	valDay := tenor.Day(valuationDate)
	series := b.Series(index, m)

	switch class {
	case tenor.Past:
		// tenor month has elapsed; cap at the valuation month end
		cutoff := tenor.MonthOf(valDay).LastDay()
		if p, ok := series.LatestOnOrBefore(cutoff); ok {
			return found(p), nil
		}
		return none(), []contracts.Note{contracts.NewNote(
			contracts.StageResolve, contracts.NotePastTenorNoPrice, "Tenor",
			"no price for past tenor %s of %q", m, index,
		)}

	case tenor.Current:
		if p, ok := series.LatestOnOrBefore(valDay); ok {
			return found(p), nil
		}
		if _, later := series.Latest(); later {
			return none(), []contracts.Note{contracts.NewNote(
				contracts.StageResolve, contracts.NoteCurrentTenorNoPrice, "Tenor",
				"tenor %s of %q only has prices dated after %s",
				m, index, valDay.Format("2006-01-02"),
			)}
		}
		return none(), []contracts.Note{contracts.NewNote(
			contracts.StageResolve, contracts.NoteCurrentTenorNoPrice, "Tenor",
			"no price for current tenor %s of %q", m, index,
		)}

	default:
		return b.resolveFuture(index, m, series)
	}
}

func (b *Book) resolveFuture(index string, m tenor.Month, exact *contracts.PriceSeries) (Resolution, []contracts.Note) {
	if p, ok := exact.Latest(); ok {
		return found(p), nil
	}

	if next, ok := b.nextAfter(index, m); ok {
		p, _ := b.Series(index, next).Latest()
		return found(p), []contracts.Note{contracts.NewNote(
			contracts.StageResolve, contracts.NoteFallbackLaterTenor, "Tenor",
			"no price for tenor %s; used later tenor %s", m, next,
		)}
	}

	if prev, ok := b.prevBefore(index, m); ok {
		p, _ := b.Series(index, prev).Latest()
		return found(p), []contracts.Note{contracts.NewNote(
			contracts.StageResolve, contracts.NoteFallbackPriorTenor, "Tenor",
			"no price for tenor %s or any later tenor; used prior tenor %s", m, prev,
		)}
	}

	// unreachable while the index has at least one tenor
	return none(), []contracts.Note{contracts.NewNote(
		contracts.StageResolve, contracts.NoteNoPricesForIndex, "BaseIndex",
		"no prices for index %q", index,
	)}
}
