// Package valuation runs the per-contract pipeline
// (normalize → classify → validate → resolve → adjust → compute)
// over a whole contract set and aggregates the portfolio total.
package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/mtm-engine/internal/adjust"
	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/pricing"
	"github.com/wonny/mtm-engine/internal/tenor"
	"github.com/wonny/mtm-engine/internal/validation"
	"github.com/wonny/mtm-engine/pkg/logger"
)

// ErrNoValuationDate is returned when Run gets a zero valuation date
var ErrNoValuationDate = errors.New("valuation date is required")

// Recorder observes finished runs (metrics). Optional.
type Recorder interface {
	ObserveRun(rep *contracts.Report, elapsed time.Duration, err error)
}

// Engine is the valuation pipeline.
// ⭐ SSOT: MTM 계산은 이 패키지에서만 수행
//
// An Engine holds no per-run state; Run is a pure function of its
// arguments and is safe to call from several goroutines.
type Engine struct {
	log      *logger.Logger
	recorder Recorder
}

// Option configures an Engine
type Option func(*Engine)

// WithRecorder attaches a run observer
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run values every contract against the price table.
//
// Row-local problems never fail the run; they surface as notes and NaN
// cells. A strict unit or sign policy violation returns a
// *validation.PolicyError and no report.
func (e *Engine) Run(rows []contracts.ContractRow, prices []contracts.PriceRow, valuationDate time.Time, settings mtmconfig.Settings) (*contracts.Report, error) {
	start := time.Now()

	rep, err := e.run(rows, prices, valuationDate, settings)
	if e.recorder != nil {
		e.recorder.ObserveRun(rep, time.Since(start), err)
	}
	if err != nil {
		e.log.WithError(err).Error("valuation aborted")
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"valuation_date": rep.ValuationDate.Format("2006-01-02"),
		"rows":           len(rep.Results),
		"valued":         rep.ValuedCount,
		"skipped":        rep.SkippedCount,
		"total_mtm":      rep.TotalMTM,
	}).Info("valuation complete")

	return rep, nil
}

func (e *Engine) run(rows []contracts.ContractRow, prices []contracts.PriceRow, valuationDate time.Time, settings mtmconfig.Settings) (*contracts.Report, error) {
	if valuationDate.IsZero() {
		return nil, ErrNoValuationDate
	}
	if err := mtmconfig.Validate(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	valDay := tenor.Day(valuationDate)

	// dedup strictly precedes any lookup
	points, stats := pricing.ParseRows(prices)
	points = pricing.Deduplicate(points, settings.DuplicatePriceMethod)
	book := pricing.NewBook(points)

	if stats.Dropped() > 0 {
		e.log.WithFields(map[string]interface{}{
			"dropped":   stats.Dropped(),
			"bad_date":  stats.BadDate,
			"bad_tenor": stats.BadTenor,
			"bad_price": stats.BadPrice,
			"bad_index": stats.BadIndex,
		}).Warn("price rows dropped")
	}
	e.log.Debugf("price book: %d points after dedup (%d parsed)", book.Len(), stats.Parsed)

	dups := validation.DuplicateIDs(rows)

	rep := &contracts.Report{
		ValuationDate:    valDay,
		Results:          make([]contracts.ValuationResult, 0, len(rows)),
		PricePoints:      book.Len(),
		PriceRowsDropped: stats.Dropped(),
	}

	for _, row := range rows {
		res, err := e.valueContract(row, book, valDay, settings, dups)
		if err != nil {
			return nil, err
		}
		for _, n := range res.Notes {
			e.log.WithFields(map[string]interface{}{
				"contract_id": row.ContractID,
				"code":        n.Code,
			}).Warn(n.Message)
		}
		rep.Results = append(rep.Results, res)
	}

	for _, res := range rep.Results {
		if res.Valued() {
			rep.TotalMTM += res.MTMValue
			rep.ValuedCount++
		}
	}
	rep.SkippedCount = len(rep.Results) - rep.ValuedCount

	return rep, nil
}

func (e *Engine) valueContract(row contracts.ContractRow, book *pricing.Book, valDay time.Time, s mtmconfig.Settings, dups map[string]int) (contracts.ValuationResult, error) {
	res := contracts.NewValuationResult(row)
	id := strings.TrimSpace(row.ContractID)

	// V1 normalize
	month, err := tenor.Normalize(row.Tenor)
	if err != nil {
		res.AddNote(contracts.NewNote(
			contracts.StageNormalize, contracts.NoteTenorInvalid, "Tenor",
			"tenor %q could not be parsed; no price resolvable", row.Tenor,
		))
	}
	res.TenorNormalized = month

	// V2 classify
	if month.Valid() {
		res.TenorType = tenor.Classify(month, valDay)
	}

	// V3 validate
	if n, ok := dups[id]; ok {
		res.AddNote(contracts.NewNote(
			contracts.StageValidate, contracts.NoteDuplicateContract, "ContractID",
			"contract id %q appears %d times", id, n,
		))
	}

	fields, notes := validation.CastFields(row)
	res.AddNotes(notes)

	unit, unitOK, notes, err := validation.CheckUnit(id, row.Unit, s.InvalidUnitPolicy)
	if err != nil {
		return res, err
	}
	res.AddNotes(notes)

	notes, err = validation.CheckSigns(id, fields, s.SignPolicy())
	if err != nil {
		return res, err
	}
	res.AddNotes(notes)

	// V4 resolve
	if month.Valid() {
		resolved, notes := book.Resolve(row.BaseIndex, month, res.TenorType, valDay)
		res.AddNotes(notes)
		if resolved.Found {
			res.ResolvedPrice = resolved.Price
			res.PriceDate = resolved.Point.Date
			res.PriceTenor = resolved.Point.Tenor
		}
	}

	// V5 adjust
	ratio, notes := adjust.FeRatio(row.TypicalFe, s.ReferenceFe)
	res.FeRatio = ratio
	res.AddNotes(notes)

	if unitOK {
		dmt, notes := adjust.DryQuantity(unit, fields.Quantity, fields.Moisture, s.DefaultMoisture)
		res.DMTQuantity = dmt
		res.AddNotes(notes)
	}

	// V6 compute
	res.MTMValue = Compute(res.ResolvedPrice, res.FeRatio, fields.Cost.Float(), fields.Discount.Float(), res.DMTQuantity)
	if !res.Valued() {
		res.MTMValue = math.NaN()
		res.AddNote(contracts.NewNote(
			contracts.StageCompute, contracts.NoteMTMNotComputed, "MTMValue",
			"MTM not computed; missing %s", strings.Join(missingInputs(res, fields), ", "),
		))
	}

	return res, nil
}

// Compute applies MTM = (price × feRatio + cost) × discount × dmt.
// NaN in any input propagates to the result.
func Compute(price, feRatio, cost, discount, dmt float64) float64 {
	return (price*feRatio + cost) * discount * dmt
}

func missingInputs(res contracts.ValuationResult, f validation.Fields) []string {
	var missing []string
	if math.IsNaN(res.ResolvedPrice) {
		missing = append(missing, "price")
	}
	if math.IsNaN(res.FeRatio) {
		missing = append(missing, "Fe ratio")
	}
	if !f.Cost.OK() {
		missing = append(missing, "cost")
	}
	if !f.Discount.OK() {
		missing = append(missing, "discount")
	}
	if math.IsNaN(res.DMTQuantity) {
		missing = append(missing, "DMT quantity")
	}
	if len(missing) == 0 {
		missing = append(missing, "finite result")
	}
	return missing
}
