// Package adjust computes the quality (Fe) ratio and the wet-to-dry
// quantity conversion for a contract.
package adjust

import (
	"math"
	"strings"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/numeric"
)

// NoAdjustment is the TypicalFe sentinel meaning "ratio = 1.0"
const NoAdjustment = "NoAdj"

// FeRatio returns content / reference for a TypicalFe cell.
//
// Blank cells and the NoAdj sentinel (any case) give 1.0. A value that
// fails the numeric cast also gives 1.0, with a note.
func FeRatio(raw string, reference float64) (float64, []contracts.Note) {
	text := strings.TrimSpace(raw)
	if strings.EqualFold(text, NoAdjustment) {
		return 1.0, nil
	}

	n := numeric.ParsePercent(text)
	switch n.State {
	case numeric.Missing:
		return 1.0, nil
	case numeric.Unparseable:
		return 1.0, []contracts.Note{contracts.NewNote(
			contracts.StageAdjust, contracts.NoteFeUnparseable, "TypicalFe",
			"TypicalFe %q is not numeric; Fe ratio defaulted to 1.0", raw,
		)}
	}

	return n.Value / reference, nil
}

// DryQuantity converts a quantity to DMT.
//
//	DMT: quantity unchanged
//	WMT: quantity * (1 - moisture), default moisture when absent
//
// Any missing input yields NaN. Units must already be validated; other
// codes yield NaN without a note (the validation stage notes them).
func DryQuantity(unit contracts.Unit, quantity, moisture numeric.Number, defaultMoisture float64) (float64, []contracts.Note) {
	if !quantity.OK() {
		return math.NaN(), nil
	}

	switch unit {
	case contracts.UnitDMT:
		return quantity.Value, nil

	case contracts.UnitWMT:
		var notes []contracts.Note
		m := moisture.Value
		if !moisture.OK() {
			m = defaultMoisture
			notes = append(notes, contracts.NewNote(
				contracts.StageAdjust, contracts.NoteMoistureDefaulted, "Moisture",
				"moisture %s; defaulted to %.2f", moisture.State, defaultMoisture,
			))
		}
		if m < 0 || m >= 1 {
			notes = append(notes, contracts.NewNote(
				contracts.StageAdjust, contracts.NoteMoistureOutOfRange, "Moisture",
				"moisture %g outside [0, 1); DMT not computed", m,
			))
			return math.NaN(), notes
		}
		return quantity.Value * (1.0 - m), notes

	default:
		return math.NaN(), nil
	}
}
