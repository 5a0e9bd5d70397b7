// Package validation casts contract cells and applies the unit and sign
// policies. Row-local problems become notes; strict policies return a
// *PolicyError that aborts the whole run.
package validation

import (
	"fmt"
	"strings"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/numeric"
)

// PolicyError is a run-aborting failure naming the offending contract and field
type PolicyError struct {
	ContractID string `json:"contract_id"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("contract %s: %s: %s", e.ContractID, e.Field, e.Message)
}

// Fields holds the cast numeric cells of one contract
type Fields struct {
	Quantity numeric.Number
	Moisture numeric.Number
	Cost     numeric.Number
	Discount numeric.Number
}

// CastFields casts the numeric cells of a row.
// TypicalFe is left to the adjust stage, which owns its fallback.
// Missing moisture is not noted here either; the adjust stage defaults it.
func CastFields(row contracts.ContractRow) (Fields, []contracts.Note) {
	f := Fields{
		Quantity: numeric.Parse(row.Quantity),
		Moisture: numeric.Parse(row.Moisture),
		Cost:     numeric.Parse(row.Cost),
		Discount: numeric.Parse(row.Discount),
	}

	var notes []contracts.Note
	check := func(field string, n numeric.Number, required bool) {
		switch {
		case n.State == numeric.Unparseable:
			notes = append(notes, contracts.NewNote(
				contracts.StageValidate, contracts.NoteNumericUnparseable, field,
				"%s %q is not numeric", field, n.Raw,
			))
		case n.State == numeric.Missing && required:
			notes = append(notes, contracts.NewNote(
				contracts.StageValidate, contracts.NoteNumericMissing, field,
				"%s is missing", field,
			))
		}
	}

	check("Quantity", f.Quantity, true)
	check("Moisture", f.Moisture, false)
	check("Cost", f.Cost, true)
	check("Discount", f.Discount, true)

	return f, notes
}

// CheckUnit applies the unit policy.
//
//	skip: ok == false plus a note; the row stays in the report with MTM = NaN
//	fail: *PolicyError
func CheckUnit(contractID, raw string, policy mtmconfig.UnitPolicy) (contracts.Unit, bool, []contracts.Note, error) {
	if unit, ok := contracts.ParseUnit(raw); ok {
		return unit, true, nil, nil
	}

	if policy == mtmconfig.UnitFail {
		return "", false, nil, &PolicyError{
			ContractID: contractID,
			Field:      "Unit",
			Message:    fmt.Sprintf("invalid unit %q (expected WMT or DMT)", strings.TrimSpace(raw)),
		}
	}

	return "", false, []contracts.Note{contracts.NewNote(
		contracts.StageValidate, contracts.NoteUnitInvalid, "Unit",
		"invalid unit %q (expected WMT or DMT); excluded from total", strings.TrimSpace(raw),
	)}, nil
}

// CheckSigns applies the sign policy to cost and discount.
// Only present values are checked; missing ones were noted by CastFields.
func CheckSigns(contractID string, f Fields, policy mtmconfig.SignPolicy) ([]contracts.Note, error) {
	var notes []contracts.Note

	for _, c := range []struct {
		field string
		value numeric.Number
		code  contracts.NoteCode
	}{
		{"Cost", f.Cost, contracts.NoteCostNonPositive},
		{"Discount", f.Discount, contracts.NoteDiscountNonPositive},
	} {
		if !c.value.OK() || c.value.Value > 0 {
			continue
		}
		if policy == mtmconfig.SignError {
			return nil, &PolicyError{
				ContractID: contractID,
				Field:      c.field,
				Message:    fmt.Sprintf("%s %g is not positive", strings.ToLower(c.field), c.value.Value),
			}
		}
		notes = append(notes, contracts.NewNote(
			contracts.StageValidate, c.code, c.field,
			"%s %g is not positive; value kept", strings.ToLower(c.field), c.value.Value,
		))
	}

	return notes, nil
}

// DuplicateIDs returns the contract ids occurring more than once, with counts
func DuplicateIDs(rows []contracts.ContractRow) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[strings.TrimSpace(r.ContractID)]++
	}
	dups := make(map[string]int)
	for id, n := range counts {
		if n > 1 {
			dups[id] = n
		}
	}
	return dups
}
