package contracts

import (
	"fmt"
	"strings"
)

// NoteCode categorizes a row-level event.
// Codes are stable; tests and the UI match on them, never on message text.
type NoteCode string

const (
	// V1/V2
	NoteTenorInvalid NoteCode = "TENOR_INVALID"

	// V3
	NoteNumericMissing      NoteCode = "NUMERIC_MISSING"
	NoteNumericUnparseable  NoteCode = "NUMERIC_UNPARSEABLE"
	NoteUnitInvalid         NoteCode = "UNIT_INVALID"
	NoteCostNonPositive     NoteCode = "COST_NON_POSITIVE"
	NoteDiscountNonPositive NoteCode = "DISCOUNT_NON_POSITIVE"
	NoteDuplicateContract   NoteCode = "DUPLICATE_CONTRACT_ID"

	// V4
	NoteNoPricesForIndex    NoteCode = "NO_PRICES_FOR_INDEX"
	NotePastTenorNoPrice    NoteCode = "PAST_TENOR_NO_PRICE"
	NoteCurrentTenorNoPrice NoteCode = "CURRENT_TENOR_NO_PRICE"
	NoteFallbackLaterTenor  NoteCode = "FALLBACK_LATER_TENOR"
	NoteFallbackPriorTenor  NoteCode = "FALLBACK_PRIOR_TENOR"

	// V5
	NoteFeUnparseable      NoteCode = "FE_UNPARSEABLE"
	NoteMoistureDefaulted  NoteCode = "MOISTURE_DEFAULTED"
	NoteMoistureOutOfRange NoteCode = "MOISTURE_OUT_OF_RANGE"

	// V6
	NoteMTMNotComputed NoteCode = "MTM_NOT_COMPUTED"
)

// Note is one structured event attached to a contract's result row
type Note struct {
	Stage   Stage    `json:"stage"`
	Code    NoteCode `json:"code"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
}

// NewNote creates a note with a formatted message
func NewNote(stage Stage, code NoteCode, field, format string, args ...interface{}) Note {
	return Note{
		Stage:   stage,
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// String renders "CODE: message"
func (n Note) String() string {
	return fmt.Sprintf("%s: %s", n.Code, n.Message)
}

// Notes is the ordered list of events for one row
type Notes []Note

// Has reports whether any note carries code
func (ns Notes) Has(code NoteCode) bool {
	for _, n := range ns {
		if n.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the codes in order of occurrence
func (ns Notes) Codes() []NoteCode {
	codes := make([]NoteCode, 0, len(ns))
	for _, n := range ns {
		codes = append(codes, n.Code)
	}
	return codes
}

// String joins the notes the way the report's notes column shows them
func (ns Notes) String() string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " | ")
}
