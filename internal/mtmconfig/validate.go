package mtmconfig

import "fmt"

// ValidationError 검증 실패 (run 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(s *Settings) error {
	switch s.DuplicatePriceMethod {
	case DuplicateMean, DuplicateLast:
	default:
		return ValidationError{"duplicate_price_method", fmt.Sprintf("must be mean or last, got %q", s.DuplicatePriceMethod)}
	}

	switch s.InvalidUnitPolicy {
	case UnitSkip, UnitFail:
	default:
		return ValidationError{"invalid_unit_policy", fmt.Sprintf("must be skip or fail, got %q", s.InvalidUnitPolicy)}
	}

	// moisture는 [0, 1) 범위
	if s.DefaultMoisture < 0 || s.DefaultMoisture >= 1 {
		return ValidationError{"default_moisture", "must be in range [0, 1)"}
	}

	if s.ReferenceFe <= 0 {
		return ValidationError{"reference_fe", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(s *Settings) []Warning {
	var warnings []Warning

	if s.DefaultMoisture > 0.15 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_DEFAULT_MOISTURE",
			Message: fmt.Sprintf("default_moisture %.2f is above typical iron ore moisture (<= 0.15)", s.DefaultMoisture),
		})
	}

	if s.ReferenceFe != ReferenceFe {
		warnings = append(warnings, Warning{
			Code:    "NONSTANDARD_REFERENCE_FE",
			Message: fmt.Sprintf("reference_fe %.1f differs from the 62%% benchmark", s.ReferenceFe),
		})
	}

	return warnings
}
