package mtmconfig

import "time"

// DuplicateMethod collapses prices sharing (index, tenor, date)
type DuplicateMethod string

const (
	DuplicateMean DuplicateMethod = "mean" // arithmetic mean (default)
	DuplicateLast DuplicateMethod = "last" // last entry in input order
)

// UnitPolicy decides what happens to a unit code outside {WMT, DMT}
type UnitPolicy string

const (
	UnitSkip UnitPolicy = "skip" // row stays in the report with MTM = NaN
	UnitFail UnitPolicy = "fail" // whole run aborts
)

// SignPolicy decides what happens to cost <= 0 or discount <= 0
type SignPolicy string

const (
	SignWarn  SignPolicy = "warn"
	SignError SignPolicy = "error"
)

// ReferenceFe is the benchmark iron grade (%) the quality ratio divides by
const ReferenceFe = 62.0

// Settings는 valuation run 전체에 적용되는 설정
// Run 시작 후에는 읽기 전용
type Settings struct {
	DuplicatePriceMethod    DuplicateMethod `yaml:"duplicate_price_method" json:"duplicate_price_method"`
	InvalidUnitPolicy       UnitPolicy      `yaml:"invalid_unit_policy" json:"invalid_unit_policy"`
	DefaultMoisture         float64         `yaml:"default_moisture" json:"default_moisture"`
	RaiseOnNegativeDiscount bool            `yaml:"raise_on_negative_discount" json:"raise_on_negative_discount"`
	ReferenceFe             float64         `yaml:"reference_fe" json:"reference_fe"`
}

// Defaults returns the baseline settings
func Defaults() Settings {
	return Settings{
		DuplicatePriceMethod:    DuplicateMean,
		InvalidUnitPolicy:       UnitSkip,
		DefaultMoisture:         0.0,
		RaiseOnNegativeDiscount: false,
		ReferenceFe:             ReferenceFe,
	}
}

// SignPolicy maps raise_on_negative_discount onto the sign policy
func (s Settings) SignPolicy() SignPolicy {
	if s.RaiseOnNegativeDiscount {
		return SignError
	}
	return SignWarn
}

// RunSnapshot identifies which settings produced a report (재현성용)
type RunSnapshot struct {
	RunID         string    `json:"run_id"`
	SettingsHash  string    `json:"settings_hash"`
	Settings      Settings  `json:"settings"`
	ValuationDate time.Time `json:"valuation_date"`
	CreatedAt     time.Time `json:"created_at"`
}
