package contracts

// Valuation stage 정의 (SSOT)
// 모든 note, 로그에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (contract 단위):
//   V1 → V2 → V3 → V4 → V5 → V6
//   Normalize  Classify  Validate  Resolve  Adjust  Compute

// Stage represents a per-contract valuation stage
type Stage string

const (
	// StageNormalize V1: tenor text → YYYY-MM
	// 위치: internal/tenor/
	StageNormalize Stage = "V1_NORMALIZE"

	// StageClassify V2: past / current / future
	// 위치: internal/tenor/classify.go
	StageClassify Stage = "V2_CLASSIFY"

	// StageValidate V3: numeric cast, unit policy, sign policy
	// 위치: internal/validation/
	StageValidate Stage = "V3_VALIDATE"

	// StageResolve V4: price selection with temporal fallback
	// 위치: internal/pricing/
	StageResolve Stage = "V4_RESOLVE"

	// StageAdjust V5: Fe ratio, WMT → DMT
	// 위치: internal/adjust/
	StageAdjust Stage = "V5_ADJUST"

	// StageCompute V6: MTM and portfolio total
	// 위치: internal/valuation/
	StageCompute Stage = "V6_COMPUTE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "V1", "V4")
func (s Stage) ShortName() string {
	switch s {
	case StageNormalize:
		return "V1"
	case StageClassify:
		return "V2"
	case StageValidate:
		return "V3"
	case StageResolve:
		return "V4"
	case StageAdjust:
		return "V5"
	case StageCompute:
		return "V6"
	default:
		return "UNKNOWN"
	}
}

// Description returns a short human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageNormalize:
		return "tenor normalization"
	case StageClassify:
		return "tenor classification"
	case StageValidate:
		return "input validation"
	case StageResolve:
		return "price resolution"
	case StageAdjust:
		return "quality/unit adjustment"
	case StageCompute:
		return "MTM computation"
	default:
		return "unknown"
	}
}

// AllStages returns all valuation stages in order
func AllStages() []Stage {
	return []Stage{
		StageNormalize,
		StageClassify,
		StageValidate,
		StageResolve,
		StageAdjust,
		StageCompute,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
