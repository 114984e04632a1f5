package risk

// Level is the classification bucket for a composite risk score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// IsValid reports whether l is one of the known risk levels.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	default:
		return false
	}
}

// Factors holds the four externally computed sub-scores, each in [0,100].
// Values outside the domain are clamped before weighting.
type Factors struct {
	Frequency  float64 `json:"frequency_score"`
	Timing     float64 `json:"timing_score"`
	Behavior   float64 `json:"behavior_score"`
	Historical float64 `json:"historical_score"`
}

// Anomaly is a discrete detected irregularity, independent of the composite
// score, supplied by the upstream analysis producer.
type Anomaly struct {
	Type        string  `json:"type"`
	Severity    Level   `json:"severity"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Explanation is the human-readable payload accompanying an assessment.
type Explanation struct {
	PrimaryReasons  []string `json:"primary_reasons"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}
