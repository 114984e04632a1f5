package risk

import "sort"

// Factor weights. Frequency and behavior are the strongest predictors; the
// four weights sum to 1.0.
const (
	WeightFrequency  = 0.30
	WeightTiming     = 0.20
	WeightBehavior   = 0.30
	WeightHistorical = 0.20
)

// Classification thresholds, lower bound inclusive.
const (
	ThresholdMedium   = 30.0
	ThresholdHigh     = 60.0
	ThresholdCritical = 80.0
)

// HighConfidenceThreshold is the minimum aggregate confidence for an
// assessment to be treated as high confidence.
const HighConfidenceThreshold = 0.8

// DefaultTopAnomalyLimit is the anomaly count returned when the caller does
// not supply a limit.
const DefaultTopAnomalyLimit = 3

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Score computes the weighted composite risk score from the four factor
// sub-scores. Each factor is clamped into [0,100] first, so the result always
// lies in [0,100].
func Score(f Factors) float64 {
	return clamp(f.Frequency)*WeightFrequency +
		clamp(f.Timing)*WeightTiming +
		clamp(f.Behavior)*WeightBehavior +
		clamp(f.Historical)*WeightHistorical
}

// LevelForScore classifies a composite score.
func LevelForScore(score float64) Level {
	switch {
	case score < ThresholdMedium:
		return LevelLow
	case score < ThresholdHigh:
		return LevelMedium
	case score < ThresholdCritical:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// HasHighSeverity reports whether any anomaly carries HIGH or CRITICAL
// severity.
func HasHighSeverity(anomalies []Anomaly) bool {
	for _, a := range anomalies {
		if a.Severity == LevelHigh || a.Severity == LevelCritical {
			return true
		}
	}
	return false
}

// ShouldTriggerAlert reports whether an assessment warrants an alert: a HIGH
// or CRITICAL level, or any high-severity anomaly. A low composite score with
// one critical anomaly still triggers.
func ShouldTriggerAlert(level Level, anomalies []Anomaly) bool {
	return level == LevelHigh || level == LevelCritical || HasHighSeverity(anomalies)
}

// IsHighConfidence reports whether an aggregate confidence meets the
// high-confidence threshold.
func IsHighConfidence(confidence float64) bool {
	return confidence >= HighConfidenceThreshold
}

// TopAnomalies returns up to limit anomalies ordered by descending per-anomaly
// confidence. The sort is stable: ties keep their original relative order. A
// limit <= 0 falls back to DefaultTopAnomalyLimit. The input slice is not
// mutated.
func TopAnomalies(anomalies []Anomaly, limit int) []Anomaly {
	if limit <= 0 {
		limit = DefaultTopAnomalyLimit
	}
	sorted := make([]Anomaly, len(anomalies))
	copy(sorted, anomalies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Evaluation is the pure output of one scoring pass. Callers persist it; the
// engine itself never touches stored state.
type Evaluation struct {
	Score          float64   `json:"risk_score"`
	Level          Level     `json:"risk_level"`
	TopAnomalies   []Anomaly `json:"top_anomalies"`
	Alert          bool      `json:"alert"`
	HighConfidence bool      `json:"high_confidence"`
}

// Evaluate runs the full scoring pipeline over one set of inputs. It is
// deterministic and safe for any number of concurrent callers.
func Evaluate(f Factors, anomalies []Anomaly, confidence float64, topLimit int) Evaluation {
	score := Score(f)
	level := LevelForScore(score)
	return Evaluation{
		Score:          score,
		Level:          level,
		TopAnomalies:   TopAnomalies(anomalies, topLimit),
		Alert:          ShouldTriggerAlert(level, anomalies),
		HighConfidence: IsHighConfidence(confidence),
	}
}
