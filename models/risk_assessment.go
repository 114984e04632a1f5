package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironvale/gatekeeperbackend/risk"
)

// RiskAssessment is a transient view of one risk_assessments row. Rows are
// immutable: a reassessment always inserts a new row and never updates an
// existing one. Rows are cascade-deleted with their visitor.
type RiskAssessment struct {
	ID              string           `json:"id"`
	VisitorID       string           `json:"visitor_id"`
	AssessmentTime  time.Time        `json:"assessment_time"`
	RiskScore       float64          `json:"risk_score"`
	RiskLevel       risk.Level       `json:"risk_level"`
	FrequencyScore  float64          `json:"frequency_score"`
	TimingScore     float64          `json:"timing_score"`
	BehaviorScore   float64          `json:"behavior_score"`
	HistoricalScore float64          `json:"historical_score"`
	Anomalies       []risk.Anomaly   `json:"anomalies"`
	Explanation     risk.Explanation `json:"explanation"`
	Confidence      float64          `json:"confidence"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewRiskAssessment builds an assessment row from factor inputs and an
// engine evaluation.
func NewRiskAssessment(visitorID string, factors risk.Factors, eval risk.Evaluation, anomalies []risk.Anomaly, explanation risk.Explanation, confidence float64) *RiskAssessment {
	now := time.Now().UTC()
	if anomalies == nil {
		anomalies = []risk.Anomaly{}
	}
	if explanation.PrimaryReasons == nil {
		explanation.PrimaryReasons = []string{}
	}
	if explanation.Recommendations == nil {
		explanation.Recommendations = []string{}
	}
	return &RiskAssessment{
		ID:              uuid.NewString(),
		VisitorID:       visitorID,
		AssessmentTime:  now,
		RiskScore:       eval.Score,
		RiskLevel:       eval.Level,
		FrequencyScore:  factors.Frequency,
		TimingScore:     factors.Timing,
		BehaviorScore:   factors.Behavior,
		HistoricalScore: factors.Historical,
		Anomalies:       anomalies,
		Explanation:     explanation,
		Confidence:      confidence,
		CreatedAt:       now,
	}
}

// HasHighRiskAnomalies reports whether any detected anomaly is HIGH or
// CRITICAL severity.
func (a *RiskAssessment) HasHighRiskAnomalies() bool {
	return risk.HasHighSeverity(a.Anomalies)
}

// TopAnomalies returns the highest-confidence anomalies, at most limit.
func (a *RiskAssessment) TopAnomalies(limit int) []risk.Anomaly {
	return risk.TopAnomalies(a.Anomalies, limit)
}

// IsHighConfidence reports whether the aggregate confidence meets the
// high-confidence threshold.
func (a *RiskAssessment) IsHighConfidence() bool {
	return risk.IsHighConfidence(a.Confidence)
}

// ShouldTriggerAlert reports whether this assessment warrants an alert.
func (a *RiskAssessment) ShouldTriggerAlert() bool {
	return risk.ShouldTriggerAlert(a.RiskLevel, a.Anomalies)
}
