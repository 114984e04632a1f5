package services

import (
	"fmt"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/risk"
)

// AssessmentInput carries one scoring request from the upstream analysis
// producer: the four factor scores, the detected anomalies, and the
// explanation payload. The core never computes these itself.
type AssessmentInput struct {
	Factors     risk.Factors     `json:"factors"`
	Anomalies   []risk.Anomaly   `json:"anomalies"`
	Explanation risk.Explanation `json:"explanation"`
	Confidence  float64          `json:"confidence"`
}

// Decision is the per-assessment payload emitted for downstream notification
// and UI layers, so they never recompute classification.
type Decision struct {
	RiskLevel   risk.Level       `json:"risk_level"`
	Alert       bool             `json:"alert"`
	Explanation risk.Explanation `json:"explanation"`
}

// AssessmentService runs the scoring pipeline and persists its output.
type AssessmentService struct {
	Store           *database.Store
	TopAnomalyLimit int
}

// AssessVisitor scores a visitor and persists the result atomically: the new
// immutable assessment row, the visitor's cached risk_score/flagged
// projection, and the audit row all commit in one transaction or not at all.
func (s *AssessmentService) AssessVisitor(visitorID, performedBy string, in AssessmentInput, meta *models.RequestMeta) (*models.RiskAssessment, *Decision, error) {
	eval := risk.Evaluate(in.Factors, in.Anomalies, in.Confidence, s.TopAnomalyLimit)
	assessment := models.NewRiskAssessment(visitorID, in.Factors, eval, in.Anomalies, in.Explanation, in.Confidence)

	tx, err := s.Store.BeginTx()
	if err != nil {
		return nil, nil, err
	}

	visitor, err := database.GetVisitorByID(tx, visitorID)
	if err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("failed to load visitor %s for assessment: %w", visitorID, err)
	}

	if err := database.InsertRiskAssessment(tx, assessment); err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := database.UpdateVisitorRiskScore(tx, visitorID, eval.Score, assessment.AssessmentTime); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	oldValues := map[string]interface{}{
		"risk_score": visitor.RiskScore,
		"flagged":    visitor.Flagged,
	}
	newValues := map[string]interface{}{
		"risk_score":    eval.Score,
		"flagged":       eval.Score >= models.FlagThreshold,
		"risk_level":    eval.Level,
		"assessment_id": assessment.ID,
	}
	audit := models.NewAuditLog(models.EntityVisitor, visitorID, models.AuditUpdate, performedBy, oldValues, newValues, meta)
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit assessment for visitor %s: %w", visitorID, err)
	}

	decision := &Decision{
		RiskLevel:   eval.Level,
		Alert:       eval.Alert,
		Explanation: assessment.Explanation,
	}
	return assessment, decision, nil
}
