package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/risk"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store := database.NewStore(database.MemoryPath)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestVisitor(t *testing.T, store *database.Store) *models.Visitor {
	t.Helper()
	writer, err := store.Writer()
	require.NoError(t, err)
	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, database.InsertVisitor(writer, v))
	return v
}

func TestAssessVisitorPersistsAtomically(t *testing.T) {
	store := newTestStore(t)
	v := createTestVisitor(t, store)
	svc := &AssessmentService{Store: store}

	in := AssessmentInput{
		Factors: risk.Factors{Frequency: 80, Timing: 40, Behavior: 90, Historical: 50},
		Anomalies: []risk.Anomaly{
			{Type: "unusual_hours", Severity: risk.LevelMedium, Description: "entry at 02:10", Confidence: 0.7},
			{Type: "repeat_denial", Severity: risk.LevelHigh, Description: "denied twice this week", Confidence: 0.9},
		},
		Explanation: risk.Explanation{
			PrimaryReasons:  []string{"frequent off-hours visits"},
			Recommendations: []string{"verify identity at gate"},
			Confidence:      0.85,
		},
		Confidence: 0.85,
	}

	assessment, decision, err := svc.AssessVisitor(v.ID, "guard-7", in, nil)
	require.NoError(t, err)
	require.NotNil(t, assessment)
	require.NotNil(t, decision)

	assert.InDelta(t, 69.0, assessment.RiskScore, 1e-9)
	assert.Equal(t, risk.LevelHigh, assessment.RiskLevel)
	assert.Equal(t, risk.LevelHigh, decision.RiskLevel)
	assert.True(t, decision.Alert)

	reader, err := store.Reader()
	require.NoError(t, err)

	// assessment row persisted
	stored, err := database.GetRiskAssessmentByID(reader, assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, stored.VisitorID)
	require.Len(t, stored.Anomalies, 2)

	// visitor projection updated with the flag invariant held
	visitor, err := database.GetVisitorByID(reader, v.ID)
	require.NoError(t, err)
	assert.InDelta(t, 69.0, visitor.RiskScore, 1e-9)
	assert.True(t, visitor.Flagged)

	// audit row written in the same transaction
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, v.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditUpdate, logs[0].Action)
	assert.Equal(t, "guard-7", logs[0].PerformedBy)
}

func TestAssessVisitorLowScoreStaysUnflagged(t *testing.T) {
	store := newTestStore(t)
	v := createTestVisitor(t, store)
	svc := &AssessmentService{Store: store}

	in := AssessmentInput{
		Factors:    risk.Factors{Frequency: 10, Timing: 10, Behavior: 10, Historical: 10},
		Confidence: 0.5,
	}
	assessment, decision, err := svc.AssessVisitor(v.ID, "guard-7", in, nil)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelLow, assessment.RiskLevel)
	assert.False(t, decision.Alert)

	reader, err := store.Reader()
	require.NoError(t, err)
	visitor, err := database.GetVisitorByID(reader, v.ID)
	require.NoError(t, err)
	assert.False(t, visitor.Flagged)
}

func TestAssessVisitorCriticalAnomalyAlertsAtLowScore(t *testing.T) {
	store := newTestStore(t)
	v := createTestVisitor(t, store)
	svc := &AssessmentService{Store: store}

	in := AssessmentInput{
		Factors: risk.Factors{Frequency: 5, Timing: 5, Behavior: 5, Historical: 5},
		Anomalies: []risk.Anomaly{
			{Type: "forced_tailgate", Severity: risk.LevelCritical, Confidence: 0.95},
		},
		Confidence: 0.9,
	}
	assessment, decision, err := svc.AssessVisitor(v.ID, "guard-7", in, nil)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelLow, assessment.RiskLevel)
	assert.True(t, decision.Alert)
}

func TestAssessVisitorUnknownVisitorLeavesNoRows(t *testing.T) {
	store := newTestStore(t)
	svc := &AssessmentService{Store: store}

	_, _, err := svc.AssessVisitor("no-such-visitor", "guard-7", AssessmentInput{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	reader, err := store.Reader()
	require.NoError(t, err)
	count, err := database.CountRiskAssessmentsByVisitor(reader, "no-such-visitor")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, "no-such-visitor")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAssessVisitorReassessmentAppendsRows(t *testing.T) {
	store := newTestStore(t)
	v := createTestVisitor(t, store)
	svc := &AssessmentService{Store: store}

	high := AssessmentInput{Factors: risk.Factors{Frequency: 90, Timing: 90, Behavior: 90, Historical: 90}, Confidence: 0.9}
	low := AssessmentInput{Factors: risk.Factors{Frequency: 5, Timing: 5, Behavior: 5, Historical: 5}, Confidence: 0.9}

	_, _, err := svc.AssessVisitor(v.ID, "guard-7", high, nil)
	require.NoError(t, err)
	_, _, err = svc.AssessVisitor(v.ID, "guard-7", low, nil)
	require.NoError(t, err)

	reader, err := store.Reader()
	require.NoError(t, err)
	count, err := database.CountRiskAssessmentsByVisitor(reader, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// the cached projection tracks the most recent assessment
	visitor, err := database.GetVisitorByID(reader, v.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, visitor.RiskScore, 1e-9)
	assert.False(t, visitor.Flagged)
}

func TestAssessVisitorHonorsTopAnomalyLimit(t *testing.T) {
	store := newTestStore(t)
	v := createTestVisitor(t, store)
	svc := &AssessmentService{Store: store, TopAnomalyLimit: 1}

	in := AssessmentInput{
		Factors: risk.Factors{Frequency: 50, Timing: 50, Behavior: 50, Historical: 50},
		Anomalies: []risk.Anomaly{
			{Type: "a", Severity: risk.LevelLow, Confidence: 0.4},
			{Type: "b", Severity: risk.LevelLow, Confidence: 0.6},
		},
		Confidence: 0.7,
	}
	assessment, _, err := svc.AssessVisitor(v.ID, "guard-7", in, nil)
	require.NoError(t, err)

	top := assessment.TopAnomalies(1)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Type)
}
