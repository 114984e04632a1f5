package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/risk"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(MemoryPath)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestVisitor(t *testing.T, db Querier) *models.Visitor {
	t.Helper()
	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, InsertVisitor(db, v))
	return v
}

func TestStoreUninitialized(t *testing.T) {
	store := NewStore(MemoryPath)

	_, err := store.Writer()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.Reader()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.Exec("SELECT 1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.QueryRow("SELECT 1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.Query("SELECT 1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = store.BeginTx()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.NoError(t, store.Close())
}

func TestStoreInitIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init())

	writer, err := store.Writer()
	require.NoError(t, err)
	require.NotNil(t, writer)
}

func TestVisitorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	vehicle := "KA-01-AB-1234"
	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", &vehicle)
	require.NoError(t, InsertVisitor(writer, v))

	got, err := GetVisitorByID(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)
	require.NotNil(t, got.VehicleNumber)
	assert.Equal(t, vehicle, *got.VehicleNumber)
	assert.False(t, got.Flagged)

	got.Approve("guard-7")
	require.NoError(t, UpdateVisitor(writer, &got))

	again, err := GetVisitorByID(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, again.ApprovalStatus)
	require.NotNil(t, again.ApprovedBy)
	assert.Equal(t, "guard-7", *again.ApprovedBy)
}

func TestVisitorNotFound(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	_, err = GetVisitorByID(writer, "no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = DeleteVisitor(writer, "no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListVisitorsByStatus(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	a := insertTestVisitor(t, writer)
	b := insertTestVisitor(t, writer)
	b.Approve("guard-7")
	require.NoError(t, UpdateVisitor(writer, b))

	all, err := ListVisitors(writer, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending := models.ApprovalPending
	got, err := ListVisitors(writer, &pending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestUpdateVisitorRiskScoreFlagInvariant(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)
	v := insertTestVisitor(t, writer)

	now := time.Now().UTC()
	require.NoError(t, UpdateVisitorRiskScore(writer, v.ID, 72.5, now))

	got, err := GetVisitorByID(writer, v.ID)
	require.NoError(t, err)
	assert.InDelta(t, 72.5, got.RiskScore, 1e-9)
	assert.True(t, got.Flagged)

	require.NoError(t, UpdateVisitorRiskScore(writer, v.ID, 12.0, now))
	got, err = GetVisitorByID(writer, v.ID)
	require.NoError(t, err)
	assert.False(t, got.Flagged)
}

func TestRiskAssessmentCascadeDelete(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)
	v := insertTestVisitor(t, writer)

	factors := risk.Factors{Frequency: 80, Timing: 40, Behavior: 90, Historical: 50}
	eval := risk.Evaluate(factors, nil, 0.9, 0)
	for i := 0; i < 3; i++ {
		a := models.NewRiskAssessment(v.ID, factors, eval, nil, risk.Explanation{}, 0.9)
		require.NoError(t, InsertRiskAssessment(writer, a))
	}

	count, err := CountRiskAssessmentsByVisitor(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, DeleteVisitor(writer, v.ID))

	count, err = CountRiskAssessmentsByVisitor(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGetLatestRiskAssessment(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)
	v := insertTestVisitor(t, writer)

	factors := risk.Factors{Frequency: 10, Timing: 10, Behavior: 10, Historical: 10}
	first := models.NewRiskAssessment(v.ID, factors, risk.Evaluate(factors, nil, 0.5, 0), nil, risk.Explanation{}, 0.5)
	first.AssessmentTime = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, InsertRiskAssessment(writer, first))

	second := models.NewRiskAssessment(v.ID, factors, risk.Evaluate(factors, nil, 0.5, 0), nil, risk.Explanation{}, 0.5)
	require.NoError(t, InsertRiskAssessment(writer, second))

	latest, err := GetLatestRiskAssessment(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestGetLatestRiskAssessmentSubSecondOrdering(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)
	v := insertTestVisitor(t, writer)

	factors := risk.Factors{Frequency: 10, Timing: 10, Behavior: 10, Historical: 10}
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	earlier := models.NewRiskAssessment(v.ID, factors, risk.Evaluate(factors, nil, 0.5, 0), nil, risk.Explanation{}, 0.5)
	earlier.AssessmentTime = base.Add(100 * time.Millisecond)
	require.NoError(t, InsertRiskAssessment(writer, earlier))

	later := models.NewRiskAssessment(v.ID, factors, risk.Evaluate(factors, nil, 0.5, 0), nil, risk.Explanation{}, 0.5)
	later.AssessmentTime = base.Add(150 * time.Millisecond)
	require.NoError(t, InsertRiskAssessment(writer, later))

	latest, err := GetLatestRiskAssessment(writer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, later.ID, latest.ID)

	listed, err := ListRiskAssessmentsByVisitor(writer, v.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, later.ID, listed[0].ID)
}

func TestStaffRoundTrip(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	schedule := models.WorkSchedule{"mon": {Start: "09:00", End: "17:00"}}
	s := models.NewStaff("Lakshmi Devi", "+919876543210", models.ServiceMaid,
		[]string{"A-101", models.UnitAll}, schedule, "AC-4821", time.Now().UTC())
	require.NoError(t, InsertStaff(writer, s))

	got, err := GetStaffByAccessCode(writer, "AC-4821")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, []string{"A-101", models.UnitAll}, got.AuthorizedUnits)
	require.Contains(t, got.WorkSchedule, "mon")
	assert.Equal(t, "09:00", got.WorkSchedule["mon"].Start)
	assert.True(t, got.Active)

	got.Deactivate(nil)
	require.NoError(t, UpdateStaff(writer, &got))

	active := true
	listed, err := ListStaff(writer, &active)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestStaffAccessCodeUnique(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	a := models.NewStaff("A", "+91", models.ServiceCook, nil, nil, "AC-1", time.Now().UTC())
	require.NoError(t, InsertStaff(writer, a))

	b := models.NewStaff("B", "+91", models.ServiceCook, nil, nil, "AC-1", time.Now().UTC())
	assert.Error(t, InsertStaff(writer, b))
}

func TestDeliveryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	d := models.NewDelivery("Ravi", "+917000000000", "QuickShip", "PACKAGE", "C-12", "S. Mehta", nil)
	require.NoError(t, InsertDelivery(writer, d))

	now := time.Now().UTC()
	d.GrantAccess("DL-9931", now, now.Add(30*time.Minute))
	d.SetStatus(models.DeliveryInProgress)
	require.NoError(t, UpdateDelivery(writer, d))

	got, err := GetDeliveryByID(writer, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryInProgress, got.DeliveryStatus)
	require.NotNil(t, got.AccessCode)
	assert.Equal(t, "DL-9931", *got.AccessCode)
	assert.True(t, got.AccessValidAt(now.Add(10*time.Minute)))
	assert.False(t, got.AccessValidAt(now.Add(31*time.Minute)))
}

func TestEmergencyDeactivateOnce(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	e := models.NewEmergencyLog("FIRE", "guard-3", nil)
	require.NoError(t, InsertEmergencyLog(writer, e))

	activeList, err := ListEmergencyLogs(writer, true)
	require.NoError(t, err)
	require.Len(t, activeList, 1)

	now := time.Now().UTC()
	require.NoError(t, DeactivateEmergencyLog(writer, e.ID, "admin-1", now))

	// the single permitted update already happened
	err = DeactivateEmergencyLog(writer, e.ID, "admin-2", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	got, err := GetEmergencyLogByID(writer, e.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	require.NotNil(t, got.DeactivatedBy)
	assert.Equal(t, "admin-1", *got.DeactivatedBy)

	activeList, err = ListEmergencyLogs(writer, true)
	require.NoError(t, err)
	assert.Empty(t, activeList)
}

func TestEmergencyAffectedEntries(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	e := models.NewEmergencyLog("MEDICAL", "guard-3", nil)
	require.NoError(t, InsertEmergencyLog(writer, e))

	require.NoError(t, AppendEmergencyAffectedEntries(writer, e.ID, []string{"entry-1", "entry-2"}))

	got, err := GetEmergencyLogByID(writer, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"entry-1", "entry-2"}, got.AffectedEntries)
}

func TestAuditLogAppendAndList(t *testing.T) {
	store := newTestStore(t)
	writer, err := store.Writer()
	require.NoError(t, err)

	entry := models.NewAuditLog(models.EntityVisitor, "visitor-1", models.AuditCreate, "guard-7",
		nil, map[string]string{"name": "Asha Rao"}, nil)
	require.NoError(t, InsertAuditLog(writer, entry))

	logs, err := ListAuditLogsByEntity(writer, models.EntityVisitor, "visitor-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditCreate, logs[0].Action)
	assert.Equal(t, "guard-7", logs[0].PerformedBy)
}

func TestBeginTxRollbackLeavesNoRows(t *testing.T) {
	store := newTestStore(t)

	tx, err := store.BeginTx()
	require.NoError(t, err)

	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, InsertVisitor(tx, v))
	require.NoError(t, tx.Rollback())

	writer, err := store.Writer()
	require.NoError(t, err)
	_, err = GetVisitorByID(writer, v.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
