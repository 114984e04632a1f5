package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

func TestVisitorCreateWritesAuditRow(t *testing.T) {
	store := newTestStore(t)
	svc := &VisitorService{Store: store}

	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	ip := "10.0.0.4"
	require.NoError(t, svc.Create(v, "guard-7", &models.RequestMeta{IPAddress: &ip}))

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, v.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditCreate, logs[0].Action)
	require.NotNil(t, logs[0].IPAddress)
	assert.Equal(t, ip, *logs[0].IPAddress)
	assert.Nil(t, logs[0].OldValues)
	assert.NotNil(t, logs[0].NewValues)
}

func TestVisitorApproveDenyCycle(t *testing.T) {
	store := newTestStore(t)
	svc := &VisitorService{Store: store}

	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, svc.Create(v, "guard-7", nil))

	approved, err := svc.Approve(v.ID, "resident-12", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)

	denied, err := svc.Deny(v.ID, "changed mind", "resident-12", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDenied, denied.ApprovalStatus)
	require.NotNil(t, denied.DenialReason)
	assert.Equal(t, "changed mind", *denied.DenialReason)

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, v.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestVisitorEntryExitStamps(t *testing.T) {
	store := newTestStore(t)
	svc := &VisitorService{Store: store}

	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, svc.Create(v, "guard-7", nil))

	entered, err := svc.MarkEntry(v.ID, "guard-7", nil)
	require.NoError(t, err)
	assert.NotNil(t, entered.EntryTime)
	assert.Nil(t, entered.ExitTime)

	exited, err := svc.MarkExit(v.ID, "guard-7", nil)
	require.NoError(t, err)
	assert.NotNil(t, exited.ExitTime)
}

func TestVisitorMutationOnMissingIDLeavesNoAudit(t *testing.T) {
	store := newTestStore(t)
	svc := &VisitorService{Store: store}

	_, err := svc.Approve("no-such-id", "resident-12", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, "no-such-id")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestVisitorDeleteCascadesAssessments(t *testing.T) {
	store := newTestStore(t)
	vsvc := &VisitorService{Store: store}
	asvc := &AssessmentService{Store: store}

	v := models.NewVisitor("Asha Rao", "+911234567890", "plumbing repair", "B-204", nil)
	require.NoError(t, vsvc.Create(v, "guard-7", nil))
	_, _, err := asvc.AssessVisitor(v.ID, "guard-7", AssessmentInput{}, nil)
	require.NoError(t, err)

	require.NoError(t, vsvc.Delete(v.ID, "admin-1", nil))

	reader, err := store.Reader()
	require.NoError(t, err)
	_, err = database.GetVisitorByID(reader, v.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	count, err := database.CountRiskAssessmentsByVisitor(reader, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// audit history survives the entity it describes
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityVisitor, v.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}
