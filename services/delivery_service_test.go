package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

func createTestDelivery(t *testing.T, svc *DeliveryService) *models.Delivery {
	t.Helper()
	d := models.NewDelivery("Ravi", "+917000000000", "QuickShip", "PACKAGE", "C-12", "S. Mehta", nil)
	require.NoError(t, svc.Create(d, "guard-7", nil))
	return d
}

func TestDeliveryGrantAccessWindow(t *testing.T) {
	store := newTestStore(t)
	svc := &DeliveryService{Store: store}
	d := createTestDelivery(t, svc)

	now := time.Now().UTC()
	granted, err := svc.GrantAccess(d.ID, "DL-9931", now, now.Add(30*time.Minute), "guard-7", nil)
	require.NoError(t, err)
	require.NotNil(t, granted.AccessCode)
	assert.Equal(t, "DL-9931", *granted.AccessCode)
	assert.True(t, granted.AccessValidAt(now.Add(15*time.Minute)))
	assert.False(t, granted.AccessValidAt(now.Add(45*time.Minute)))
	assert.False(t, granted.AccessValidAt(now.Add(-time.Minute)))
}

func TestDeliveryCompletionStampsActualTime(t *testing.T) {
	store := newTestStore(t)
	svc := &DeliveryService{Store: store}
	d := createTestDelivery(t, svc)

	inProgress, err := svc.UpdateStatus(d.ID, models.DeliveryInProgress, "guard-7", nil)
	require.NoError(t, err)
	assert.Nil(t, inProgress.ActualDeliveryTime)

	completed, err := svc.UpdateStatus(d.ID, models.DeliveryCompleted, "guard-7", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryCompleted, completed.DeliveryStatus)
	assert.NotNil(t, completed.ActualDeliveryTime)
}

func TestDeliveryLifecycleAudited(t *testing.T) {
	store := newTestStore(t)
	svc := &DeliveryService{Store: store}
	d := createTestDelivery(t, svc)

	now := time.Now().UTC()
	_, err := svc.GrantAccess(d.ID, "DL-1", now, now.Add(time.Hour), "guard-7", nil)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(d.ID, models.DeliveryCompleted, "guard-7", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(d.ID, "admin-1", nil))

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityDelivery, d.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}
