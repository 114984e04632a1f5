package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

func createTestStaff(t *testing.T, svc *StaffService) *models.Staff {
	t.Helper()
	schedule := models.WorkSchedule{
		"mon": {Start: "09:00", End: "17:00"},
	}
	staff := models.NewStaff("Lakshmi Devi", "+919876543210", models.ServiceMaid,
		[]string{"A-101"}, schedule, "AC-4821", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Create(staff, "admin-1", nil))
	return staff
}

// monday returns an instant on Monday 2025-03-17 at the given UTC wall time.
func monday(hour, min int) time.Time {
	return time.Date(2025, 3, 17, hour, min, 0, 0, time.UTC)
}

func TestCheckAccessGranted(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	result, err := svc.CheckAccess("AC-4821", "A-101", monday(10, 0), nil)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Nil(t, result.Reason)
	assert.Equal(t, staff.ID, result.StaffID)

	// a granted check stamps the profile's last entry
	reader, err := store.Reader()
	require.NoError(t, err)
	got, err := database.GetStaffByID(reader, staff.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastEntry)

	// and records the stamp in the audit trail (create + update)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityStaff, staff.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditUpdate, logs[0].Action)
	assert.Equal(t, staff.ID, logs[0].PerformedBy)
}

func TestCheckAccessDeniedLeavesNoAuditRow(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	result, err := svc.CheckAccess("AC-4821", "B-999", monday(10, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityStaff, staff.ID)
	require.NoError(t, err)
	// only the CREATE row from profile creation
	assert.Len(t, logs, 1)
}

func TestCheckAccessUnknownCode(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	createTestStaff(t, svc)

	result, err := svc.CheckAccess("AC-0000", "A-101", monday(10, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, DenialUnknownCode, *result.Reason)
	assert.Empty(t, result.StaffID)
}

func TestCheckAccessInactiveProfile(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	_, err := svc.Deactivate(staff.ID, "admin-1", nil, nil)
	require.NoError(t, err)

	result, err := svc.CheckAccess("AC-4821", "A-101", monday(10, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, DenialInactive, *result.Reason)
}

func TestCheckAccessUnauthorizedUnit(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	createTestStaff(t, svc)

	result, err := svc.CheckAccess("AC-4821", "B-999", monday(10, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, DenialUnit, *result.Reason)
}

func TestCheckAccessOutsideShift(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	createTestStaff(t, svc)

	result, err := svc.CheckAccess("AC-4821", "A-101", monday(20, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, DenialOutsideShift, *result.Reason)

	// Wednesday is an off day
	wed := time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)
	result, err = svc.CheckAccess("AC-4821", "A-101", wed, nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestCheckAccessUsesFacilityTimezone(t *testing.T) {
	store := newTestStore(t)
	ist := time.FixedZone("IST", 5*3600+1800)
	svc := &StaffService{Store: store, FacilityLocation: ist}
	createTestStaff(t, svc)

	// 05:00 UTC Monday is 10:30 Monday at the facility
	result, err := svc.CheckAccess("AC-4821", "A-101", monday(5, 0), nil)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// 12:00 UTC Monday is 17:30 at the facility, past the window
	result, err = svc.CheckAccess("AC-4821", "A-101", monday(12, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestStaffLifecycleAudited(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	_, err := svc.Deactivate(staff.ID, "admin-1", nil, nil)
	require.NoError(t, err)
	reactivated, err := svc.Reactivate(staff.ID, "admin-1", nil)
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
	assert.Nil(t, reactivated.EndDate)

	reader, err := store.Reader()
	require.NoError(t, err)
	logs, err := database.ListAuditLogsByEntity(reader, models.EntityStaff, staff.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestStaffUpdateSchedule(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	updated, err := svc.Update(staff.ID, "admin-1", nil, func(s *models.Staff) {
		s.UpdateSchedule(models.WorkSchedule{"fri": {Start: "08:00", End: "12:00"}})
	})
	require.NoError(t, err)
	require.Contains(t, updated.WorkSchedule, "fri")
	assert.NotContains(t, updated.WorkSchedule, "mon")
}

func TestStaffDeleteRemovesProfile(t *testing.T) {
	store := newTestStore(t)
	svc := &StaffService{Store: store}
	staff := createTestStaff(t, svc)

	require.NoError(t, svc.Delete(staff.ID, "admin-1", nil))

	result, err := svc.CheckAccess("AC-4821", "A-101", monday(10, 0), nil)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, DenialUnknownCode, *result.Reason)
}
