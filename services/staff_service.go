package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

// AccessDenialReason explains a failed staff access check.
type AccessDenialReason string

const (
	DenialUnknownCode  AccessDenialReason = "UNKNOWN_ACCESS_CODE"
	DenialInactive     AccessDenialReason = "PROFILE_INACTIVE"
	DenialUnit         AccessDenialReason = "UNIT_NOT_AUTHORIZED"
	DenialOutsideShift AccessDenialReason = "OUTSIDE_WORK_SCHEDULE"
)

// AccessCheckResult is the outcome of verifying a staff access code against
// a unit at a point in time.
type AccessCheckResult struct {
	Allowed bool                `json:"allowed"`
	Reason  *AccessDenialReason `json:"reason,omitempty"`
	StaffID string              `json:"staff_id,omitempty"`
}

// StaffService manages domestic staff profiles and entry checks. Schedule
// checks always evaluate in the configured facility timezone, never ambient
// process time.
type StaffService struct {
	Store            *database.Store
	FacilityLocation *time.Location
}

func (s *StaffService) location() *time.Location {
	if s.FacilityLocation != nil {
		return s.FacilityLocation
	}
	return time.UTC
}

func (s *StaffService) mutate(fn func(tx database.Querier) (*models.AuditLog, error)) error {
	tx, err := s.Store.BeginTx()
	if err != nil {
		return err
	}
	audit, err := fn(tx)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Create persists a new staff profile with its CREATE audit row.
func (s *StaffService) Create(staff *models.Staff, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		if err := database.InsertStaff(tx, staff); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityStaff, staff.ID, models.AuditCreate, performedBy, nil, staff, meta), nil
	})
}

// Update applies a model-level mutation to a loaded profile and persists it
// with an UPDATE audit row.
func (s *StaffService) Update(id, performedBy string, meta *models.RequestMeta, apply func(*models.Staff)) (models.Staff, error) {
	var updated models.Staff
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		staff, err := database.GetStaffByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := staff
		apply(&staff)
		if err := database.UpdateStaff(tx, &staff); err != nil {
			return nil, err
		}
		updated = staff
		return models.NewAuditLog(models.EntityStaff, id, models.AuditUpdate, performedBy, before, staff, meta), nil
	})
	return updated, err
}

// Deactivate ends an engagement; a nil endDate means now.
func (s *StaffService) Deactivate(id, performedBy string, endDate *time.Time, meta *models.RequestMeta) (models.Staff, error) {
	return s.Update(id, performedBy, meta, func(staff *models.Staff) {
		staff.Deactivate(endDate)
	})
}

// Reactivate restores a profile and clears its end date.
func (s *StaffService) Reactivate(id, performedBy string, meta *models.RequestMeta) (models.Staff, error) {
	return s.Update(id, performedBy, meta, (*models.Staff).Reactivate)
}

// Delete removes a staff profile with its DELETE audit row.
func (s *StaffService) Delete(id, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		staff, err := database.GetStaffByID(tx, id)
		if err != nil {
			return nil, err
		}
		if err := database.DeleteStaff(tx, id); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityStaff, id, models.AuditDelete, performedBy, staff, nil, meta), nil
	})
}

// checkStaffAccess applies the denial rules in order against one row.
func (s *StaffService) checkStaffAccess(staff *models.Staff, unit string, t time.Time) *AccessDenialReason {
	reason := func(r AccessDenialReason) *AccessDenialReason { return &r }
	if !staff.Active {
		return reason(DenialInactive)
	}
	if !staff.IsAuthorizedForUnit(unit) {
		return reason(DenialUnit)
	}
	if !staff.IsWorkingAt(t, s.location()) {
		return reason(DenialOutsideShift)
	}
	return nil
}

// CheckAccess verifies an access code against a unit at the instant t:
// profile must exist, be active, be authorized for the unit, and be inside
// its scheduled window in the facility timezone. A granted check stamps the
// profile's last entry and records the update in the audit trail. The rules
// are re-checked against a fresh row inside the write transaction, so a
// profile deactivated after the first read is still denied and never
// overwritten.
func (s *StaffService) CheckAccess(accessCode, unit string, t time.Time, meta *models.RequestMeta) (AccessCheckResult, error) {
	deny := func(reason *AccessDenialReason, staffID string) AccessCheckResult {
		return AccessCheckResult{Allowed: false, Reason: reason, StaffID: staffID}
	}

	reader, err := s.Store.Reader()
	if err != nil {
		return AccessCheckResult{}, err
	}
	staff, err := database.GetStaffByAccessCode(reader, accessCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			reason := DenialUnknownCode
			return deny(&reason, ""), nil
		}
		return AccessCheckResult{}, err
	}
	if reason := s.checkStaffAccess(&staff, unit, t); reason != nil {
		return deny(reason, staff.ID), nil
	}

	tx, err := s.Store.BeginTx()
	if err != nil {
		return AccessCheckResult{}, err
	}
	fresh, err := database.GetStaffByID(tx, staff.ID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			reason := DenialUnknownCode
			return deny(&reason, ""), nil
		}
		return AccessCheckResult{}, err
	}
	if reason := s.checkStaffAccess(&fresh, unit, t); reason != nil {
		tx.Rollback()
		return deny(reason, fresh.ID), nil
	}

	before := fresh
	fresh.RecordEntry()
	if err := database.UpdateStaff(tx, &fresh); err != nil {
		tx.Rollback()
		return AccessCheckResult{}, err
	}
	audit := models.NewAuditLog(models.EntityStaff, fresh.ID, models.AuditUpdate, fresh.ID,
		map[string]interface{}{"last_entry": before.LastEntry},
		map[string]interface{}{"last_entry": fresh.LastEntry, "unit": unit}, meta)
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return AccessCheckResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return AccessCheckResult{}, err
	}

	return AccessCheckResult{Allowed: true, StaffID: fresh.ID}, nil
}
