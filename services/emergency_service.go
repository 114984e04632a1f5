package services

import (
	"time"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

// EmergencyService manages emergency overrides. Emergency rows are
// append-only except the single deactivation update, and an emergency stays
// active until explicitly deactivated.
type EmergencyService struct {
	Store *database.Store
}

// Activate opens a new emergency and records its OVERRIDE audit row in the
// same transaction.
func (s *EmergencyService) Activate(emergencyType, activatedBy string, overrideReason *string, meta *models.RequestMeta) (*models.EmergencyLog, error) {
	entry := models.NewEmergencyLog(emergencyType, activatedBy, overrideReason)

	tx, err := s.Store.BeginTx()
	if err != nil {
		return nil, err
	}
	if err := database.InsertEmergencyLog(tx, entry); err != nil {
		tx.Rollback()
		return nil, err
	}
	audit := models.NewAuditLog(models.EntityEmergency, entry.ID, models.AuditOverride, activatedBy, nil, entry, meta)
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Deactivate closes an active emergency, the only permitted update to its
// row. Deactivating an already-closed emergency reports sql.ErrNoRows.
func (s *EmergencyService) Deactivate(id, deactivatedBy string, meta *models.RequestMeta) (models.EmergencyLog, error) {
	now := time.Now().UTC()

	tx, err := s.Store.BeginTx()
	if err != nil {
		return models.EmergencyLog{}, err
	}
	before, err := database.GetEmergencyLogByID(tx, id)
	if err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	if err := database.DeactivateEmergencyLog(tx, id, deactivatedBy, now); err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	after := before
	after.Deactivate(deactivatedBy, now)
	audit := models.NewAuditLog(models.EntityEmergency, id, models.AuditUpdate, deactivatedBy, before, after, meta)
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.EmergencyLog{}, err
	}
	return after, nil
}

// RecordAffectedEntry appends an entry id to the emergency's affected list,
// recording the update in the audit trail in the same transaction.
func (s *EmergencyService) RecordAffectedEntry(id, entryID, performedBy string, meta *models.RequestMeta) (models.EmergencyLog, error) {
	tx, err := s.Store.BeginTx()
	if err != nil {
		return models.EmergencyLog{}, err
	}
	entry, err := database.GetEmergencyLogByID(tx, id)
	if err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	before := make([]string, len(entry.AffectedEntries))
	copy(before, entry.AffectedEntries)
	entry.AppendAffectedEntry(entryID)
	if err := database.AppendEmergencyAffectedEntries(tx, id, entry.AffectedEntries); err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	audit := models.NewAuditLog(models.EntityEmergency, id, models.AuditUpdate, performedBy,
		map[string]interface{}{"affected_entries": before},
		map[string]interface{}{"affected_entries": entry.AffectedEntries}, meta)
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return models.EmergencyLog{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.EmergencyLog{}, err
	}
	return entry, nil
}
