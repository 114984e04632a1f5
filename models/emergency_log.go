package models

import (
	"time"

	"github.com/google/uuid"
)

// EmergencyLog is a transient view of one emergency_logs row. Rows are
// append-only except for the single deactivation update; an active emergency
// stays active until explicitly deactivated.
type EmergencyLog struct {
	ID               string     `json:"id"`
	EmergencyType    string     `json:"emergency_type"`
	ActivatedBy      string     `json:"activated_by"`
	ActivationTime   time.Time  `json:"activation_time"`
	DeactivationTime *time.Time `json:"deactivation_time,omitempty"`
	DeactivatedBy    *string    `json:"deactivated_by,omitempty"`
	OverrideReason   *string    `json:"override_reason,omitempty"`
	AffectedEntries  []string   `json:"affected_entries"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewEmergencyLog creates an active emergency record.
func NewEmergencyLog(emergencyType, activatedBy string, overrideReason *string) *EmergencyLog {
	now := time.Now().UTC()
	return &EmergencyLog{
		ID:              uuid.NewString(),
		EmergencyType:   emergencyType,
		ActivatedBy:     activatedBy,
		ActivationTime:  now,
		OverrideReason:  overrideReason,
		AffectedEntries: []string{},
		CreatedAt:       now,
	}
}

// IsActive reports whether the emergency has not yet been deactivated.
func (e *EmergencyLog) IsActive() bool {
	return e.DeactivationTime == nil
}

// Deactivate records the single permitted update: deactivation time and
// actor.
func (e *EmergencyLog) Deactivate(deactivatedBy string, at time.Time) {
	t := at.UTC()
	e.DeactivationTime = &t
	e.DeactivatedBy = &deactivatedBy
}

// AppendAffectedEntry records an entry id that passed during the emergency
// window.
func (e *EmergencyLog) AppendAffectedEntry(entryID string) {
	e.AffectedEntries = append(e.AffectedEntries, entryID)
}
