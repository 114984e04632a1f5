package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus tracks where a visitor sits in the decision cycle.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalDenied   ApprovalStatus = "DENIED"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalDenied:
		return true
	default:
		return false
	}
}

// SyncStatus marks whether a locally created record has been reconciled with
// a remote system. Stored only; reconciliation itself happens elsewhere.
type SyncStatus string

const (
	SyncLocal    SyncStatus = "LOCAL"
	SyncSynced   SyncStatus = "SYNCED"
	SyncConflict SyncStatus = "CONFLICT"
)

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncLocal, SyncSynced, SyncConflict:
		return true
	default:
		return false
	}
}

// FlagThreshold is the risk score at or above which a visitor is flagged.
const FlagThreshold = 60.0

// Visitor is a transient view of one visitors row. RiskScore and Flagged are
// a cached projection of the latest risk assessment; Flagged must equal
// RiskScore >= FlagThreshold after every score update.
type Visitor struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	PhoneNumber    string         `json:"phone_number"`
	Purpose        string         `json:"purpose"`
	IntendedUnit   string         `json:"intended_unit"`
	VehicleNumber  *string        `json:"vehicle_number,omitempty"`
	EntryTime      *time.Time     `json:"entry_time,omitempty"`
	ExitTime       *time.Time     `json:"exit_time,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovedBy     *string        `json:"approved_by,omitempty"`
	ApprovalTime   *time.Time     `json:"approval_time,omitempty"`
	DenialReason   *string        `json:"denial_reason,omitempty"`
	RiskScore      float64        `json:"risk_score"`
	Flagged        bool           `json:"flagged"`
	SyncStatus     SyncStatus     `json:"sync_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewVisitor creates a PENDING, unflagged, locally created visitor.
func NewVisitor(name, phoneNumber, purpose, intendedUnit string, vehicleNumber *string) *Visitor {
	now := time.Now().UTC()
	return &Visitor{
		ID:             uuid.NewString(),
		Name:           name,
		PhoneNumber:    phoneNumber,
		Purpose:        purpose,
		IntendedUnit:   intendedUnit,
		VehicleNumber:  vehicleNumber,
		ApprovalStatus: ApprovalPending,
		SyncStatus:     SyncLocal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Approve records an approval decision.
func (v *Visitor) Approve(approvedBy string) {
	now := time.Now().UTC()
	v.ApprovalStatus = ApprovalApproved
	v.ApprovedBy = &approvedBy
	v.ApprovalTime = &now
	v.DenialReason = nil
	v.UpdatedAt = now
}

// Deny records a denial decision with its reason.
func (v *Visitor) Deny(reason string) {
	now := time.Now().UTC()
	v.ApprovalStatus = ApprovalDenied
	v.DenialReason = &reason
	v.ApprovalTime = &now
	v.UpdatedAt = now
}

// ResetDecision returns the visitor to PENDING for a new decision cycle, as
// on re-entry. Entry/exit marks are untouched.
func (v *Visitor) ResetDecision() {
	v.ApprovalStatus = ApprovalPending
	v.ApprovedBy = nil
	v.ApprovalTime = nil
	v.DenialReason = nil
	v.UpdatedAt = time.Now().UTC()
}

// MarkEntry stamps the entry time. Independent of approval state.
func (v *Visitor) MarkEntry() {
	now := time.Now().UTC()
	v.EntryTime = &now
	v.UpdatedAt = now
}

// MarkExit stamps the exit time.
func (v *Visitor) MarkExit() {
	now := time.Now().UTC()
	v.ExitTime = &now
	v.UpdatedAt = now
}

// UpdateRiskScore sets the cached risk projection, keeping the flagged
// invariant in the same assignment.
func (v *Visitor) UpdateRiskScore(score float64) {
	v.RiskScore = score
	v.Flagged = score >= FlagThreshold
	v.UpdatedAt = time.Now().UTC()
}
