package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ironvale/gatekeeperbackend/utils"
)

// AuditAction is the kind of state change an audit row records.
type AuditAction string

const (
	AuditCreate   AuditAction = "CREATE"
	AuditUpdate   AuditAction = "UPDATE"
	AuditDelete   AuditAction = "DELETE"
	AuditApprove  AuditAction = "APPROVE"
	AuditDeny     AuditAction = "DENY"
	AuditOverride AuditAction = "OVERRIDE"
)

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete, AuditApprove, AuditDeny, AuditOverride:
		return true
	default:
		return false
	}
}

// Tracked entity type labels for audit rows.
const (
	EntityVisitor   = "visitor"
	EntityStaff     = "staff"
	EntityDelivery  = "delivery"
	EntityEmergency = "emergency"
	EntitySystem    = "system"
)

// RequestMeta is optional network/client metadata attached to an audit row.
type RequestMeta struct {
	IPAddress *string
	UserAgent *string
}

// AuditLog is one strictly append-only audit_logs row. It is written in the
// same transaction as the mutation it records, so a rolled-back mutation
// leaves no audit row.
type AuditLog struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Action      AuditAction     `json:"action"`
	PerformedBy string          `json:"performed_by"`
	OldValues   json.RawMessage `json:"old_values,omitempty"`
	NewValues   json.RawMessage `json:"new_values,omitempty"`
	IPAddress   *string         `json:"ip_address,omitempty"`
	UserAgent   *string         `json:"user_agent,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewAuditLog builds an audit row, snapshotting oldValues/newValues as
// opaque JSON payloads. Nil snapshots stay absent.
func NewAuditLog(entityType, entityID string, action AuditAction, performedBy string, oldValues, newValues interface{}, meta *RequestMeta) *AuditLog {
	entry := &AuditLog{
		ID:          uuid.NewString(),
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
	}
	if oldValues != nil {
		entry.OldValues = json.RawMessage(utils.SafeMarshal(oldValues))
	}
	if newValues != nil {
		entry.NewValues = json.RawMessage(utils.SafeMarshal(newValues))
	}
	if meta != nil {
		entry.IPAddress = meta.IPAddress
		entry.UserAgent = meta.UserAgent
	}
	return entry
}
