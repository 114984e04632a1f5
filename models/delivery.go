package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks a delivery through its lifecycle.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDING"
	DeliveryInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryCompleted  DeliveryStatus = "COMPLETED"
	DeliveryFailed     DeliveryStatus = "FAILED"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliveryInProgress, DeliveryCompleted, DeliveryFailed:
		return true
	default:
		return false
	}
}

// Delivery is a transient view of one delivery_personnel row.
type Delivery struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	PhoneNumber          string         `json:"phone_number"`
	CompanyName          string         `json:"company_name"`
	DeliveryType         string         `json:"delivery_type"`
	RecipientUnit        string         `json:"recipient_unit"`
	RecipientName        string         `json:"recipient_name"`
	ExpectedDeliveryTime *time.Time     `json:"expected_delivery_time,omitempty"`
	ActualDeliveryTime   *time.Time     `json:"actual_delivery_time,omitempty"`
	AccessCode           *string        `json:"access_code,omitempty"`
	AccessGrantedAt      *time.Time     `json:"access_granted_at,omitempty"`
	AccessExpiresAt      *time.Time     `json:"access_expires_at,omitempty"`
	DeliveryStatus       DeliveryStatus `json:"delivery_status"`
	Notes                *string        `json:"notes,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewDelivery creates a PENDING delivery record.
func NewDelivery(name, phoneNumber, companyName, deliveryType, recipientUnit, recipientName string, expected *time.Time) *Delivery {
	now := time.Now().UTC()
	return &Delivery{
		ID:                   uuid.NewString(),
		Name:                 name,
		PhoneNumber:          phoneNumber,
		CompanyName:          companyName,
		DeliveryType:         deliveryType,
		RecipientUnit:        recipientUnit,
		RecipientName:        recipientName,
		ExpectedDeliveryTime: expected,
		DeliveryStatus:       DeliveryPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// GrantAccess issues a time-boxed access code valid from grantedAt until
// expiresAt.
func (d *Delivery) GrantAccess(code string, grantedAt, expiresAt time.Time) {
	g, e := grantedAt.UTC(), expiresAt.UTC()
	d.AccessCode = &code
	d.AccessGrantedAt = &g
	d.AccessExpiresAt = &e
	d.UpdatedAt = time.Now().UTC()
}

// AccessValidAt reports whether the issued access code is usable at t.
func (d *Delivery) AccessValidAt(t time.Time) bool {
	if d.AccessCode == nil || d.AccessGrantedAt == nil || d.AccessExpiresAt == nil {
		return false
	}
	return !t.Before(*d.AccessGrantedAt) && !t.After(*d.AccessExpiresAt)
}

// SetStatus moves the delivery to the given status, stamping the actual
// delivery time on completion.
func (d *Delivery) SetStatus(status DeliveryStatus) {
	now := time.Now().UTC()
	d.DeliveryStatus = status
	if status == DeliveryCompleted && d.ActualDeliveryTime == nil {
		d.ActualDeliveryTime = &now
	}
	d.UpdatedAt = now
}
