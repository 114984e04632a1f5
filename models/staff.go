package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceType is the kind of work a domestic staff member performs.
type ServiceType string

const (
	ServiceMaid     ServiceType = "MAID"
	ServiceCook     ServiceType = "COOK"
	ServiceDriver   ServiceType = "DRIVER"
	ServiceGardener ServiceType = "GARDENER"
	ServiceSecurity ServiceType = "SECURITY"
	ServiceOther    ServiceType = "OTHER"
)

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceMaid, ServiceCook, ServiceDriver, ServiceGardener, ServiceSecurity, ServiceOther:
		return true
	default:
		return false
	}
}

// UnitAll is the sentinel authorized-unit entry meaning universal access.
const UnitAll = "ALL"

// ShiftWindow is one day's working window, "HH:MM" local to the facility,
// both ends inclusive.
type ShiftWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkSchedule maps lowercase three-letter day keys ("mon".."sun") to shift
// windows. Days absent from the map are off days.
type WorkSchedule map[string]ShiftWindow

// Staff is a transient view of one domestic_staff row.
type Staff struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	PhoneNumber      string       `json:"phone_number"`
	Address          *string      `json:"address,omitempty"`
	EmergencyContact *string      `json:"emergency_contact,omitempty"`
	ServiceType      ServiceType  `json:"service_type"`
	AuthorizedUnits  []string     `json:"authorized_units"`
	WorkSchedule     WorkSchedule `json:"work_schedule"`
	AccessCode       string       `json:"access_code"`
	BiometricID      *string      `json:"biometric_id,omitempty"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          *time.Time   `json:"end_date,omitempty"`
	Active           bool         `json:"active"`
	LastEntry        *time.Time   `json:"last_entry,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewStaff creates an active staff profile. EndDate stays absent while the
// profile is active.
func NewStaff(name, phoneNumber string, serviceType ServiceType, units []string, schedule WorkSchedule, accessCode string, startDate time.Time) *Staff {
	now := time.Now().UTC()
	if units == nil {
		units = []string{}
	}
	if schedule == nil {
		schedule = WorkSchedule{}
	}
	return &Staff{
		ID:              uuid.NewString(),
		Name:            name,
		PhoneNumber:     phoneNumber,
		ServiceType:     serviceType,
		AuthorizedUnits: units,
		WorkSchedule:    schedule,
		AccessCode:      accessCode,
		StartDate:       startDate,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsAuthorizedForUnit reports whether the staff member may access the given
// unit, honoring the UnitAll sentinel.
func (s *Staff) IsAuthorizedForUnit(unit string) bool {
	for _, u := range s.AuthorizedUnits {
		if u == UnitAll || u == unit {
			return true
		}
	}
	return false
}

// IsWorkingAt reports whether the instant t falls inside the staff member's
// scheduled window, evaluated in the facility's timezone. Never reads ambient
// process time or timezone.
func (s *Staff) IsWorkingAt(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	day := strings.ToLower(local.Weekday().String()[:3])
	window, ok := s.WorkSchedule[day]
	if !ok {
		return false
	}
	// "HH:MM" compares correctly as text
	current := local.Format("15:04")
	return current >= window.Start && current <= window.End
}

// RecordEntry stamps the most recent facility entry.
func (s *Staff) RecordEntry() {
	now := time.Now().UTC()
	s.LastEntry = &now
	s.UpdatedAt = now
}

// Deactivate ends the engagement. A nil endDate means now.
func (s *Staff) Deactivate(endDate *time.Time) {
	now := time.Now().UTC()
	if endDate == nil {
		endDate = &now
	}
	s.Active = false
	s.EndDate = endDate
	s.UpdatedAt = now
}

// Reactivate restores the profile, clearing the end date to hold the
// end-date-absent-while-active invariant.
func (s *Staff) Reactivate() {
	s.Active = true
	s.EndDate = nil
	s.UpdatedAt = time.Now().UTC()
}

// UpdateSchedule replaces the weekly schedule.
func (s *Staff) UpdateSchedule(schedule WorkSchedule) {
	if schedule == nil {
		schedule = WorkSchedule{}
	}
	s.WorkSchedule = schedule
	s.UpdatedAt = time.Now().UTC()
}

// AddAuthorizedUnit grants access to a unit if not already present.
func (s *Staff) AddAuthorizedUnit(unit string) {
	for _, u := range s.AuthorizedUnits {
		if u == unit {
			return
		}
	}
	s.AuthorizedUnits = append(s.AuthorizedUnits, unit)
	s.UpdatedAt = time.Now().UTC()
}

// RemoveAuthorizedUnit revokes access to a unit.
func (s *Staff) RemoveAuthorizedUnit(unit string) {
	for i, u := range s.AuthorizedUnits {
		if u == unit {
			s.AuthorizedUnits = append(s.AuthorizedUnits[:i], s.AuthorizedUnits[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return
		}
	}
}
