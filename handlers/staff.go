package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/services"
	"github.com/ironvale/gatekeeperbackend/utils"
)

type StaffHandler struct {
	Store   *database.Store
	Service *services.StaffService
}

func (sh *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string              `json:"name"`
		PhoneNumber     string              `json:"phone_number"`
		ServiceType     string              `json:"service_type"`
		AuthorizedUnits []string            `json:"authorized_units"`
		WorkSchedule    models.WorkSchedule `json:"work_schedule"`
		AccessCode      string              `json:"access_code"`
		StartDate       string              `json:"start_date"`
		Address         *string             `json:"address"`
		BiometricID     *string             `json:"biometric_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	serviceType := models.ServiceType(req.ServiceType)
	if !serviceType.IsValid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid service_type"})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.AccessCode) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: name, access_code"})
		return
	}
	startDate := utils.ParseTime(req.StartDate)
	if startDate == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid start_date, expected RFC 3339"})
		return
	}

	staff := models.NewStaff(req.Name, req.PhoneNumber, serviceType, req.AuthorizedUnits, req.WorkSchedule, req.AccessCode, *startDate)
	staff.Address = req.Address
	staff.BiometricID = req.BiometricID
	if err := sh.Service.Create(staff, performer(r), requestMeta(r)); err != nil {
		log.Printf("Error creating staff '%s': %v", req.Name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create staff profile"})
		return
	}
	writeJSON(w, http.StatusCreated, staff)
}

func (sh *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if a := r.URL.Query().Get("active"); a != "" {
		parsed, err := strconv.ParseBool(a)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid active filter"})
			return
		}
		active = &parsed
	}

	reader, err := sh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve staff"})
		return
	}
	staff, err := database.ListStaff(reader, active)
	if err != nil {
		log.Printf("Error listing staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve staff"})
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (sh *StaffHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "staff_id")

	reader, err := sh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve staff profile"})
		return
	}
	staff, err := database.GetStaffByID(reader, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Staff profile not found"})
		} else {
			log.Printf("Error getting staff %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve staff profile"})
		}
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (sh *StaffHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "staff_id")
	var req struct {
		WorkSchedule models.WorkSchedule `json:"work_schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	staff, err := sh.Service.Update(id, performer(r), requestMeta(r), func(s *models.Staff) {
		s.UpdateSchedule(req.WorkSchedule)
	})
	if err != nil {
		sh.writeUpdateError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (sh *StaffHandler) DeactivateStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "staff_id")
	var req struct {
		EndDate *string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	endDate := utils.ParseTimePtr(req.EndDate)

	staff, err := sh.Service.Deactivate(id, performer(r), endDate, requestMeta(r))
	if err != nil {
		sh.writeUpdateError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (sh *StaffHandler) ReactivateStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "staff_id")
	staff, err := sh.Service.Reactivate(id, performer(r), requestMeta(r))
	if err != nil {
		sh.writeUpdateError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (sh *StaffHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "staff_id")
	if err := sh.Service.Delete(id, performer(r), requestMeta(r)); err != nil {
		sh.writeUpdateError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAccess verifies a staff access code against a unit at the current
// instant, evaluated in the facility timezone.
func (sh *StaffHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessCode string `json:"access_code"`
		Unit       string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessCode == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: access_code, unit"})
		return
	}

	result, err := sh.Service.CheckAccess(req.AccessCode, req.Unit, time.Now(), requestMeta(r))
	if err != nil {
		log.Printf("Error checking staff access: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to check access"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (sh *StaffHandler) writeUpdateError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Staff profile not found"})
		return
	}
	log.Printf("Error updating staff %s: %v", id, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update staff profile"})
}
