package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/services"
)

type EmergencyHandler struct {
	Store   *database.Store
	Service *services.EmergencyService
}

func (eh *EmergencyHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmergencyType  string  `json:"emergency_type"`
		ActivatedBy    string  `json:"activated_by"`
		OverrideReason *string `json:"override_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.EmergencyType) == "" || strings.TrimSpace(req.ActivatedBy) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: emergency_type, activated_by"})
		return
	}

	entry, err := eh.Service.Activate(req.EmergencyType, req.ActivatedBy, req.OverrideReason, requestMeta(r))
	if err != nil {
		log.Printf("Error activating emergency: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to activate emergency"})
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (eh *EmergencyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "emergency_id")
	var req struct {
		DeactivatedBy string `json:"deactivated_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DeactivatedBy) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: deactivated_by"})
		return
	}

	entry, err := eh.Service.Deactivate(id, req.DeactivatedBy, requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Active emergency not found"})
		} else {
			log.Printf("Error deactivating emergency %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to deactivate emergency"})
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (eh *EmergencyHandler) RecordAffectedEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "emergency_id")
	var req struct {
		EntryID string `json:"entry_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.EntryID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: entry_id"})
		return
	}

	entry, err := eh.Service.RecordAffectedEntry(id, req.EntryID, performer(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Emergency not found"})
		} else {
			log.Printf("Error recording affected entry for emergency %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to record affected entry"})
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (eh *EmergencyHandler) ListEmergencies(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if a := r.URL.Query().Get("active"); a != "" {
		parsed, err := strconv.ParseBool(a)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid active filter"})
			return
		}
		activeOnly = parsed
	}

	reader, err := eh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve emergencies"})
		return
	}
	entries, err := database.ListEmergencyLogs(reader, activeOnly)
	if err != nil {
		log.Printf("Error listing emergencies: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve emergencies"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (eh *EmergencyHandler) GetEmergency(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "emergency_id")

	reader, err := eh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve emergency"})
		return
	}
	entry, err := database.GetEmergencyLogByID(reader, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Emergency not found"})
		} else {
			log.Printf("Error getting emergency %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve emergency"})
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
