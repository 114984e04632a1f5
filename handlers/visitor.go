package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// requestMeta captures network/client metadata for audit rows.
func requestMeta(r *http.Request) *models.RequestMeta {
	meta := &models.RequestMeta{}
	if ip := strings.TrimSpace(r.RemoteAddr); ip != "" {
		meta.IPAddress = &ip
	}
	if ua := r.UserAgent(); ua != "" {
		meta.UserAgent = &ua
	}
	return meta
}

// performer identifies who initiated the request. Authentication lives
// outside this service; the upstream layer sets X-Performed-By.
func performer(r *http.Request) string {
	if p := strings.TrimSpace(r.Header.Get("X-Performed-By")); p != "" {
		return p
	}
	return "system"
}

type VisitorHandler struct {
	Store   *database.Store
	Service *services.VisitorService
}

func (vh *VisitorHandler) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string  `json:"name"`
		PhoneNumber   string  `json:"phone_number"`
		Purpose       string  `json:"purpose"`
		IntendedUnit  string  `json:"intended_unit"`
		VehicleNumber *string `json:"vehicle_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.PhoneNumber) == "" ||
		strings.TrimSpace(req.Purpose) == "" || strings.TrimSpace(req.IntendedUnit) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: name, phone_number, purpose, intended_unit"})
		return
	}

	visitor := models.NewVisitor(req.Name, req.PhoneNumber, req.Purpose, req.IntendedUnit, req.VehicleNumber)
	if err := vh.Service.Create(visitor, performer(r), requestMeta(r)); err != nil {
		log.Printf("Error creating visitor '%s': %v", req.Name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create visitor"})
		return
	}
	writeJSON(w, http.StatusCreated, visitor)
}

func (vh *VisitorHandler) ListVisitors(w http.ResponseWriter, r *http.Request) {
	var status *models.ApprovalStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.ApprovalStatus(s)
		if !st.IsValid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status filter"})
			return
		}
		status = &st
	}

	reader, err := vh.Store.Reader()
	if err != nil {
		log.Printf("Error listing visitors: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve visitors"})
		return
	}
	visitors, err := database.ListVisitors(reader, status)
	if err != nil {
		log.Printf("Error listing visitors: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve visitors"})
		return
	}
	writeJSON(w, http.StatusOK, visitors)
}

func (vh *VisitorHandler) GetVisitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "visitor_id")

	reader, err := vh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve visitor"})
		return
	}
	visitor, err := database.GetVisitorByID(reader, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error getting visitor %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve visitor"})
		}
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func (vh *VisitorHandler) ApproveVisitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "visitor_id")
	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ApprovedBy) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: approved_by"})
		return
	}

	visitor, err := vh.Service.Approve(id, req.ApprovedBy, requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error approving visitor %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to approve visitor"})
		}
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func (vh *VisitorHandler) DenyVisitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "visitor_id")
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: reason"})
		return
	}

	visitor, err := vh.Service.Deny(id, req.Reason, performer(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error denying visitor %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to deny visitor"})
		}
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func (vh *VisitorHandler) MarkEntry(w http.ResponseWriter, r *http.Request) {
	vh.stamp(w, r, vh.Service.MarkEntry)
}

func (vh *VisitorHandler) MarkExit(w http.ResponseWriter, r *http.Request) {
	vh.stamp(w, r, vh.Service.MarkExit)
}

func (vh *VisitorHandler) stamp(w http.ResponseWriter, r *http.Request, apply func(string, string, *models.RequestMeta) (models.Visitor, error)) {
	id := chi.URLParam(r, "visitor_id")
	visitor, err := apply(id, performer(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error updating visitor %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update visitor"})
		}
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func (vh *VisitorHandler) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "visitor_id")
	if err := vh.Service.Delete(id, performer(r), requestMeta(r)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error deleting visitor %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete visitor"})
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
