package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/services"
)

type AssessmentHandler struct {
	Store   *database.Store
	Service *services.AssessmentService
}

// CreateAssessment accepts factor scores and anomalies from the upstream
// analysis producer and persists a new assessment for the visitor. The
// response carries the stored row plus the decision payload for downstream
// consumers.
func (ah *AssessmentHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	visitorID := chi.URLParam(r, "visitor_id")

	var req services.AssessmentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	for _, a := range req.Anomalies {
		if !a.Severity.IsValid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid anomaly severity: " + string(a.Severity)})
			return
		}
	}

	assessment, decision, err := ah.Service.AssessVisitor(visitorID, performer(r), req, requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Visitor not found"})
		} else {
			log.Printf("Error assessing visitor %s: %v", visitorID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to persist assessment"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"assessment": assessment,
		"decision":   decision,
	})
}

// ListAssessments returns a visitor's assessment history, newest-first.
func (ah *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	visitorID := chi.URLParam(r, "visitor_id")

	reader, err := ah.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve assessments"})
		return
	}
	assessments, err := database.ListRiskAssessmentsByVisitor(reader, visitorID)
	if err != nil {
		log.Printf("Error listing assessments for visitor %s: %v", visitorID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve assessments"})
		return
	}
	writeJSON(w, http.StatusOK, assessments)
}
