package handlers

import (
	"log"
	"net/http"

	"github.com/ironvale/gatekeeperbackend/database"
)

type AuditHandler struct {
	Store *database.Store
}

// ListByEntity returns the audit history of one entity, newest-first.
func (ah *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	if entityType == "" || entityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required query parameters: entity_type, entity_id"})
		return
	}

	reader, err := ah.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve audit logs"})
		return
	}
	entries, err := database.ListAuditLogsByEntity(reader, entityType, entityID)
	if err != nil {
		log.Printf("Error listing audit logs for %s %s: %v", entityType, entityID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve audit logs"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
