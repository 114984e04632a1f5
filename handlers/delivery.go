package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/services"
	"github.com/ironvale/gatekeeperbackend/utils"
)

type DeliveryHandler struct {
	Store   *database.Store
	Service *services.DeliveryService
}

func (dh *DeliveryHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string  `json:"name"`
		PhoneNumber          string  `json:"phone_number"`
		CompanyName          string  `json:"company_name"`
		DeliveryType         string  `json:"delivery_type"`
		RecipientUnit        string  `json:"recipient_unit"`
		RecipientName        string  `json:"recipient_name"`
		ExpectedDeliveryTime *string `json:"expected_delivery_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CompanyName) == "" ||
		strings.TrimSpace(req.RecipientUnit) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: name, company_name, recipient_unit"})
		return
	}

	delivery := models.NewDelivery(req.Name, req.PhoneNumber, req.CompanyName, req.DeliveryType,
		req.RecipientUnit, req.RecipientName, utils.ParseTimePtr(req.ExpectedDeliveryTime))
	if err := dh.Service.Create(delivery, performer(r), requestMeta(r)); err != nil {
		log.Printf("Error creating delivery '%s': %v", req.Name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create delivery"})
		return
	}
	writeJSON(w, http.StatusCreated, delivery)
}

func (dh *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	var status *models.DeliveryStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.DeliveryStatus(s)
		if !st.IsValid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status filter"})
			return
		}
		status = &st
	}

	reader, err := dh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve deliveries"})
		return
	}
	deliveries, err := database.ListDeliveries(reader, status)
	if err != nil {
		log.Printf("Error listing deliveries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve deliveries"})
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

func (dh *DeliveryHandler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "delivery_id")

	reader, err := dh.Store.Reader()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve delivery"})
		return
	}
	delivery, err := database.GetDeliveryByID(reader, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Delivery not found"})
		} else {
			log.Printf("Error getting delivery %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve delivery"})
		}
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

// GrantAccess issues a time-boxed access code for a delivery window.
func (dh *DeliveryHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "delivery_id")
	var req struct {
		AccessCode string `json:"access_code"`
		ExpiresIn  int    `json:"expires_in_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.AccessCode) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: access_code"})
		return
	}
	if req.ExpiresIn <= 0 {
		req.ExpiresIn = 30
	}

	now := time.Now().UTC()
	delivery, err := dh.Service.GrantAccess(id, req.AccessCode, now, now.Add(time.Duration(req.ExpiresIn)*time.Minute), performer(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Delivery not found"})
		} else {
			log.Printf("Error granting delivery access %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to grant access"})
		}
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (dh *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "delivery_id")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	status := models.DeliveryStatus(req.Status)
	if !status.IsValid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status"})
		return
	}

	delivery, err := dh.Service.UpdateStatus(id, status, performer(r), requestMeta(r))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Delivery not found"})
		} else {
			log.Printf("Error updating delivery status %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update delivery"})
		}
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}
