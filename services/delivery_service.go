package services

import (
	"time"

	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

// DeliveryService manages delivery personnel records and their time-boxed
// access codes.
type DeliveryService struct {
	Store *database.Store
}

func (s *DeliveryService) mutate(fn func(tx database.Querier) (*models.AuditLog, error)) error {
	tx, err := s.Store.BeginTx()
	if err != nil {
		return err
	}
	audit, err := fn(tx)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := database.InsertAuditLog(tx, audit); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Create persists a new delivery record with its CREATE audit row.
func (s *DeliveryService) Create(d *models.Delivery, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		if err := database.InsertDelivery(tx, d); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityDelivery, d.ID, models.AuditCreate, performedBy, nil, d, meta), nil
	})
}

// GrantAccess issues a time-boxed access code for the delivery window.
func (s *DeliveryService) GrantAccess(id, code string, grantedAt, expiresAt time.Time, performedBy string, meta *models.RequestMeta) (models.Delivery, error) {
	var updated models.Delivery
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		delivery, err := database.GetDeliveryByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := delivery
		delivery.GrantAccess(code, grantedAt, expiresAt)
		if err := database.UpdateDelivery(tx, &delivery); err != nil {
			return nil, err
		}
		updated = delivery
		return models.NewAuditLog(models.EntityDelivery, id, models.AuditUpdate, performedBy, before, delivery, meta), nil
	})
	return updated, err
}

// UpdateStatus moves a delivery through its lifecycle, stamping the actual
// delivery time on completion.
func (s *DeliveryService) UpdateStatus(id string, status models.DeliveryStatus, performedBy string, meta *models.RequestMeta) (models.Delivery, error) {
	var updated models.Delivery
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		delivery, err := database.GetDeliveryByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := delivery
		delivery.SetStatus(status)
		if err := database.UpdateDelivery(tx, &delivery); err != nil {
			return nil, err
		}
		updated = delivery
		return models.NewAuditLog(models.EntityDelivery, id, models.AuditUpdate, performedBy, before, delivery, meta), nil
	})
	return updated, err
}

// Delete removes a delivery record with its DELETE audit row.
func (s *DeliveryService) Delete(id, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		delivery, err := database.GetDeliveryByID(tx, id)
		if err != nil {
			return nil, err
		}
		if err := database.DeleteDelivery(tx, id); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityDelivery, id, models.AuditDelete, performedBy, delivery, nil, meta), nil
	})
}
