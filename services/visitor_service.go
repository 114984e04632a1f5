package services

import (
	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/models"
)

// VisitorService handles the visitor lifecycle. Every mutation commits its
// audit row in the same transaction, so a rolled-back mutation leaves no
// audit trail.
type VisitorService struct {
	Store *database.Store
}

// mutate runs fn inside one transaction and appends the audit row fn
// returns. Rollback on any failure.
func (s *VisitorService) mutate(fn func(tx database.Querier) (*models.AuditLog, error)) error {
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

// Create persists a new visitor with its CREATE audit row.
func (s *VisitorService) Create(v *models.Visitor, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		if err := database.InsertVisitor(tx, v); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityVisitor, v.ID, models.AuditCreate, performedBy, nil, v, meta), nil
	})
}

// Approve records an approval decision.
func (s *VisitorService) Approve(id, approvedBy string, meta *models.RequestMeta) (models.Visitor, error) {
	var updated models.Visitor
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		visitor, err := database.GetVisitorByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := visitor
		visitor.Approve(approvedBy)
		if err := database.UpdateVisitor(tx, &visitor); err != nil {
			return nil, err
		}
		updated = visitor
		return models.NewAuditLog(models.EntityVisitor, id, models.AuditApprove, approvedBy, before, visitor, meta), nil
	})
	return updated, err
}

// Deny records a denial decision with its reason.
func (s *VisitorService) Deny(id, reason, performedBy string, meta *models.RequestMeta) (models.Visitor, error) {
	var updated models.Visitor
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		visitor, err := database.GetVisitorByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := visitor
		visitor.Deny(reason)
		if err := database.UpdateVisitor(tx, &visitor); err != nil {
			return nil, err
		}
		updated = visitor
		return models.NewAuditLog(models.EntityVisitor, id, models.AuditDeny, performedBy, before, visitor, meta), nil
	})
	return updated, err
}

// MarkEntry stamps a visitor's entry time.
func (s *VisitorService) MarkEntry(id, performedBy string, meta *models.RequestMeta) (models.Visitor, error) {
	return s.stamp(id, performedBy, meta, (*models.Visitor).MarkEntry)
}

// MarkExit stamps a visitor's exit time.
func (s *VisitorService) MarkExit(id, performedBy string, meta *models.RequestMeta) (models.Visitor, error) {
	return s.stamp(id, performedBy, meta, (*models.Visitor).MarkExit)
}

func (s *VisitorService) stamp(id, performedBy string, meta *models.RequestMeta, apply func(*models.Visitor)) (models.Visitor, error) {
	var updated models.Visitor
	err := s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		visitor, err := database.GetVisitorByID(tx, id)
		if err != nil {
			return nil, err
		}
		before := visitor
		apply(&visitor)
		if err := database.UpdateVisitor(tx, &visitor); err != nil {
			return nil, err
		}
		updated = visitor
		return models.NewAuditLog(models.EntityVisitor, id, models.AuditUpdate, performedBy, before, visitor, meta), nil
	})
	return updated, err
}

// Delete removes a visitor. Dependent risk assessments are removed by the
// store's cascade contract; the audit row records the final snapshot.
func (s *VisitorService) Delete(id, performedBy string, meta *models.RequestMeta) error {
	return s.mutate(func(tx database.Querier) (*models.AuditLog, error) {
		visitor, err := database.GetVisitorByID(tx, id)
		if err != nil {
			return nil, err
		}
		if err := database.DeleteVisitor(tx, id); err != nil {
			return nil, err
		}
		return models.NewAuditLog(models.EntityVisitor, id, models.AuditDelete, performedBy, visitor, nil, meta), nil
	})
}
