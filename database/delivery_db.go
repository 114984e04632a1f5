package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var deliveryColumns = []string{
	"id", "name", "phone_number", "company_name", "delivery_type",
	"recipient_unit", "recipient_name", "expected_delivery_time", "actual_delivery_time",
	"access_code", "access_granted_at", "access_expires_at", "delivery_status",
	"notes", "created_at", "updated_at",
}

func scanDeliveryRow(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Delivery, error) {
	var d models.Delivery
	var expected, actual, grantedAt, expiresAt *string
	var createdAt, updatedAt string
	err := scanner.Scan(&d.ID, &d.Name, &d.PhoneNumber, &d.CompanyName, &d.DeliveryType,
		&d.RecipientUnit, &d.RecipientName, &expected, &actual,
		&d.AccessCode, &grantedAt, &expiresAt, &d.DeliveryStatus,
		&d.Notes, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Delivery{}, sql.ErrNoRows
		}
		return models.Delivery{}, fmt.Errorf("failed to scan delivery row: %w", err)
	}
	d.ExpectedDeliveryTime = utils.ParseTimePtr(expected)
	d.ActualDeliveryTime = utils.ParseTimePtr(actual)
	d.AccessGrantedAt = utils.ParseTimePtr(grantedAt)
	d.AccessExpiresAt = utils.ParseTimePtr(expiresAt)
	if t := utils.ParseTime(createdAt); t != nil {
		d.CreatedAt = *t
	}
	if t := utils.ParseTime(updatedAt); t != nil {
		d.UpdatedAt = *t
	}
	return d, nil
}

// InsertDelivery persists a new delivery record.
func InsertDelivery(db Querier, d *models.Delivery) error {
	queryBuilder := psql.Insert("delivery_personnel").
		Columns(deliveryColumns...).
		Values(d.ID, d.Name, d.PhoneNumber, d.CompanyName, d.DeliveryType,
			d.RecipientUnit, d.RecipientName,
			utils.FormatTimePtr(d.ExpectedDeliveryTime), utils.FormatTimePtr(d.ActualDeliveryTime),
			d.AccessCode, utils.FormatTimePtr(d.AccessGrantedAt), utils.FormatTimePtr(d.AccessExpiresAt),
			string(d.DeliveryStatus), d.Notes,
			utils.FormatTime(d.CreatedAt), utils.FormatTime(d.UpdatedAt))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertDelivery: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertDelivery for %s: %w", d.ID, err)
	}
	return nil
}

// GetDeliveryByID fetches a single delivery; sql.ErrNoRows when absent.
func GetDeliveryByID(db Querier, id string) (models.Delivery, error) {
	queryBuilder := psql.Select(deliveryColumns...).
		From("delivery_personnel").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Delivery{}, fmt.Errorf("failed to build SQL for GetDeliveryByID: %w", err)
	}
	delivery, err := scanDeliveryRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Delivery{}, sql.ErrNoRows
		}
		return models.Delivery{}, fmt.Errorf("GetDeliveryByID failed for ID %s: %w", id, err)
	}
	return delivery, nil
}

// ListDeliveries returns deliveries newest-first, optionally filtered by
// status.
func ListDeliveries(db Querier, status *models.DeliveryStatus) ([]models.Delivery, error) {
	queryBuilder := psql.Select(deliveryColumns...).
		From("delivery_personnel").
		OrderBy("created_at DESC")
	if status != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"delivery_status": string(*status)})
	}
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListDeliveries: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListDeliveries query: %w", err)
	}
	defer rows.Close()

	deliveries := []models.Delivery{}
	for rows.Next() {
		d, err := scanDeliveryRow(rows)
		if err != nil {
			return deliveries, err
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return deliveries, fmt.Errorf("error iterating delivery rows: %w", err)
	}
	return deliveries, nil
}

// UpdateDelivery rewrites every mutable column from the model.
func UpdateDelivery(db Querier, d *models.Delivery) error {
	queryBuilder := psql.Update("delivery_personnel").
		SetMap(map[string]interface{}{
			"name":                   d.Name,
			"phone_number":           d.PhoneNumber,
			"company_name":           d.CompanyName,
			"delivery_type":          d.DeliveryType,
			"recipient_unit":         d.RecipientUnit,
			"recipient_name":         d.RecipientName,
			"expected_delivery_time": utils.FormatTimePtr(d.ExpectedDeliveryTime),
			"actual_delivery_time":   utils.FormatTimePtr(d.ActualDeliveryTime),
			"access_code":            d.AccessCode,
			"access_granted_at":      utils.FormatTimePtr(d.AccessGrantedAt),
			"access_expires_at":      utils.FormatTimePtr(d.AccessExpiresAt),
			"delivery_status":        string(d.DeliveryStatus),
			"notes":                  d.Notes,
			"updated_at":             utils.FormatTime(d.UpdatedAt),
		}).
		Where(sq.Eq{"id": d.ID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateDelivery: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateDelivery for ID %s: %w", d.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDelivery removes a delivery record.
func DeleteDelivery(db Querier, id string) error {
	queryBuilder := psql.Delete("delivery_personnel").Where(sq.Eq{"id": id})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteDelivery: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteDelivery for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
