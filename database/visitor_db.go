package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var visitorColumns = []string{
	"id", "name", "phone_number", "purpose", "intended_unit", "vehicle_number",
	"entry_time", "exit_time", "approval_status", "approved_by", "approval_time",
	"denial_reason", "risk_score", "flagged", "sync_status", "created_at", "updated_at",
}

func scanVisitorRow(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Visitor, error) {
	var v models.Visitor
	var entryTime, exitTime, approvalTime *string
	var createdAt, updatedAt string
	err := scanner.Scan(&v.ID, &v.Name, &v.PhoneNumber, &v.Purpose, &v.IntendedUnit, &v.VehicleNumber,
		&entryTime, &exitTime, &v.ApprovalStatus, &v.ApprovedBy, &approvalTime,
		&v.DenialReason, &v.RiskScore, &v.Flagged, &v.SyncStatus, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Visitor{}, sql.ErrNoRows
		}
		return models.Visitor{}, fmt.Errorf("failed to scan visitor row: %w", err)
	}
	v.EntryTime = utils.ParseTimePtr(entryTime)
	v.ExitTime = utils.ParseTimePtr(exitTime)
	v.ApprovalTime = utils.ParseTimePtr(approvalTime)
	if t := utils.ParseTime(createdAt); t != nil {
		v.CreatedAt = *t
	}
	if t := utils.ParseTime(updatedAt); t != nil {
		v.UpdatedAt = *t
	}
	return v, nil
}

// InsertVisitor persists a new visitor row.
func InsertVisitor(db Querier, v *models.Visitor) error {
	queryBuilder := psql.Insert("visitors").
		Columns(visitorColumns...).
		Values(v.ID, v.Name, v.PhoneNumber, v.Purpose, v.IntendedUnit, v.VehicleNumber,
			utils.FormatTimePtr(v.EntryTime), utils.FormatTimePtr(v.ExitTime), string(v.ApprovalStatus),
			v.ApprovedBy, utils.FormatTimePtr(v.ApprovalTime), v.DenialReason,
			v.RiskScore, v.Flagged, string(v.SyncStatus),
			utils.FormatTime(v.CreatedAt), utils.FormatTime(v.UpdatedAt))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertVisitor: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertVisitor for %s: %w", v.ID, err)
	}
	return nil
}

// GetVisitorByID fetches a single visitor; sql.ErrNoRows when absent.
func GetVisitorByID(db Querier, id string) (models.Visitor, error) {
	queryBuilder := psql.Select(visitorColumns...).
		From("visitors").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Visitor{}, fmt.Errorf("failed to build SQL for GetVisitorByID: %w", err)
	}
	visitor, err := scanVisitorRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Visitor{}, sql.ErrNoRows
		}
		return models.Visitor{}, fmt.Errorf("GetVisitorByID failed for ID %s: %w", id, err)
	}
	return visitor, nil
}

// ListVisitors returns visitors newest-first, optionally filtered by
// approval status.
func ListVisitors(db Querier, status *models.ApprovalStatus) ([]models.Visitor, error) {
	queryBuilder := psql.Select(visitorColumns...).
		From("visitors").
		OrderBy("created_at DESC")
	if status != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"approval_status": string(*status)})
	}
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListVisitors: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListVisitors query: %w", err)
	}
	defer rows.Close()

	visitors := []models.Visitor{}
	for rows.Next() {
		v, err := scanVisitorRow(rows)
		if err != nil {
			return visitors, err
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return visitors, fmt.Errorf("error iterating visitor rows: %w", err)
	}
	return visitors, nil
}

// UpdateVisitor rewrites every mutable column from the model.
func UpdateVisitor(db Querier, v *models.Visitor) error {
	queryBuilder := psql.Update("visitors").
		SetMap(map[string]interface{}{
			"name":            v.Name,
			"phone_number":    v.PhoneNumber,
			"purpose":         v.Purpose,
			"intended_unit":   v.IntendedUnit,
			"vehicle_number":  v.VehicleNumber,
			"entry_time":      utils.FormatTimePtr(v.EntryTime),
			"exit_time":       utils.FormatTimePtr(v.ExitTime),
			"approval_status": string(v.ApprovalStatus),
			"approved_by":     v.ApprovedBy,
			"approval_time":   utils.FormatTimePtr(v.ApprovalTime),
			"denial_reason":   v.DenialReason,
			"risk_score":      v.RiskScore,
			"flagged":         v.Flagged,
			"sync_status":     string(v.SyncStatus),
			"updated_at":      utils.FormatTime(v.UpdatedAt),
		}).
		Where(sq.Eq{"id": v.ID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateVisitor: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateVisitor for ID %s: %w", v.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateVisitorRiskScore updates the cached risk projection in a single
// statement so flagged == (risk_score >= threshold) holds with no
// intermediate state visible.
func UpdateVisitorRiskScore(db Querier, id string, score float64, now time.Time) error {
	queryBuilder := psql.Update("visitors").
		Set("risk_score", score).
		Set("flagged", score >= models.FlagThreshold).
		Set("updated_at", utils.FormatTime(now)).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateVisitorRiskScore: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateVisitorRiskScore for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteVisitor removes a visitor row; dependent risk assessments go with it
// via the foreign-key cascade.
func DeleteVisitor(db Querier, id string) error {
	queryBuilder := psql.Delete("visitors").Where(sq.Eq{"id": id})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteVisitor: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteVisitor for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
