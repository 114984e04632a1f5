package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var emergencyColumns = []string{
	"id", "emergency_type", "activated_by", "activation_time", "deactivation_time",
	"deactivated_by", "override_reason", "affected_entries", "notes", "created_at",
}

func scanEmergencyRow(scanner interface {
	Scan(dest ...interface{}) error
}) (models.EmergencyLog, error) {
	var e models.EmergencyLog
	var activationTime, affectedEntries, createdAt string
	var deactivationTime *string
	err := scanner.Scan(&e.ID, &e.EmergencyType, &e.ActivatedBy, &activationTime, &deactivationTime,
		&e.DeactivatedBy, &e.OverrideReason, &affectedEntries, &e.Notes, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.EmergencyLog{}, sql.ErrNoRows
		}
		return models.EmergencyLog{}, fmt.Errorf("failed to scan emergency log row: %w", err)
	}
	if t := utils.ParseTime(activationTime); t != nil {
		e.ActivationTime = *t
	}
	e.DeactivationTime = utils.ParseTimePtr(deactivationTime)
	e.AffectedEntries = utils.UnmarshalArray[string](affectedEntries)
	if t := utils.ParseTime(createdAt); t != nil {
		e.CreatedAt = *t
	}
	return e, nil
}

// InsertEmergencyLog appends a new emergency row.
func InsertEmergencyLog(db Querier, e *models.EmergencyLog) error {
	queryBuilder := psql.Insert("emergency_logs").
		Columns(emergencyColumns...).
		Values(e.ID, e.EmergencyType, e.ActivatedBy, utils.FormatTime(e.ActivationTime),
			utils.FormatTimePtr(e.DeactivationTime), e.DeactivatedBy, e.OverrideReason,
			utils.SafeMarshal(e.AffectedEntries), e.Notes, utils.FormatTime(e.CreatedAt))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertEmergencyLog: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertEmergencyLog for %s: %w", e.ID, err)
	}
	return nil
}

// GetEmergencyLogByID fetches a single emergency row; sql.ErrNoRows when
// absent.
func GetEmergencyLogByID(db Querier, id string) (models.EmergencyLog, error) {
	queryBuilder := psql.Select(emergencyColumns...).
		From("emergency_logs").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.EmergencyLog{}, fmt.Errorf("failed to build SQL for GetEmergencyLogByID: %w", err)
	}
	entry, err := scanEmergencyRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.EmergencyLog{}, sql.ErrNoRows
		}
		return models.EmergencyLog{}, fmt.Errorf("GetEmergencyLogByID failed for ID %s: %w", id, err)
	}
	return entry, nil
}

// ListEmergencyLogs returns emergency rows newest-first; activeOnly filters
// to emergencies not yet deactivated.
func ListEmergencyLogs(db Querier, activeOnly bool) ([]models.EmergencyLog, error) {
	queryBuilder := psql.Select(emergencyColumns...).
		From("emergency_logs").
		OrderBy("activation_time DESC")
	if activeOnly {
		queryBuilder = queryBuilder.Where(sq.Eq{"deactivation_time": nil})
	}
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListEmergencyLogs: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListEmergencyLogs query: %w", err)
	}
	defer rows.Close()

	entries := []models.EmergencyLog{}
	for rows.Next() {
		e, err := scanEmergencyRow(rows)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("error iterating emergency log rows: %w", err)
	}
	return entries, nil
}

// DeactivateEmergencyLog records the single permitted update on an emergency
// row: the deactivation time and actor. Already-deactivated rows are left
// untouched and report sql.ErrNoRows.
func DeactivateEmergencyLog(db Querier, id, deactivatedBy string, at time.Time) error {
	queryBuilder := psql.Update("emergency_logs").
		Set("deactivation_time", utils.FormatTime(at)).
		Set("deactivated_by", deactivatedBy).
		Where(sq.Eq{"id": id, "deactivation_time": nil})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeactivateEmergencyLog: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeactivateEmergencyLog for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendEmergencyAffectedEntries replaces the affected-entries list for an
// active emergency, used to record entries that passed during the window.
func AppendEmergencyAffectedEntries(db Querier, id string, entries []string) error {
	queryBuilder := psql.Update("emergency_logs").
		Set("affected_entries", utils.SafeMarshal(entries)).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for AppendEmergencyAffectedEntries: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute AppendEmergencyAffectedEntries for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
