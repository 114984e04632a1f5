package database

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var auditColumns = []string{
	"id", "entity_type", "entity_id", "action", "performed_by",
	"old_values", "new_values", "ip_address", "user_agent", "timestamp",
}

// InsertAuditLog appends one audit row. Audit rows are strictly append-only:
// there are no update or delete operations on audit_logs.
func InsertAuditLog(db Querier, entry *models.AuditLog) error {
	var oldValues, newValues *string
	if entry.OldValues != nil {
		s := string(entry.OldValues)
		oldValues = &s
	}
	if entry.NewValues != nil {
		s := string(entry.NewValues)
		newValues = &s
	}

	queryBuilder := psql.Insert("audit_logs").
		Columns(auditColumns...).
		Values(entry.ID, entry.EntityType, entry.EntityID, string(entry.Action), entry.PerformedBy,
			oldValues, newValues, entry.IPAddress, entry.UserAgent, utils.FormatTime(entry.Timestamp))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertAuditLog: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertAuditLog for %s %s: %w", entry.EntityType, entry.EntityID, err)
	}
	return nil
}

// ListAuditLogsByEntity returns the audit history of one entity,
// newest-first.
func ListAuditLogsByEntity(db Querier, entityType, entityID string) ([]models.AuditLog, error) {
	queryBuilder := psql.Select(auditColumns...).
		From("audit_logs").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("timestamp DESC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListAuditLogsByEntity: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListAuditLogsByEntity query: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		var oldValues, newValues *string
		var timestamp string
		err := rows.Scan(&entry.ID, &entry.EntityType, &entry.EntityID, &entry.Action, &entry.PerformedBy,
			&oldValues, &newValues, &entry.IPAddress, &entry.UserAgent, &timestamp)
		if err != nil {
			return entries, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		if oldValues != nil {
			entry.OldValues = json.RawMessage(*oldValues)
		}
		if newValues != nil {
			entry.NewValues = json.RawMessage(*newValues)
		}
		if t := utils.ParseTime(timestamp); t != nil {
			entry.Timestamp = *t
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("error iterating audit log rows: %w", err)
	}
	return entries, nil
}
