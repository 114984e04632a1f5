package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var staffColumns = []string{
	"id", "name", "phone_number", "address", "emergency_contact", "service_type",
	"authorized_units", "work_schedule", "access_code", "biometric_id",
	"start_date", "end_date", "active", "last_entry", "created_at", "updated_at",
}

func scanStaffRow(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Staff, error) {
	var s models.Staff
	var units, schedule, startDate string
	var endDate, lastEntry *string
	var createdAt, updatedAt string
	err := scanner.Scan(&s.ID, &s.Name, &s.PhoneNumber, &s.Address, &s.EmergencyContact, &s.ServiceType,
		&units, &schedule, &s.AccessCode, &s.BiometricID,
		&startDate, &endDate, &s.Active, &lastEntry, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Staff{}, sql.ErrNoRows
		}
		return models.Staff{}, fmt.Errorf("failed to scan staff row: %w", err)
	}
	s.AuthorizedUnits = utils.UnmarshalArray[string](units)
	s.WorkSchedule = utils.UnmarshalObject[models.WorkSchedule](schedule)
	if s.WorkSchedule == nil {
		s.WorkSchedule = models.WorkSchedule{}
	}
	if t := utils.ParseTime(startDate); t != nil {
		s.StartDate = *t
	}
	s.EndDate = utils.ParseTimePtr(endDate)
	s.LastEntry = utils.ParseTimePtr(lastEntry)
	if t := utils.ParseTime(createdAt); t != nil {
		s.CreatedAt = *t
	}
	if t := utils.ParseTime(updatedAt); t != nil {
		s.UpdatedAt = *t
	}
	return s, nil
}

// InsertStaff persists a new staff profile.
func InsertStaff(db Querier, s *models.Staff) error {
	queryBuilder := psql.Insert("domestic_staff").
		Columns(staffColumns...).
		Values(s.ID, s.Name, s.PhoneNumber, s.Address, s.EmergencyContact, string(s.ServiceType),
			utils.SafeMarshal(s.AuthorizedUnits), utils.SafeMarshal(s.WorkSchedule), s.AccessCode, s.BiometricID,
			utils.FormatTime(s.StartDate), utils.FormatTimePtr(s.EndDate), s.Active,
			utils.FormatTimePtr(s.LastEntry), utils.FormatTime(s.CreatedAt), utils.FormatTime(s.UpdatedAt))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertStaff: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertStaff for %s: %w", s.ID, err)
	}
	return nil
}

// GetStaffByID fetches a single staff profile; sql.ErrNoRows when absent.
func GetStaffByID(db Querier, id string) (models.Staff, error) {
	queryBuilder := psql.Select(staffColumns...).
		From("domestic_staff").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Staff{}, fmt.Errorf("failed to build SQL for GetStaffByID: %w", err)
	}
	staff, err := scanStaffRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Staff{}, sql.ErrNoRows
		}
		return models.Staff{}, fmt.Errorf("GetStaffByID failed for ID %s: %w", id, err)
	}
	return staff, nil
}

// GetStaffByAccessCode looks a profile up by its unique access code.
func GetStaffByAccessCode(db Querier, accessCode string) (models.Staff, error) {
	queryBuilder := psql.Select(staffColumns...).
		From("domestic_staff").
		Where(sq.Eq{"access_code": accessCode}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Staff{}, fmt.Errorf("failed to build SQL for GetStaffByAccessCode: %w", err)
	}
	staff, err := scanStaffRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Staff{}, sql.ErrNoRows
		}
		return models.Staff{}, fmt.Errorf("GetStaffByAccessCode failed: %w", err)
	}
	return staff, nil
}

// ListStaff returns staff profiles by name, optionally filtered on the
// active flag.
func ListStaff(db Querier, active *bool) ([]models.Staff, error) {
	queryBuilder := psql.Select(staffColumns...).
		From("domestic_staff").
		OrderBy("name ASC")
	if active != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"active": *active})
	}
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListStaff: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListStaff query: %w", err)
	}
	defer rows.Close()

	staff := []models.Staff{}
	for rows.Next() {
		s, err := scanStaffRow(rows)
		if err != nil {
			return staff, err
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return staff, fmt.Errorf("error iterating staff rows: %w", err)
	}
	return staff, nil
}

// UpdateStaff rewrites every mutable column from the model.
func UpdateStaff(db Querier, s *models.Staff) error {
	queryBuilder := psql.Update("domestic_staff").
		SetMap(map[string]interface{}{
			"name":              s.Name,
			"phone_number":      s.PhoneNumber,
			"address":           s.Address,
			"emergency_contact": s.EmergencyContact,
			"service_type":      string(s.ServiceType),
			"authorized_units":  utils.SafeMarshal(s.AuthorizedUnits),
			"work_schedule":     utils.SafeMarshal(s.WorkSchedule),
			"access_code":       s.AccessCode,
			"biometric_id":      s.BiometricID,
			"start_date":        utils.FormatTime(s.StartDate),
			"end_date":          utils.FormatTimePtr(s.EndDate),
			"active":            s.Active,
			"last_entry":        utils.FormatTimePtr(s.LastEntry),
			"updated_at":        utils.FormatTime(s.UpdatedAt),
		}).
		Where(sq.Eq{"id": s.ID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateStaff: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateStaff for ID %s: %w", s.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteStaff removes a staff profile.
func DeleteStaff(db Querier, id string) error {
	queryBuilder := psql.Delete("domestic_staff").Where(sq.Eq{"id": id})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteStaff: %w", err)
	}
	result, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteStaff for ID %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
