package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ironvale/gatekeeperbackend/models"
	"github.com/ironvale/gatekeeperbackend/risk"
	"github.com/ironvale/gatekeeperbackend/utils"
)

var assessmentColumns = []string{
	"id", "visitor_id", "assessment_time", "risk_score", "risk_level",
	"frequency_score", "timing_score", "behavior_score", "historical_score",
	"anomalies", "explanation", "confidence", "created_at",
}

func scanAssessmentRow(scanner interface {
	Scan(dest ...interface{}) error
}) (models.RiskAssessment, error) {
	var a models.RiskAssessment
	var assessmentTime, anomalies, explanation, createdAt string
	err := scanner.Scan(&a.ID, &a.VisitorID, &assessmentTime, &a.RiskScore, &a.RiskLevel,
		&a.FrequencyScore, &a.TimingScore, &a.BehaviorScore, &a.HistoricalScore,
		&anomalies, &explanation, &a.Confidence, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.RiskAssessment{}, sql.ErrNoRows
		}
		return models.RiskAssessment{}, fmt.Errorf("failed to scan risk assessment row: %w", err)
	}
	if t := utils.ParseTime(assessmentTime); t != nil {
		a.AssessmentTime = *t
	}
	a.Anomalies = utils.UnmarshalArray[risk.Anomaly](anomalies)
	a.Explanation = utils.UnmarshalObject[risk.Explanation](explanation)
	if t := utils.ParseTime(createdAt); t != nil {
		a.CreatedAt = *t
	}
	return a, nil
}

// InsertRiskAssessment persists a new immutable assessment row. There is no
// corresponding update: a reassessment is always a new row.
func InsertRiskAssessment(db Querier, a *models.RiskAssessment) error {
	queryBuilder := psql.Insert("risk_assessments").
		Columns(assessmentColumns...).
		Values(a.ID, a.VisitorID, utils.FormatTime(a.AssessmentTime), a.RiskScore, string(a.RiskLevel),
			a.FrequencyScore, a.TimingScore, a.BehaviorScore, a.HistoricalScore,
			utils.SafeMarshal(a.Anomalies), utils.SafeMarshal(a.Explanation), a.Confidence,
			utils.FormatTime(a.CreatedAt))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for InsertRiskAssessment: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute InsertRiskAssessment for visitor %s: %w", a.VisitorID, err)
	}
	return nil
}

// GetRiskAssessmentByID fetches a single assessment; sql.ErrNoRows when
// absent.
func GetRiskAssessmentByID(db Querier, id string) (models.RiskAssessment, error) {
	queryBuilder := psql.Select(assessmentColumns...).
		From("risk_assessments").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to build SQL for GetRiskAssessmentByID: %w", err)
	}
	assessment, err := scanAssessmentRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.RiskAssessment{}, sql.ErrNoRows
		}
		return models.RiskAssessment{}, fmt.Errorf("GetRiskAssessmentByID failed for ID %s: %w", id, err)
	}
	return assessment, nil
}

// ListRiskAssessmentsByVisitor returns a visitor's assessments newest-first.
func ListRiskAssessmentsByVisitor(db Querier, visitorID string) ([]models.RiskAssessment, error) {
	queryBuilder := psql.Select(assessmentColumns...).
		From("risk_assessments").
		Where(sq.Eq{"visitor_id": visitorID}).
		OrderBy("assessment_time DESC")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListRiskAssessmentsByVisitor: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListRiskAssessmentsByVisitor query: %w", err)
	}
	defer rows.Close()

	assessments := []models.RiskAssessment{}
	for rows.Next() {
		a, err := scanAssessmentRow(rows)
		if err != nil {
			return assessments, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return assessments, fmt.Errorf("error iterating risk assessment rows: %w", err)
	}
	return assessments, nil
}

// GetLatestRiskAssessment returns a visitor's most recent assessment;
// sql.ErrNoRows when the visitor has none.
func GetLatestRiskAssessment(db Querier, visitorID string) (models.RiskAssessment, error) {
	queryBuilder := psql.Select(assessmentColumns...).
		From("risk_assessments").
		Where(sq.Eq{"visitor_id": visitorID}).
		OrderBy("assessment_time DESC").
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to build SQL for GetLatestRiskAssessment: %w", err)
	}
	assessment, err := scanAssessmentRow(db.QueryRow(sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.RiskAssessment{}, sql.ErrNoRows
		}
		return models.RiskAssessment{}, fmt.Errorf("GetLatestRiskAssessment failed for visitor %s: %w", visitorID, err)
	}
	return assessment, nil
}

// CountRiskAssessmentsByVisitor reports how many assessment rows reference a
// visitor. Used to verify the delete cascade contract.
func CountRiskAssessmentsByVisitor(db Querier, visitorID string) (int, error) {
	queryBuilder := psql.Select("COUNT(*)").
		From("risk_assessments").
		Where(sq.Eq{"visitor_id": visitorID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CountRiskAssessmentsByVisitor: %w", err)
	}
	var count int
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountRiskAssessmentsByVisitor failed for visitor %s: %w", visitorID, err)
	}
	return count, nil
}
