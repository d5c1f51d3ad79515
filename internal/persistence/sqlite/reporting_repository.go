package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/project-tracker/internal/persistence"
)

// ReportingRepository implements persistence.ReportingRepository using SQLite.
// It only reads: statistics, dashboard alerts, and schedule views build on
// these queries.
type ReportingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReportingRepository creates a new SQLite reporting repository
func NewReportingRepository(pool *ConnectionPool) *ReportingRepository {
	return &ReportingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// realHoursExpr totals the closed hours logged against a stage.
const realHoursExpr = `COALESCE((SELECT SUM(t.hours_worked) FROM time_logs t WHERE t.stage_id = s.id AND t.hours_worked IS NOT NULL), 0)`

// onTimeProjectCond holds for finished projects with no stage ending past
// the project deadline.
const onTimeProjectCond = `p.status = 'finished' AND NOT EXISTS (
	SELECT 1 FROM stages s WHERE s.project_id = p.id AND s.end_date IS NOT NULL AND s.end_date > p.due_date
)`

// Summary aggregates project and stage health counters
func (r *ReportingRepository) Summary(ctx context.Context) (persistence.StatisticsSummary, error) {
	var summary persistence.StatisticsSummary

	err := r.helper.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN `+onTimeProjectCond+` THEN 1 ELSE 0 END), 0) FROM projects p`).
		Scan(&summary.TotalProjects, &summary.ProjectsOnTime)
	if err != nil {
		return persistence.StatisticsSummary{}, r.mapper.MapError(err)
	}

	err = r.helper.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN `+realHoursExpr+` <= s.estimated_hours THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN `+realHoursExpr+` > s.estimated_hours THEN 1 ELSE 0 END), 0)
		FROM stages s
	`).Scan(&summary.TotalStages, &summary.StagesWithinEstimate, &summary.StagesOverEstimate)
	if err != nil {
		return persistence.StatisticsSummary{}, r.mapper.MapError(err)
	}

	return summary, nil
}

// ListStageHours compares estimated against real hours per stage, narrowed by
// the optional filter fields.
func (r *ReportingRepository) ListStageHours(ctx context.Context, filter persistence.StageHoursFilter) ([]persistence.StageHours, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT s.id, s.project_id, s.name, p.name, s.estimated_hours, ` + realHoursExpr + `
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE 1 = 1
	`)
	var args []any

	if filter.TechnicianID != "" {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM assignments a WHERE a.stage_id = s.id AND a.user_id = ?)`)
		args = append(args, filter.TechnicianID)
	}
	if filter.ProjectID != "" {
		sb.WriteString(` AND p.id = ?`)
		args = append(args, filter.ProjectID)
	}
	if filter.StageStatus != "" {
		sb.WriteString(` AND s.status = ?`)
		args = append(args, filter.StageStatus)
	}
	if filter.ProjectType != "" {
		sb.WriteString(` AND p.type = ?`)
		args = append(args, filter.ProjectType)
	}

	sb.WriteString(` ORDER BY p.name ASC, s.name ASC, s.id ASC`)

	rows, err := r.helper.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var result []persistence.StageHours
	for rows.Next() {
		var sh persistence.StageHours
		if err := rows.Scan(&sh.StageID, &sh.ProjectID, &sh.StageName, &sh.ProjectName, &sh.EstimatedHours, &sh.RealHours); err != nil {
			return nil, r.mapper.MapError(err)
		}
		result = append(result, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return result, nil
}

// ListProjectsFinishedOnTime returns the names of finished projects whose
// stages all ended within the project deadline.
func (r *ReportingRepository) ListProjectsFinishedOnTime(ctx context.Context) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT p.name FROM projects p WHERE `+onTimeProjectCond+` ORDER BY p.name ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, r.mapper.MapError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return names, nil
}

// ListOverrunActiveStages returns active stages whose logged hours exceed the
// estimate, for dashboard alerts.
func (r *ReportingRepository) ListOverrunActiveStages(ctx context.Context) ([]persistence.AlertStage, error) {
	query := `
		SELECT s.name, p.name
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE s.status = ? AND ` + realHoursExpr + ` > s.estimated_hours
		ORDER BY p.name ASC, s.name ASC
	`
	return r.listAlertStages(ctx, query, persistence.StageStatusActive)
}

// ListUnassignedStages returns pending and active stages without a
// technician, for dashboard alerts.
func (r *ReportingRepository) ListUnassignedStages(ctx context.Context) ([]persistence.AlertStage, error) {
	query := `
		SELECT s.name, p.name
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE s.status IN (?, ?) AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.stage_id = s.id)
		ORDER BY p.name ASC, s.name ASC
	`
	return r.listAlertStages(ctx, query, persistence.StageStatusPending, persistence.StageStatusActive)
}

func (r *ReportingRepository) listAlertStages(ctx context.Context, query string, args ...any) ([]persistence.AlertStage, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var alerts []persistence.AlertStage
	for rows.Next() {
		var alert persistence.AlertStage
		if err := rows.Scan(&alert.StageName, &alert.ProjectName); err != nil {
			return nil, r.mapper.MapError(err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return alerts, nil
}

const scheduleQuery = `
	SELECT u.username, p.name, s.name, s.start_date, s.end_date
	FROM assignments a
	JOIN users u ON u.id = a.user_id
	JOIN stages s ON s.id = a.stage_id
	JOIN projects p ON p.id = s.project_id`

// ListAssignmentsOnDate returns schedule rows whose stage window contains the
// given calendar date. Stages without an end date count as single-day.
func (r *ReportingRepository) ListAssignmentsOnDate(ctx context.Context, date string) ([]persistence.ScheduleAssignment, error) {
	query := scheduleQuery + `
	WHERE s.start_date IS NOT NULL
		AND s.start_date <= ?
		AND COALESCE(s.end_date, s.start_date) >= ?
	ORDER BY u.username ASC, p.name ASC, s.name ASC`

	return r.listScheduleAssignments(ctx, query, date, date)
}

// ListAssignmentSpans returns every schedule row regardless of date
func (r *ReportingRepository) ListAssignmentSpans(ctx context.Context) ([]persistence.ScheduleAssignment, error) {
	query := scheduleQuery + `
	ORDER BY u.username ASC, s.start_date ASC, s.id ASC`

	return r.listScheduleAssignments(ctx, query)
}

func (r *ReportingRepository) listScheduleAssignments(ctx context.Context, query string, args ...any) ([]persistence.ScheduleAssignment, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var assignments []persistence.ScheduleAssignment
	for rows.Next() {
		var sa persistence.ScheduleAssignment
		var startDate, endDate sql.NullString
		if err := rows.Scan(&sa.Username, &sa.ProjectName, &sa.StageName, &startDate, &endDate); err != nil {
			return nil, r.mapper.MapError(err)
		}
		sa.StartDate = stringPtr(startDate)
		sa.EndDate = stringPtr(endDate)
		assignments = append(assignments, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return assignments, nil
}

// ListProjects returns all projects for the reporting views
func (r *ReportingRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	return NewProjectRepository(r.pool).ListProjects(ctx)
}

// ListProjectSpans returns one row per stage pairing the project with the
// stage's date span, for the month view.
func (r *ReportingRepository) ListProjectSpans(ctx context.Context) ([]persistence.ProjectSpan, error) {
	query := `
		SELECT s.project_id, s.start_date, s.end_date
		FROM stages s
		ORDER BY s.project_id ASC, s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var spans []persistence.ProjectSpan
	for rows.Next() {
		var span persistence.ProjectSpan
		var startDate, endDate sql.NullString
		if err := rows.Scan(&span.ProjectID, &startDate, &endDate); err != nil {
			return nil, r.mapper.MapError(err)
		}
		span.StartDate = stringPtr(startDate)
		span.EndDate = stringPtr(endDate)
		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return spans, nil
}
