package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/project-tracker/internal/persistence"
)

// StageRepository implements persistence.StageRepository using SQLite
type StageRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStageRepository creates a new SQLite stage repository
func NewStageRepository(pool *ConnectionPool) *StageRepository {
	return &StageRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const stageColumns = `id, project_id, name, status, estimated_hours, start_date, end_date, created_at, updated_at`

// CreateStage inserts a new stage into the database
func (r *StageRepository) CreateStage(ctx context.Context, stage persistence.Stage) error {
	if stage.ID == "" || stage.ProjectID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO stages (` + stageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		stage.ID,
		stage.ProjectID,
		stage.Name,
		stage.Status,
		stage.EstimatedHours,
		nullableString(stage.StartDate),
		nullableString(stage.EndDate),
		formatTimestamp(stage.CreatedAt),
		formatTimestamp(stage.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetStage retrieves a stage by ID from the database
func (r *StageRepository) GetStage(ctx context.Context, id string) (persistence.Stage, error) {
	if id == "" {
		return persistence.Stage{}, persistence.ErrNotFound
	}

	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = ?`

	stage, err := r.scanStage(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Stage{}, persistence.ErrNotFound
		}
		return persistence.Stage{}, err
	}

	return stage, nil
}

const stageDetailColumns = `s.id, s.project_id, s.name, s.status, s.estimated_hours, s.start_date, s.end_date, s.created_at, s.updated_at,
	a.user_id, u.first_name || ' ' || u.last_name`

const stageDetailJoins = `
	LEFT JOIN assignments a ON a.stage_id = s.id
	LEFT JOIN users u ON u.id = a.user_id`

// GetStageDetail retrieves a stage with its assigned technician, when any
func (r *StageRepository) GetStageDetail(ctx context.Context, id string) (persistence.StageDetail, error) {
	if id == "" {
		return persistence.StageDetail{}, persistence.ErrNotFound
	}

	query := `SELECT ` + stageDetailColumns + ` FROM stages s` + stageDetailJoins + ` WHERE s.id = ?`

	detail, err := r.scanStageDetail(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StageDetail{}, persistence.ErrNotFound
		}
		return persistence.StageDetail{}, err
	}

	return detail, nil
}

// ListStagesForProject returns the project's stages with their assignees,
// earliest start date first.
func (r *StageRepository) ListStagesForProject(ctx context.Context, projectID string) ([]persistence.StageDetail, error) {
	query := `
		SELECT ` + stageDetailColumns + `
		FROM stages s` + stageDetailJoins + `
		WHERE s.project_id = ?
		ORDER BY s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, projectID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.StageDetail
	for rows.Next() {
		detail, err := r.scanStageDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return details, nil
}

// ListStagesWithHours returns the project's stages with assignees and the
// hours accumulated from closed time logs.
func (r *StageRepository) ListStagesWithHours(ctx context.Context, projectID string) ([]persistence.StageWithHours, error) {
	query := `
		SELECT ` + stageDetailColumns + `,
			COALESCE((SELECT SUM(t.hours_worked) FROM time_logs t WHERE t.stage_id = s.id AND t.hours_worked IS NOT NULL), 0)
		FROM stages s` + stageDetailJoins + `
		WHERE s.project_id = ?
		ORDER BY s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, projectID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var result []persistence.StageWithHours
	for rows.Next() {
		var sw persistence.StageWithHours
		var createdAtStr, updatedAtStr string
		var startDate, endDate, assigneeID, assigneeName sql.NullString

		err := rows.Scan(
			&sw.ID, &sw.ProjectID, &sw.Name, &sw.Status, &sw.EstimatedHours,
			&startDate, &endDate, &createdAtStr, &updatedAtStr,
			&assigneeID, &assigneeName, &sw.RealHours,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		sw.StartDate = stringPtr(startDate)
		sw.EndDate = stringPtr(endDate)
		sw.AssigneeID = stringPtr(assigneeID)
		sw.AssigneeName = stringPtr(assigneeName)
		if sw.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
			return nil, fmt.Errorf("stage %s: %w", sw.ID, err)
		}
		if sw.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
			return nil, fmt.Errorf("stage %s: %w", sw.ID, err)
		}
		result = append(result, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return result, nil
}

// UpdateStage updates an existing stage in the database
func (r *StageRepository) UpdateStage(ctx context.Context, stage persistence.Stage) error {
	if stage.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE stages
		SET name = ?, status = ?, estimated_hours = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		stage.Name,
		stage.Status,
		stage.EstimatedHours,
		nullableString(stage.StartDate),
		nullableString(stage.EndDate),
		formatTimestamp(stage.UpdatedAt),
		stage.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// DeleteStageCascade removes the stage after its dependent records
func (r *StageRepository) DeleteStageCascade(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM time_logs WHERE stage_id = ?`,
			`DELETE FROM comments WHERE stage_id = ?`,
			`DELETE FROM tasks WHERE stage_id = ?`,
			`DELETE FROM assignments WHERE stage_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := r.helper.ExecTx(tx, stmt, id); err != nil {
				return err
			}
		}

		result, err := r.helper.ExecTx(tx, `DELETE FROM stages WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrNotFound
		}
		return r.mapper.MapError(err)
	}

	return nil
}

// ListEligibleStages returns pending stages under maxHours that have no
// current assignment, joined with their project names.
func (r *StageRepository) ListEligibleStages(ctx context.Context, maxHours int) ([]persistence.EligibleStage, error) {
	query := `
		SELECT s.id, s.project_id, s.name, p.name, s.estimated_hours, s.start_date, s.end_date
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE s.status = ?
			AND s.estimated_hours <= ?
			AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.stage_id = s.id)
		ORDER BY s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, persistence.StageStatusPending, maxHours)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stages []persistence.EligibleStage
	for rows.Next() {
		var es persistence.EligibleStage
		var startDate, endDate sql.NullString
		if err := rows.Scan(&es.StageID, &es.ProjectID, &es.StageName, &es.ProjectName, &es.EstimatedHours, &startDate, &endDate); err != nil {
			return nil, r.mapper.MapError(err)
		}
		es.StartDate = stringPtr(startDate)
		es.EndDate = stringPtr(endDate)
		stages = append(stages, es)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return stages, nil
}

// ListShortStages returns pending stages under maxHours regardless of
// assignment state.
func (r *StageRepository) ListShortStages(ctx context.Context, maxHours int) ([]persistence.ShortStage, error) {
	query := `
		SELECT s.id, s.project_id, s.name, p.name, s.estimated_hours, s.status
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE s.status = ? AND s.estimated_hours <= ?
		ORDER BY s.estimated_hours ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, persistence.StageStatusPending, maxHours)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stages []persistence.ShortStage
	for rows.Next() {
		var ss persistence.ShortStage
		if err := rows.Scan(&ss.StageID, &ss.ProjectID, &ss.StageName, &ss.ProjectName, &ss.EstimatedHours, &ss.Status); err != nil {
			return nil, r.mapper.MapError(err)
		}
		stages = append(stages, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return stages, nil
}

func (r *StageRepository) scanStage(row rowScanner) (persistence.Stage, error) {
	var stage persistence.Stage
	var createdAtStr, updatedAtStr string
	var startDate, endDate sql.NullString

	err := row.Scan(
		&stage.ID,
		&stage.ProjectID,
		&stage.Name,
		&stage.Status,
		&stage.EstimatedHours,
		&startDate,
		&endDate,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Stage{}, err
		}
		return persistence.Stage{}, r.mapper.MapError(err)
	}

	stage.StartDate = stringPtr(startDate)
	stage.EndDate = stringPtr(endDate)
	if stage.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Stage{}, fmt.Errorf("stage %s: %w", stage.ID, err)
	}
	if stage.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Stage{}, fmt.Errorf("stage %s: %w", stage.ID, err)
	}

	return stage, nil
}

func (r *StageRepository) scanStageDetail(row rowScanner) (persistence.StageDetail, error) {
	var detail persistence.StageDetail
	var createdAtStr, updatedAtStr string
	var startDate, endDate, assigneeID, assigneeName sql.NullString

	err := row.Scan(
		&detail.ID,
		&detail.ProjectID,
		&detail.Name,
		&detail.Status,
		&detail.EstimatedHours,
		&startDate,
		&endDate,
		&createdAtStr,
		&updatedAtStr,
		&assigneeID,
		&assigneeName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StageDetail{}, err
		}
		return persistence.StageDetail{}, r.mapper.MapError(err)
	}

	detail.StartDate = stringPtr(startDate)
	detail.EndDate = stringPtr(endDate)
	detail.AssigneeID = stringPtr(assigneeID)
	detail.AssigneeName = stringPtr(assigneeName)
	if detail.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.StageDetail{}, fmt.Errorf("stage %s: %w", detail.ID, err)
	}
	if detail.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.StageDetail{}, fmt.Errorf("stage %s: %w", detail.ID, err)
	}

	return detail, nil
}
