package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository using SQLite
type AssignmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAssignmentRepository creates a new SQLite assignment repository
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAssignment inserts a new assignment into the database
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	if assignment.ID == "" || assignment.StageID == "" || assignment.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO assignments (id, stage_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		assignment.ID,
		assignment.StageID,
		assignment.UserID,
		formatTimestamp(assignment.CreatedAt),
		formatTimestamp(assignment.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetAssignment retrieves an assignment by ID from the database
func (r *AssignmentRepository) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	if id == "" {
		return persistence.Assignment{}, persistence.ErrNotFound
	}

	query := `SELECT id, stage_id, user_id, created_at, updated_at FROM assignments WHERE id = ?`

	var assignment persistence.Assignment
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.StageID,
		&assignment.UserID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Assignment{}, persistence.ErrNotFound
		}
		return persistence.Assignment{}, r.mapper.MapError(err)
	}

	if assignment.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Assignment{}, fmt.Errorf("assignment %s: %w", assignment.ID, err)
	}
	if assignment.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Assignment{}, fmt.Errorf("assignment %s: %w", assignment.ID, err)
	}

	return assignment, nil
}

const assignmentDetailQuery = `
	SELECT a.id, a.user_id, u.username, a.stage_id, s.name, p.name
	FROM assignments a
	JOIN users u ON u.id = a.user_id
	JOIN stages s ON s.id = a.stage_id
	JOIN projects p ON p.id = s.project_id`

// GetAssignmentForStage retrieves the assignment of a stage with joined names
func (r *AssignmentRepository) GetAssignmentForStage(ctx context.Context, stageID string) (persistence.AssignmentDetail, error) {
	if stageID == "" {
		return persistence.AssignmentDetail{}, persistence.ErrNotFound
	}

	var detail persistence.AssignmentDetail
	err := r.helper.QueryRow(ctx, assignmentDetailQuery+` WHERE a.stage_id = ?`, stageID).Scan(
		&detail.ID,
		&detail.UserID,
		&detail.Username,
		&detail.StageID,
		&detail.StageName,
		&detail.ProjectName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AssignmentDetail{}, persistence.ErrNotFound
		}
		return persistence.AssignmentDetail{}, r.mapper.MapError(err)
	}

	return detail, nil
}

// ListAssignments returns every assignment with joined names for listings
func (r *AssignmentRepository) ListAssignments(ctx context.Context) ([]persistence.AssignmentDetail, error) {
	rows, err := r.helper.Query(ctx, assignmentDetailQuery+` ORDER BY p.name ASC, s.name ASC, a.id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.AssignmentDetail
	for rows.Next() {
		var detail persistence.AssignmentDetail
		if err := rows.Scan(&detail.ID, &detail.UserID, &detail.Username, &detail.StageID, &detail.StageName, &detail.ProjectName); err != nil {
			return nil, r.mapper.MapError(err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return details, nil
}

// UpdateAssignmentUser reassigns an existing assignment to another technician
func (r *AssignmentRepository) UpdateAssignmentUser(ctx context.Context, id, userID string, updatedAt time.Time) error {
	if id == "" || userID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `UPDATE assignments SET user_id = ?, updated_at = ? WHERE id = ?`,
		userID, formatTimestamp(updatedAt), id)
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

// ListAssignmentLoads returns the availability rows: one per assignment whose
// stage is not finished, with the stage's window and estimate. Every
// non-finished status counts toward a technician's committed hours.
func (r *AssignmentRepository) ListAssignmentLoads(ctx context.Context) ([]persistence.AssignmentLoad, error) {
	query := `
		SELECT a.user_id, u.username, s.start_date, s.end_date, s.estimated_hours
		FROM assignments a
		JOIN users u ON u.id = a.user_id
		JOIN stages s ON s.id = a.stage_id
		WHERE s.status != ?
		ORDER BY a.user_id ASC, s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, persistence.StageStatusFinished)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var loads []persistence.AssignmentLoad
	for rows.Next() {
		var load persistence.AssignmentLoad
		var startDate, endDate sql.NullString
		if err := rows.Scan(&load.UserID, &load.Username, &startDate, &endDate, &load.EstimatedHours); err != nil {
			return nil, r.mapper.MapError(err)
		}
		load.StageStartDate = stringPtr(startDate)
		load.StageEndDate = stringPtr(endDate)
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return loads, nil
}
