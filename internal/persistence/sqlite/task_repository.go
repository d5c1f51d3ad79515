package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/project-tracker/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite
type TaskRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const taskColumns = `id, stage_id, name, start_date, end_date, estimated_hours, status, created_at, updated_at`

// CreateTask inserts a new task into the database
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.StageID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		task.ID,
		task.StageID,
		task.Name,
		task.StartDate,
		task.EndDate,
		task.EstimatedHours,
		task.Status,
		formatTimestamp(task.CreatedAt),
		formatTimestamp(task.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetTask retrieves a task by ID from the database
func (r *TaskRepository) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := r.scanTask(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Task{}, persistence.ErrNotFound
		}
		return persistence.Task{}, err
	}

	return task, nil
}

// ListTasksForProject returns every task under the project's stages
func (r *TaskRepository) ListTasksForProject(ctx context.Context, projectID string) ([]persistence.Task, error) {
	query := `
		SELECT t.id, t.stage_id, t.name, t.start_date, t.end_date, t.estimated_hours, t.status, t.created_at, t.updated_at
		FROM tasks t
		JOIN stages s ON s.id = t.stage_id
		WHERE s.project_id = ?
		ORDER BY t.start_date ASC, t.id ASC
	`

	rows, err := r.helper.Query(ctx, query, projectID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task in the database
func (r *TaskRepository) UpdateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE tasks
		SET name = ?, start_date = ?, end_date = ?, estimated_hours = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		task.Name,
		task.StartDate,
		task.EndDate,
		task.EstimatedHours,
		task.Status,
		formatTimestamp(task.UpdatedAt),
		task.ID,
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

// DeleteTask removes a task from the database
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
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

func (r *TaskRepository) scanTask(row rowScanner) (persistence.Task, error) {
	var task persistence.Task
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&task.ID,
		&task.StageID,
		&task.Name,
		&task.StartDate,
		&task.EndDate,
		&task.EstimatedHours,
		&task.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Task{}, err
		}
		return persistence.Task{}, r.mapper.MapError(err)
	}

	if task.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Task{}, fmt.Errorf("task %s: %w", task.ID, err)
	}
	if task.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Task{}, fmt.Errorf("task %s: %w", task.ID, err)
	}

	return task, nil
}
