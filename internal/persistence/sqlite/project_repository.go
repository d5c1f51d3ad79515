package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/project-tracker/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository using SQLite
type ProjectRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewProjectRepository creates a new SQLite project repository
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const projectColumns = `id, name, client, start_date, due_date, status, type, created_at, updated_at`

// CreateProjectGraph persists a project together with its stages and any
// initial assignments in one transaction.
func (r *ProjectRepository) CreateProjectGraph(ctx context.Context, project persistence.Project, stages []persistence.Stage, assignments []persistence.Assignment) error {
	if project.ID == "" {
		return persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO projects (`+projectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			project.ID,
			project.Name,
			project.Client,
			project.StartDate,
			project.DueDate,
			project.Status,
			project.Type,
			formatTimestamp(project.CreatedAt),
			formatTimestamp(project.UpdatedAt),
		)
		if err != nil {
			return err
		}

		for _, stage := range stages {
			_, err := r.helper.ExecTx(tx, `
				INSERT INTO stages (id, project_id, name, status, estimated_hours, start_date, end_date, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
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
				return err
			}
		}

		for _, assignment := range assignments {
			_, err := r.helper.ExecTx(tx, `
				INSERT INTO assignments (id, stage_id, user_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
			`,
				assignment.ID,
				assignment.StageID,
				assignment.UserID,
				formatTimestamp(assignment.CreatedAt),
				formatTimestamp(assignment.UpdatedAt),
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetProject retrieves a project by ID from the database
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	project, err := r.scanProject(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Project{}, persistence.ErrNotFound
		}
		return persistence.Project{}, err
	}

	return project, nil
}

// ListProjects returns all projects ordered by start date then ID
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY start_date ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := r.scanProjectRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return projects, nil
}

// UpdateProject updates an existing project in the database
func (r *ProjectRepository) UpdateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE projects
		SET name = ?, client = ?, start_date = ?, due_date = ?, status = ?, type = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		project.Name,
		project.Client,
		project.StartDate,
		project.DueDate,
		project.Status,
		project.Type,
		formatTimestamp(project.UpdatedAt),
		project.ID,
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

// DeleteProjectCascade removes the project and every dependent record. Audit
// entries are detached rather than deleted so the bitácora stays complete.
func (r *ProjectRepository) DeleteProjectCascade(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM time_logs WHERE stage_id IN (SELECT id FROM stages WHERE project_id = ?)`,
			`DELETE FROM comments WHERE project_id = ?`,
			`DELETE FROM tasks WHERE stage_id IN (SELECT id FROM stages WHERE project_id = ?)`,
			`DELETE FROM assignments WHERE stage_id IN (SELECT id FROM stages WHERE project_id = ?)`,
			`UPDATE audit_entries SET project_id = NULL WHERE project_id = ?`,
			`DELETE FROM stages WHERE project_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := r.helper.ExecTx(tx, stmt, id); err != nil {
				return err
			}
		}

		result, err := r.helper.ExecTx(tx, `DELETE FROM projects WHERE id = ?`, id)
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

func (r *ProjectRepository) scanProject(row *sql.Row) (persistence.Project, error) {
	return r.scanProjectRow(row)
}

func (r *ProjectRepository) scanProjectRow(row rowScanner) (persistence.Project, error) {
	var project persistence.Project
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Client,
		&project.StartDate,
		&project.DueDate,
		&project.Status,
		&project.Type,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Project{}, err
		}
		return persistence.Project{}, r.mapper.MapError(err)
	}

	if project.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Project{}, fmt.Errorf("project %s: %w", project.ID, err)
	}
	if project.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Project{}, fmt.Errorf("project %s: %w", project.ID, err)
	}

	return project, nil
}
