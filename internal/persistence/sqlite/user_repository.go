package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/project-tracker/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, username, first_name, last_name, password_hash, role, phone, email, created_at, updated_at`

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	username := strings.ToLower(strings.TrimSpace(user.Username))

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Email,
		formatTimestamp(user.CreatedAt),
		formatTimestamp(user.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, id))
}

// GetUserByUsername retrieves a user by login name from the database
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if username == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(username))))
}

// ListTechnicians returns every account with the technician role ordered by name
func (r *UserRepository) ListTechnicians(ctx context.Context) ([]persistence.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = ?
		ORDER BY first_name ASC, last_name ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, persistence.RoleTechnician)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

// ListTechnicianStages returns the stages assigned to a technician joined
// with their project information, newest project deadline first.
func (r *UserRepository) ListTechnicianStages(ctx context.Context, userID string) ([]persistence.TechnicianStage, error) {
	query := `
		SELECT s.id, s.name, s.status, s.start_date, s.end_date, p.name, p.client, p.due_date
		FROM assignments a
		JOIN stages s ON s.id = a.stage_id
		JOIN projects p ON p.id = s.project_id
		WHERE a.user_id = ?
		ORDER BY p.due_date ASC, s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stages []persistence.TechnicianStage
	for rows.Next() {
		var ts persistence.TechnicianStage
		var startDate, endDate sql.NullString
		if err := rows.Scan(&ts.StageID, &ts.StageName, &ts.Status, &startDate, &endDate, &ts.ProjectName, &ts.Client, &ts.DueDate); err != nil {
			return nil, r.mapper.MapError(err)
		}
		ts.StartDate = stringPtr(startDate)
		ts.EndDate = stringPtr(endDate)
		stages = append(stages, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return stages, nil
}

// ListTechnicianTasks returns the technician task board rows: each assigned
// stage with its accumulated hours and its most recent comment.
func (r *UserRepository) ListTechnicianTasks(ctx context.Context, userID string) ([]persistence.TechnicianTask, error) {
	query := `
		SELECT s.id, p.name, s.name, s.start_date, s.end_date, s.estimated_hours, s.status,
			COALESCE((SELECT SUM(t.hours_worked) FROM time_logs t WHERE t.stage_id = s.id AND t.hours_worked IS NOT NULL), 0),
			(SELECT c.body FROM comments c WHERE c.stage_id = s.id ORDER BY c.created_at DESC, c.id DESC LIMIT 1)
		FROM assignments a
		JOIN stages s ON s.id = a.stage_id
		JOIN projects p ON p.id = s.project_id
		WHERE a.user_id = ?
		ORDER BY s.start_date ASC, s.id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.TechnicianTask
	for rows.Next() {
		var tt persistence.TechnicianTask
		var startDate, endDate, comment sql.NullString
		if err := rows.Scan(&tt.StageID, &tt.ProjectName, &tt.StageName, &startDate, &endDate, &tt.EstimatedHours, &tt.Status, &tt.RealHours, &comment); err != nil {
			return nil, r.mapper.MapError(err)
		}
		tt.StartDate = stringPtr(startDate)
		tt.EndDate = stringPtr(endDate)
		tt.Comment = stringPtr(comment)
		tasks = append(tasks, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row *sql.Row) (persistence.User, error) {
	user, err := r.scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

func (r *UserRepository) scanUserRow(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.Phone,
		&user.Email,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, err
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	if user.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if user.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("user %s: %w", user.ID, err)
	}

	return user, nil
}
