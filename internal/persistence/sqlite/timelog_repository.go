package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/project-tracker/internal/persistence"
)

// TimeLogRepository implements persistence.TimeLogRepository using SQLite
type TimeLogRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTimeLogRepository creates a new SQLite time log repository
func NewTimeLogRepository(pool *ConnectionPool) *TimeLogRepository {
	return &TimeLogRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTimeLog inserts a new timer record into the database
func (r *TimeLogRepository) CreateTimeLog(ctx context.Context, log persistence.TimeLog) error {
	if log.ID == "" || log.UserID == "" || log.StageID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO time_logs (id, user_id, stage_id, log_date, started_at, ended_at, hours_worked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.StageID,
		log.LogDate,
		log.StartedAt,
		nullableString(log.EndedAt),
		nullableFloat(log.HoursWorked),
		formatTimestamp(log.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// LatestOpenLog returns the newest record without an end time for the user
// and stage, or ErrNotFound when no timer is running.
func (r *TimeLogRepository) LatestOpenLog(ctx context.Context, userID, stageID string) (persistence.TimeLog, error) {
	query := `
		SELECT id, user_id, stage_id, log_date, started_at, ended_at, hours_worked, created_at
		FROM time_logs
		WHERE user_id = ? AND stage_id = ? AND ended_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var log persistence.TimeLog
	var endedAt sql.NullString
	var hoursWorked sql.NullFloat64
	var createdAtStr string

	err := r.helper.QueryRow(ctx, query, userID, stageID).Scan(
		&log.ID,
		&log.UserID,
		&log.StageID,
		&log.LogDate,
		&log.StartedAt,
		&endedAt,
		&hoursWorked,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.TimeLog{}, persistence.ErrNotFound
		}
		return persistence.TimeLog{}, r.mapper.MapError(err)
	}

	log.EndedAt = stringPtr(endedAt)
	log.HoursWorked = floatPtr(hoursWorked)
	if log.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.TimeLog{}, fmt.Errorf("time log %s: %w", log.ID, err)
	}

	return log, nil
}

// CloseTimeLog records the end time and worked hours for an open timer
func (r *TimeLogRepository) CloseTimeLog(ctx context.Context, id, endedAt string, hoursWorked float64) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE time_logs SET ended_at = ?, hours_worked = ? WHERE id = ? AND ended_at IS NULL
	`, endedAt, hoursWorked, id)
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

// SumHours totals the closed hours a user has logged against a stage
func (r *TimeLogRepository) SumHours(ctx context.Context, stageID, userID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(hours_worked), 0)
		FROM time_logs
		WHERE stage_id = ? AND user_id = ? AND hours_worked IS NOT NULL
	`

	var total float64
	if err := r.helper.QueryRow(ctx, query, stageID, userID).Scan(&total); err != nil {
		return 0, r.mapper.MapError(err)
	}

	return total, nil
}

// ListHistoryForUser returns the user's timer history joined with stage and
// project names and the latest comment per stage, newest first.
func (r *TimeLogRepository) ListHistoryForUser(ctx context.Context, userID string) ([]persistence.TimeLogHistoryEntry, error) {
	query := `
		SELECT t.log_date, t.started_at, t.ended_at, t.hours_worked, s.name, p.name,
			(SELECT c.body FROM comments c WHERE c.stage_id = s.id ORDER BY c.created_at DESC, c.id DESC LIMIT 1)
		FROM time_logs t
		JOIN stages s ON s.id = t.stage_id
		JOIN projects p ON p.id = s.project_id
		WHERE t.user_id = ?
		ORDER BY t.log_date DESC, t.started_at DESC, t.id DESC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.TimeLogHistoryEntry
	for rows.Next() {
		var entry persistence.TimeLogHistoryEntry
		var endedAt, comment sql.NullString
		var hoursWorked sql.NullFloat64
		if err := rows.Scan(&entry.LogDate, &entry.StartedAt, &endedAt, &hoursWorked, &entry.StageName, &entry.ProjectName, &comment); err != nil {
			return nil, r.mapper.MapError(err)
		}
		entry.EndedAt = stringPtr(endedAt)
		entry.HoursWorked = floatPtr(hoursWorked)
		entry.Comment = stringPtr(comment)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}
