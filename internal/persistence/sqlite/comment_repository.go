package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/project-tracker/internal/persistence"
)

// CommentRepository implements persistence.CommentRepository using SQLite
type CommentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCommentRepository creates a new SQLite comment repository
func NewCommentRepository(pool *ConnectionPool) *CommentRepository {
	return &CommentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateComment inserts a new comment into the database
func (r *CommentRepository) CreateComment(ctx context.Context, comment persistence.Comment) error {
	if comment.ID == "" || comment.ProjectID == "" || comment.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO comments (id, project_id, stage_id, user_id, kind, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		comment.ID,
		comment.ProjectID,
		nullableString(comment.StageID),
		comment.UserID,
		comment.Kind,
		comment.Body,
		formatTimestamp(comment.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// ListCommentsForStage returns the stage's comments, oldest first
func (r *CommentRepository) ListCommentsForStage(ctx context.Context, stageID string) ([]persistence.Comment, error) {
	query := `
		SELECT id, project_id, stage_id, user_id, kind, body, created_at
		FROM comments
		WHERE stage_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, stageID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var comments []persistence.Comment
	for rows.Next() {
		var comment persistence.Comment
		var stageIDCol sql.NullString
		var createdAtStr string
		if err := rows.Scan(&comment.ID, &comment.ProjectID, &stageIDCol, &comment.UserID, &comment.Kind, &comment.Body, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		comment.StageID = stringPtr(stageIDCol)
		if comment.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
			return nil, fmt.Errorf("comment %s: %w", comment.ID, err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return comments, nil
}

// ListProjectLog merges bitácora entries and comments for a project into one
// chronological history, newest first.
func (r *CommentRepository) ListProjectLog(ctx context.Context, projectID string) ([]persistence.ProjectLogEntry, error) {
	query := `
		SELECT c.body, u.first_name || ' ' || u.last_name, c.stage_id, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.project_id = ?
		UNION ALL
		SELECT b.action, u.first_name || ' ' || u.last_name, NULL, b.recorded_at
		FROM audit_entries b
		JOIN users u ON u.id = b.user_id
		WHERE b.project_id = ?
		ORDER BY 4 DESC
	`

	rows, err := r.helper.Query(ctx, query, projectID, projectID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ProjectLogEntry
	for rows.Next() {
		var entry persistence.ProjectLogEntry
		var stageID sql.NullString
		var recordedAtStr string
		if err := rows.Scan(&entry.Body, &entry.Author, &stageID, &recordedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		entry.StageID = stringPtr(stageID)
		if entry.RecordedAt, err = parseTimestamp("recorded_at", recordedAtStr); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

// ListDelayReasons groups delay comments by body with occurrence counts,
// narrowed by the optional filter fields.
func (r *CommentRepository) ListDelayReasons(ctx context.Context, filter persistence.DelayReasonFilter) ([]persistence.DelayReason, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT c.body, COUNT(*)
		FROM comments c
		JOIN stages s ON s.id = c.stage_id
		JOIN projects p ON p.id = s.project_id
		WHERE c.kind = ?
	`)
	args := []any{persistence.CommentKindDelay}

	if filter.TechnicianID != "" {
		sb.WriteString(` AND c.user_id = ?`)
		args = append(args, filter.TechnicianID)
	}
	if filter.ProjectID != "" {
		sb.WriteString(` AND p.id = ?`)
		args = append(args, filter.ProjectID)
	}
	if filter.ProjectType != "" {
		sb.WriteString(` AND p.type = ?`)
		args = append(args, filter.ProjectType)
	}

	sb.WriteString(` GROUP BY c.body ORDER BY COUNT(*) DESC, c.body ASC`)

	rows, err := r.helper.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reasons []persistence.DelayReason
	for rows.Next() {
		var reason persistence.DelayReason
		if err := rows.Scan(&reason.Reason, &reason.Count); err != nil {
			return nil, r.mapper.MapError(err)
		}
		reasons = append(reasons, reason)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return reasons, nil
}
