package sqlite

import (
	"context"

	"github.com/example/project-tracker/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository using SQLite
type AuditRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAuditRepository creates a new SQLite audit repository
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEntry inserts a new bitácora entry into the database
func (r *AuditRepository) CreateEntry(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.ID == "" || entry.UserID == "" || entry.Action == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO audit_entries (id, user_id, project_id, action, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		nullableString(entry.ProjectID),
		entry.Action,
		formatTimestamp(entry.RecordedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// ListEntries returns every bitácora entry with the actor's name, newest first
func (r *AuditRepository) ListEntries(ctx context.Context) ([]persistence.AuditRecord, error) {
	query := `
		SELECT b.id, b.action, b.recorded_at, u.username
		FROM audit_entries b
		JOIN users u ON u.id = b.user_id
		ORDER BY b.recorded_at DESC, b.id DESC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.AuditRecord
	for rows.Next() {
		var record persistence.AuditRecord
		var recordedAtStr string
		if err := rows.Scan(&record.ID, &record.Action, &recordedAtStr, &record.Username); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if record.RecordedAt, err = parseTimestamp("recorded_at", recordedAtStr); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return records, nil
}
