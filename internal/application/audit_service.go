package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// AuditRepository captures the persistence interactions for bitácora entries.
type AuditRepository interface {
	CreateEntry(ctx context.Context, entry persistence.AuditEntry) error
	ListEntries(ctx context.Context) ([]persistence.AuditRecord, error)
}

// Recorder is the write side of the audit trail. Other services depend on
// this interface so tests can observe recorded actions.
type Recorder interface {
	Record(ctx context.Context, userID string, projectID *string, action string)
}

// AuditService maintains the bitácora: a chronological record of user actions.
type AuditService struct {
	entries     AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditService wires dependencies for the audit service.
func NewAuditService(entries AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuditService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuditService{
		entries:     entries,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Record persists one bitácora entry. Failures are logged and swallowed: the
// audit trail must never abort the operation it describes.
func (s *AuditService) Record(ctx context.Context, userID string, projectID *string, action string) {
	if s == nil || s.entries == nil || userID == "" || action == "" {
		return
	}

	entry := persistence.AuditEntry{
		ID:         s.idGenerator(),
		UserID:     userID,
		ProjectID:  projectID,
		Action:     action,
		RecordedAt: s.now(),
	}

	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		serviceLogger(ctx, s.logger, "AuditService", "Record", "user_id", userID).
			WarnContext(ctx, "failed to record audit entry", "error", err, "action", action)
	}
}

// ListEntries returns the full bitácora, newest first.
func (s *AuditService) ListEntries(ctx context.Context, principal Principal) ([]persistence.AuditRecord, error) {
	if !principal.CanManageProjects() {
		return nil, ErrUnauthorized
	}

	records, err := s.entries.ListEntries(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}
