package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
	"github.com/example/project-tracker/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool        *sqlite.ConnectionPool
	Users       persistence.UserRepository
	Projects    persistence.ProjectRepository
	Stages      persistence.StageRepository
	Assignments persistence.AssignmentRepository
	Comments    persistence.CommentRepository
	TimeLogs    persistence.TimeLogRepository
	Audit       persistence.AuditRepository
	Tasks       persistence.TaskRepository
	Sessions    persistence.SessionRepository
	Reporting   persistence.ReportingRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a harness backed by a temporary database file
// that is migrated automatically. Cleanup is registered with the provided
// testing.TB, though callers may also invoke Close directly.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "tracker.db")

	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:        pool,
		Users:       sqlite.NewUserRepository(pool),
		Projects:    sqlite.NewProjectRepository(pool),
		Stages:      sqlite.NewStageRepository(pool),
		Assignments: sqlite.NewAssignmentRepository(pool),
		Comments:    sqlite.NewCommentRepository(pool),
		TimeLogs:    sqlite.NewTimeLogRepository(pool),
		Audit:       sqlite.NewAuditRepository(pool),
		Tasks:       sqlite.NewTaskRepository(pool),
		Sessions:    sqlite.NewSessionRepository(pool),
		Reporting:   sqlite.NewReportingRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
