package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is a single versioned schema change. Migrations run in order and
// each applied version is recorded in schema_migrations.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE TABLE users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('admin', 'technician', 'supervisor')),
				phone TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				client TEXT NOT NULL DEFAULT '',
				start_date TEXT NOT NULL,
				due_date TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('active', 'stopped', 'finished', 'cancelled')),
				type TEXT NOT NULL CHECK (type IN ('long', 'short', 'flexible')),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE stages (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				name TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'stopped', 'finished', 'cancelled')),
				estimated_hours INTEGER NOT NULL DEFAULT 0,
				start_date TEXT,
				end_date TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_stages_project ON stages(project_id)`,
			`CREATE TABLE assignments (
				id TEXT PRIMARY KEY,
				stage_id TEXT NOT NULL UNIQUE REFERENCES stages(id),
				user_id TEXT NOT NULL REFERENCES users(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_assignments_user ON assignments(user_id)`,
			`CREATE TABLE comments (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				stage_id TEXT REFERENCES stages(id),
				user_id TEXT NOT NULL REFERENCES users(id),
				kind TEXT NOT NULL CHECK (kind IN ('general', 'delay')),
				body TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_comments_project ON comments(project_id)`,
			`CREATE INDEX idx_comments_stage ON comments(stage_id)`,
			`CREATE TABLE time_logs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				stage_id TEXT NOT NULL REFERENCES stages(id),
				log_date TEXT NOT NULL,
				started_at TEXT NOT NULL,
				ended_at TEXT,
				hours_worked REAL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_time_logs_stage ON time_logs(stage_id)`,
			`CREATE INDEX idx_time_logs_user ON time_logs(user_id)`,
			`CREATE TABLE audit_entries (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				project_id TEXT REFERENCES projects(id),
				action TEXT NOT NULL,
				recorded_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_audit_entries_project ON audit_entries(project_id)`,
			`CREATE TABLE tasks (
				id TEXT PRIMARY KEY,
				stage_id TEXT NOT NULL REFERENCES stages(id),
				name TEXT NOT NULL,
				start_date TEXT NOT NULL DEFAULT '',
				end_date TEXT NOT NULL DEFAULT '',
				estimated_hours INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'stopped', 'finished', 'cancelled')),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_tasks_stage ON tasks(stage_id)`,
			`CREATE TABLE sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX idx_sessions_user ON sessions(user_id)`,
		},
	},
}

// Migrate brings the schema up to the latest version. It is safe to call on
// every startup.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	row := pool.DB().QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
