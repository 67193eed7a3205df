package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wayfarer-ai/planner/internal/database"
)

// schemaVersion is bumped whenever migrate's statement list grows.
// Grounded on the teacher's plain-SQL-no-framework style
// (internal/database has no migration tool wired in) — a single
// monotonic version column is enough for this service's four tables.
const schemaVersion = 1

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_active_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		sequence_number INTEGER NOT NULL,
		message TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		request_id UUID PRIMARY KEY REFERENCES requests(id),
		session_id UUID NOT NULL REFERENCES sessions(id),
		status TEXT NOT NULL,
		itinerary JSONB,
		run_fingerprint JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		id UUID PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES requests(id),
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_session_id ON requests(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_request_id ON artifacts(request_id)`,
}

// Migrate applies every statement in migrationStatements inside one
// transaction and records the resulting schemaVersion, mirroring the
// teacher's Pool.Transaction helper rather than pulling in a dedicated
// migration library — there's no up/down reversibility need here, only
// idempotent CREATE IF NOT EXISTS statements run once at startup.
func Migrate(ctx context.Context, pool *database.Pool) error {
	var applied int
	err := pool.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied)
	if err != nil {
		// schema_migrations doesn't exist yet on a fresh database.
		applied = 0
	}
	if applied >= schemaVersion {
		return nil
	}

	return pool.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range migrationStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("session: migration statement failed: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING", schemaVersion)
		if err != nil {
			return fmt.Errorf("session: recording schema version failed: %w", err)
		}
		return nil
	})
}
