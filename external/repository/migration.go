package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS states (
		name TEXT PRIMARY KEY,
		custom BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS time_sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		state_name TEXT NOT NULL REFERENCES states(name),
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		tag TEXT NOT NULL DEFAULT '',
		duration_seconds BIGINT,
		mood SMALLINT CHECK (mood >= 1 AND mood <= 5)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_sessions_open ON time_sessions (user_id) WHERE end_time IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_time_sessions_user_start ON time_sessions (user_id, start_time DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
