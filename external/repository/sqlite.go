package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/utyara3/TimeTracker/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  display_name TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS states (
  name TEXT PRIMARY KEY,
  custom INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS time_sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  state_name TEXT NOT NULL REFERENCES states(name),
  start_time INTEGER NOT NULL,
  end_time INTEGER,
  tag TEXT NOT NULL DEFAULT '',
  duration_seconds INTEGER,
  mood INTEGER CHECK (mood >= 1 AND mood <= 5)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_time_sessions_open ON time_sessions (user_id) WHERE end_time IS NULL;
CREATE INDEX IF NOT EXISTS idx_time_sessions_user_start ON time_sessions (user_id, start_time);
`

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository stores timestamps as unix seconds. A single connection
// serializes writers, so transactions never interleave inside one process.
type SQLiteRepository struct {
	sqliteQueries
	db    *sql.DB
	retry RetryPolicy
}

func NewSQLiteRepository(ctx context.Context, dbPath string, retry RetryPolicy) (repository.Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	r := &SQLiteRepository{
		sqliteQueries: sqliteQueries{db: db},
		db:            db,
		retry:         retry,
	}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) ensureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return runWithRetry(ctx, r.retry, isTransientSQLiteError, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin sqlite tx: %w", err)
		}
		if err := fn(ctx, &sqliteQueries{db: tx}); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit sqlite tx: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func isTransientSQLiteError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}

type sqliteQueries struct {
	db sqlQuerier
}

func (q *sqliteQueries) UpsertUser(ctx context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO users (id, display_name, created_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name;
`, input.UserID, input.DisplayName, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return q.GetUser(ctx, input.UserID)
}

func (q *sqliteQueries) GetUser(ctx context.Context, userID int64) (*repository.User, error) {
	var (
		u         repository.User
		createdAt int64
	)
	err := q.db.QueryRowContext(ctx, `SELECT id, display_name, created_at FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.DisplayName, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

func (q *sqliteQueries) EnsureState(ctx context.Context, name string, custom bool) error {
	if _, err := q.db.ExecContext(ctx,
		`INSERT INTO states (name, custom) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, custom); err != nil {
		return fmt.Errorf("ensure state: %w", err)
	}
	return nil
}

func (q *sqliteQueries) ListStates(ctx context.Context) ([]repository.State, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name, custom FROM states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()
	var list []repository.State
	for rows.Next() {
		var s repository.State
		if err := rows.Scan(&s.Name, &s.Custom); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (q *sqliteQueries) InsertSession(ctx context.Context, input repository.InsertSessionInput) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO time_sessions (user_id, state_name, start_time, tag) VALUES (?, ?, ?, ?)`,
		input.UserID, input.StateName, input.StartTime.Unix(), input.Tag)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return res.LastInsertId()
}

func (q *sqliteQueries) CloseOpenSession(ctx context.Context, input repository.CloseSessionInput) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE time_sessions SET end_time = ?, duration_seconds = ? WHERE user_id = ? AND end_time IS NULL`,
		input.EndTime.Unix(), input.DurationSeconds, input.UserID)
	if err != nil {
		return false, fmt.Errorf("close open session: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (q *sqliteQueries) GetOpenSession(ctx context.Context, userID int64) (*repository.Session, error) {
	return q.getSession(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions WHERE user_id = ? AND end_time IS NULL LIMIT 1`,
		userID)
}

func (q *sqliteQueries) GetSessionByID(ctx context.Context, sessionID, ownerID int64) (*repository.Session, error) {
	return q.getSession(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions WHERE id = ? AND user_id = ?`,
		sessionID, ownerID)
}

func (q *sqliteQueries) ListSessionsByUser(ctx context.Context, userID int64, limit int) ([]repository.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	return q.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions WHERE user_id = ? ORDER BY start_time DESC, id DESC LIMIT ?`,
		userID, limit)
}

func (q *sqliteQueries) ListSessionsByUserAndDay(ctx context.Context, userID int64, day repository.DayRange) ([]repository.Session, error) {
	return q.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions
WHERE user_id = ? AND start_time >= ? AND start_time < ?
ORDER BY start_time DESC, id DESC`,
		userID, day.Start.Unix(), day.End.Unix())
}

func (q *sqliteQueries) UpdateSession(ctx context.Context, input repository.SessionUpdate) (bool, error) {
	var (
		sets []string
		args []any
	)
	if input.StateName != nil {
		sets = append(sets, "state_name = ?")
		args = append(args, *input.StateName)
	}
	if input.Tag != nil {
		sets = append(sets, "tag = ?")
		args = append(args, *input.Tag)
	}
	if input.Mood != nil {
		sets = append(sets, "mood = ?")
		args = append(args, *input.Mood)
	}
	if len(sets) == 0 {
		s, err := q.GetSessionByID(ctx, input.SessionID, input.OwnerID)
		return s != nil, err
	}
	args = append(args, input.SessionID, input.OwnerID)
	res, err := q.db.ExecContext(ctx,
		`UPDATE time_sessions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (q *sqliteQueries) ListTags(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT tag FROM time_sessions WHERE user_id = ? AND tag <> '' ORDER BY start_time DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (q *sqliteQueries) getSession(ctx context.Context, query string, args ...any) (*repository.Session, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSQLiteSession(rows)
}

func (q *sqliteQueries) listSessions(ctx context.Context, query string, args ...any) ([]repository.Session, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var list []repository.Session
	for rows.Next() {
		s, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanSQLiteSession(rows *sql.Rows) (*repository.Session, error) {
	var (
		s        repository.Session
		start    int64
		end      sql.NullInt64
		duration sql.NullInt64
		mood     sql.NullInt64
	)
	if err := rows.Scan(&s.ID, &s.UserID, &s.StateName, &start, &end, &s.Tag, &duration, &mood); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.StartTime = time.Unix(start, 0)
	if end.Valid {
		t := time.Unix(end.Int64, 0)
		s.EndTime = &t
	}
	if duration.Valid {
		d := duration.Int64
		s.DurationSeconds = &d
	}
	if mood.Valid {
		m := int(mood.Int64)
		s.Mood = &m
	}
	return &s, nil
}
