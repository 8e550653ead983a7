package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/utyara3/TimeTracker/internal/repository"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	openSessionIndex       = "idx_time_sessions_open"

	sessionColumns = `id, user_id, state_name, start_time, end_time, tag, duration_seconds, mood`
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	pgQueries
	pool  *pgxpool.Pool
	retry RetryPolicy
}

func NewPostgresRepository(pool *pgxpool.Pool, retry RetryPolicy) repository.Repository {
	return &PostgresRepository{
		pgQueries: pgQueries{db: pool},
		pool:      pool,
		retry:     retry,
	}
}

func (r *PostgresRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return runWithRetry(ctx, r.retry, isTransientPostgresError, func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			return fn(ctx, &pgQueries{db: tx, lockOpen: true})
		})
	})
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// isTransientPostgresError also treats a violation of the open-session index
// as transient: a concurrent writer won the race, and re-running the
// transaction observes and closes its session.
func isTransientPostgresError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		case pgUniqueViolation:
			return pgErr.ConstraintName == openSessionIndex
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}

type pgQueries struct {
	db       pgQuerier
	lockOpen bool
}

func (q *pgQueries) UpsertUser(ctx context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO users (id, display_name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
		 RETURNING id, display_name, created_at`,
		input.UserID, input.DisplayName)
	var u repository.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *pgQueries) GetUser(ctx context.Context, userID int64) (*repository.User, error) {
	row := q.db.QueryRow(ctx, `SELECT id, display_name, created_at FROM users WHERE id = $1`, userID)
	var u repository.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (q *pgQueries) EnsureState(ctx context.Context, name string, custom bool) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO states (name, custom) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, custom)
	return err
}

func (q *pgQueries) ListStates(ctx context.Context) ([]repository.State, error) {
	rows, err := q.db.Query(ctx, `SELECT name, custom FROM states ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.State
	for rows.Next() {
		var s repository.State
		if err := rows.Scan(&s.Name, &s.Custom); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (q *pgQueries) InsertSession(ctx context.Context, input repository.InsertSessionInput) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx,
		`INSERT INTO time_sessions (user_id, state_name, start_time, tag)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		input.UserID, input.StateName, input.StartTime, input.Tag).Scan(&id)
	return id, err
}

func (q *pgQueries) CloseOpenSession(ctx context.Context, input repository.CloseSessionInput) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE time_sessions SET end_time = $2, duration_seconds = $3
		 WHERE user_id = $1 AND end_time IS NULL`,
		input.UserID, input.EndTime, input.DurationSeconds)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (q *pgQueries) GetOpenSession(ctx context.Context, userID int64) (*repository.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM time_sessions WHERE user_id = $1 AND end_time IS NULL LIMIT 1`
	if q.lockOpen {
		query += ` FOR UPDATE`
	}
	return scanOptionalSession(q.db.QueryRow(ctx, query, userID))
}

func (q *pgQueries) GetSessionByID(ctx context.Context, sessionID, ownerID int64) (*repository.Session, error) {
	return scanOptionalSession(q.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, ownerID))
}

func (q *pgQueries) ListSessionsByUser(ctx context.Context, userID int64, limit int) ([]repository.Session, error) {
	if limit <= 0 {
		return q.listSessions(ctx,
			`SELECT `+sessionColumns+` FROM time_sessions WHERE user_id = $1 ORDER BY start_time DESC, id DESC`,
			userID)
	}
	return q.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions WHERE user_id = $1 ORDER BY start_time DESC, id DESC LIMIT $2`,
		userID, limit)
}

func (q *pgQueries) ListSessionsByUserAndDay(ctx context.Context, userID int64, day repository.DayRange) ([]repository.Session, error) {
	return q.listSessions(ctx,
		`SELECT `+sessionColumns+` FROM time_sessions
		 WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time DESC, id DESC`,
		userID, day.Start, day.End)
}

func (q *pgQueries) UpdateSession(ctx context.Context, input repository.SessionUpdate) (bool, error) {
	args := []any{input.SessionID, input.OwnerID}
	var sets []string
	if input.StateName != nil {
		args = append(args, *input.StateName)
		sets = append(sets, fmt.Sprintf("state_name = $%d", len(args)))
	}
	if input.Tag != nil {
		args = append(args, *input.Tag)
		sets = append(sets, fmt.Sprintf("tag = $%d", len(args)))
	}
	if input.Mood != nil {
		args = append(args, *input.Mood)
		sets = append(sets, fmt.Sprintf("mood = $%d", len(args)))
	}
	if len(sets) == 0 {
		s, err := q.GetSessionByID(ctx, input.SessionID, input.OwnerID)
		return s != nil, err
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE time_sessions SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND user_id = $2`,
		args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *pgQueries) ListTags(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.Query(ctx,
		`SELECT tag FROM time_sessions WHERE user_id = $1 AND tag <> '' ORDER BY start_time DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (q *pgQueries) listSessions(ctx context.Context, query string, args ...any) ([]repository.Session, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanOptionalSession(row pgx.Row) (*repository.Session, error) {
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	err := row.Scan(&s.ID, &s.UserID, &s.StateName, &s.StartTime, &s.EndTime, &s.Tag, &s.DurationSeconds, &s.Mood)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
