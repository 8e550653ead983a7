package repository

import (
	"context"
	"time"
)

type UpsertUserInput struct {
	UserID      int64
	DisplayName string
}

type InsertSessionInput struct {
	UserID    int64
	StateName string
	StartTime time.Time
	Tag       string
}

type CloseSessionInput struct {
	UserID          int64
	EndTime         time.Time
	DurationSeconds int64
}

// SessionUpdate changes the non-nil fields of one session owned by OwnerID.
type SessionUpdate struct {
	SessionID int64
	OwnerID   int64
	StateName *string
	Tag       *string
	Mood      *int
}

type UserRepository interface {
	UpsertUser(ctx context.Context, input UpsertUserInput) (*User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
}

type StateRepository interface {
	EnsureState(ctx context.Context, name string, custom bool) error
	ListStates(ctx context.Context) ([]State, error)
}

type SessionRepository interface {
	InsertSession(ctx context.Context, input InsertSessionInput) (int64, error)
	// CloseOpenSession reports false when the user had no open session.
	CloseOpenSession(ctx context.Context, input CloseSessionInput) (bool, error)
	GetOpenSession(ctx context.Context, userID int64) (*Session, error)
	GetSessionByID(ctx context.Context, sessionID, ownerID int64) (*Session, error)
	// ListSessionsByUser orders by start time descending; limit <= 0 means all.
	ListSessionsByUser(ctx context.Context, userID int64, limit int) ([]Session, error)
	ListSessionsByUserAndDay(ctx context.Context, userID int64, day DayRange) ([]Session, error)
	// UpdateSession reports false when the session does not exist or is not owned by OwnerID.
	UpdateSession(ctx context.Context, input SessionUpdate) (bool, error)
	ListTags(ctx context.Context, userID int64) ([]string, error)
}

type Tx interface {
	UserRepository
	StateRepository
	SessionRepository
}

type Repository interface {
	Tx
	// WithTx runs fn inside one transaction. Any error from fn rolls back every
	// write fn made; transient contention is retried before giving up.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
