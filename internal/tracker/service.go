package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utyara3/TimeTracker/internal/analytics"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
)

const TopTagsLimit = 20

type Options struct {
	Location          *time.Location
	Vocabulary        config.Vocabulary
	AllowCustomStates bool
	PendingEditTTL    time.Duration
}

// Service is the session state machine. Mutations are serialized per user
// and run inside one store transaction each.
type Service struct {
	repo    repository.Repository
	clock   Clock
	opts    Options
	policy  analytics.Policy
	locks   *userLocks
	pending *PendingEdits
}

func NewService(repo repository.Repository, clock Clock, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		repo:    repo,
		clock:   clock,
		opts:    opts,
		policy:  analytics.PolicyFromVocabulary(opts.Vocabulary),
		locks:   newUserLocks(),
		pending: NewPendingEdits(opts.PendingEditTTL, clock),
	}
}

// Transition describes one switch. PreviousSessionID is zero when the user
// had no open session.
type Transition struct {
	PreviousSessionID int64
	PreviousState     string
	PreviousTag       string
	PreviousStartTime time.Time
	PreviousSeconds   int64
	NewSessionID      int64
	NewState          string
	NewTag            string
	At                time.Time
}

func (t Transition) HasPrevious() bool {
	return t.PreviousSessionID != 0
}

// Correction describes one fix: the head keeps its state and is closed at
// Boundary, the tail starts there and stays open.
type Correction struct {
	HeadSessionID int64
	HeadState     string
	HeadStartTime time.Time
	HeadSeconds   int64
	Boundary      time.Time
	NewSessionID  int64
	NewState      string
	NewTag        string
}

type FixRequest struct {
	UserID int64
	Spec   TimeSpec
	State  string
	Tag    string
}

func (s *Service) Location() *time.Location { return s.opts.Location }

func (s *Service) Vocabulary() config.Vocabulary { return s.opts.Vocabulary }

// Today returns the current instant in the tracker's location.
func (s *Service) Today() time.Time {
	return s.now().In(s.opts.Location)
}

func (s *Service) now() time.Time {
	return s.clock.Now().Truncate(time.Second)
}

func (s *Service) RegisterUser(ctx context.Context, userID int64, displayName string) (*repository.User, error) {
	u, err := s.repo.UpsertUser(ctx, repository.UpsertUserInput{UserID: userID, DisplayName: displayName})
	if err != nil {
		return nil, storeError("register user", err)
	}
	return u, nil
}

// resolveState normalizes name and reports whether it is outside the
// configured vocabulary.
func (s *Service) resolveState(name string, allowCustom bool) (string, bool, error) {
	name = config.NormalizeStateName(name)
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	if _, ok := s.opts.Vocabulary.Lookup(name); ok {
		return name, false, nil
	}
	if !allowCustom {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return name, true, nil
}

func requireUser(ctx context.Context, tx repository.Tx, userID int64) error {
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		return storeError("get user", err)
	}
	if u == nil {
		return ErrUnknownUser
	}
	return nil
}

// Switch closes the open session, if any, and opens a new one in stateName.
// Only vocabulary states may be switched into.
func (s *Service) Switch(ctx context.Context, userID int64, stateName, tag string) (*Transition, error) {
	name, custom, err := s.resolveState(stateName, false)
	if err != nil {
		return nil, err
	}
	tag = strings.TrimSpace(tag)

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	var tr Transition
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		tr = Transition{NewState: name, NewTag: tag, At: now}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := tx.EnsureState(ctx, name, custom); err != nil {
			return storeError("ensure state", err)
		}
		prev, err := tx.GetOpenSession(ctx, userID)
		if err != nil {
			return storeError("get open session", err)
		}
		start := now
		if prev != nil {
			if start.Before(prev.StartTime) {
				start = prev.StartTime
			}
			secs := prev.Seconds(start)
			if _, err := tx.CloseOpenSession(ctx, repository.CloseSessionInput{
				UserID: userID, EndTime: start, DurationSeconds: secs,
			}); err != nil {
				return storeError("close open session", err)
			}
			tr.PreviousSessionID = prev.ID
			tr.PreviousState = prev.StateName
			tr.PreviousTag = prev.Tag
			tr.PreviousStartTime = prev.StartTime
			tr.PreviousSeconds = secs
		}
		id, err := tx.InsertSession(ctx, repository.InsertSessionInput{
			UserID: userID, StateName: name, StartTime: start, Tag: tag,
		})
		if err != nil {
			return storeError("insert session", err)
		}
		tr.NewSessionID = id
		tr.At = start
		return nil
	})
	if err != nil {
		return nil, classify("switch", err)
	}
	slog.Info("state switched", "user_id", userID, "state", name, "previous_state", tr.PreviousState, "session_id", tr.NewSessionID)
	return &tr, nil
}

// Fix splits the open session at the boundary described by req.Spec.
// Either both halves are written or nothing changes.
func (s *Service) Fix(ctx context.Context, req FixRequest) (*Correction, error) {
	if req.Spec.Kind == 0 || strings.TrimSpace(req.State) == "" {
		return nil, ErrMissingArguments
	}
	name, custom, err := s.resolveState(req.State, s.opts.AllowCustomStates)
	if err != nil {
		return nil, err
	}
	tag := strings.TrimSpace(req.Tag)

	unlock := s.locks.Lock(req.UserID)
	defer unlock()

	now := s.now()
	var c Correction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := requireUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		open, err := tx.GetOpenSession(ctx, req.UserID)
		if err != nil {
			return storeError("get open session", err)
		}
		if open == nil {
			return ErrNoOpenSession
		}
		boundary, err := ResolveBoundary(req.Spec, open.StartTime, now, s.opts.Location)
		if err != nil {
			return err
		}
		if err := tx.EnsureState(ctx, name, custom); err != nil {
			return storeError("ensure state", err)
		}
		headSeconds := int64(boundary.Sub(open.StartTime) / time.Second)
		if _, err := tx.CloseOpenSession(ctx, repository.CloseSessionInput{
			UserID: req.UserID, EndTime: boundary, DurationSeconds: headSeconds,
		}); err != nil {
			return storeError("close head session", err)
		}
		id, err := tx.InsertSession(ctx, repository.InsertSessionInput{
			UserID: req.UserID, StateName: name, StartTime: boundary, Tag: tag,
		})
		if err != nil {
			return storeError("insert tail session", err)
		}
		c = Correction{
			HeadSessionID: open.ID,
			HeadState:     open.StateName,
			HeadStartTime: open.StartTime,
			HeadSeconds:   headSeconds,
			Boundary:      boundary,
			NewSessionID:  id,
			NewState:      name,
			NewTag:        tag,
		}
		return nil
	})
	if err != nil {
		return nil, classify("fix", err)
	}
	slog.Info("state fixed", "user_id", req.UserID, "state", name, "previous_state", c.HeadState, "boundary", c.Boundary, "session_id", c.NewSessionID)
	return &c, nil
}

// Rate stores the mood for a session closed by a switch or fix.
func (s *Service) Rate(ctx context.Context, userID, sessionID int64, mood int) error {
	return s.SetMood(ctx, userID, sessionID, mood)
}

func (s *Service) SetMood(ctx context.Context, userID, sessionID int64, mood int) error {
	if mood < 1 || mood > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidMood, mood)
	}
	return s.updateSession(ctx, userID, sessionID, "set mood", func(session *repository.Session, u *repository.SessionUpdate) error {
		if session.IsOpen() {
			return ErrSessionOpen
		}
		u.Mood = &mood
		return nil
	})
}

func (s *Service) RenameState(ctx context.Context, userID, sessionID int64, stateName string) error {
	name, custom, err := s.resolveState(stateName, s.opts.AllowCustomStates)
	if err != nil {
		return err
	}
	return s.updateSession(ctx, userID, sessionID, "rename state", func(_ *repository.Session, u *repository.SessionUpdate) error {
		u.StateName = &name
		return nil
	}, func(ctx context.Context, tx repository.Tx) error {
		return tx.EnsureState(ctx, name, custom)
	})
}

func (s *Service) SetTag(ctx context.Context, userID, sessionID int64, tag string) error {
	tag = strings.TrimSpace(tag)
	return s.updateSession(ctx, userID, sessionID, "set tag", func(_ *repository.Session, u *repository.SessionUpdate) error {
		u.Tag = &tag
		return nil
	})
}

func (s *Service) ClearTag(ctx context.Context, userID, sessionID int64) error {
	return s.SetTag(ctx, userID, sessionID, "")
}

// updateSession loads the owned session, lets mutate fill the update and
// writes it back. before runs first inside the same transaction.
func (s *Service) updateSession(
	ctx context.Context,
	userID, sessionID int64,
	op string,
	mutate func(session *repository.Session, u *repository.SessionUpdate) error,
	before ...func(ctx context.Context, tx repository.Tx) error,
) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		session, err := tx.GetSessionByID(ctx, sessionID, userID)
		if err != nil {
			return storeError("get session", err)
		}
		if session == nil {
			return ErrAuthorization
		}
		update := repository.SessionUpdate{SessionID: sessionID, OwnerID: userID}
		if err := mutate(session, &update); err != nil {
			return err
		}
		for _, fn := range before {
			if err := fn(ctx, tx); err != nil {
				return storeError(op, err)
			}
		}
		ok, err := tx.UpdateSession(ctx, update)
		if err != nil {
			return storeError(op, err)
		}
		if !ok {
			return ErrAuthorization
		}
		return nil
	})
	if err != nil {
		return classify(op, err)
	}
	slog.Debug("session updated", "user_id", userID, "session_id", sessionID, "op", op)
	return nil
}

// Session returns one owned session.
func (s *Service) Session(ctx context.Context, userID, sessionID int64) (*repository.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID, userID)
	if err != nil {
		return nil, storeError("get session", err)
	}
	if session == nil {
		return nil, ErrAuthorization
	}
	return session, nil
}

func (s *Service) CurrentSession(ctx context.Context, userID int64) (*repository.Session, error) {
	session, err := s.repo.GetOpenSession(ctx, userID)
	if err != nil {
		return nil, storeError("get open session", err)
	}
	if session == nil {
		return nil, ErrNoOpenSession
	}
	return session, nil
}

// History returns the sessions started on day in chronological order.
func (s *Service) History(ctx context.Context, userID int64, day time.Time) ([]repository.Session, error) {
	sessions, err := s.repo.ListSessionsByUserAndDay(ctx, userID, repository.DayOf(day, s.opts.Location))
	if err != nil {
		return nil, storeError("list day sessions", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

func (s *Service) DayStats(ctx context.Context, userID int64, day time.Time) (*analytics.DayReport, error) {
	dayRange := repository.DayOf(day, s.opts.Location)
	sessions, err := s.repo.ListSessionsByUserAndDay(ctx, userID, dayRange)
	if err != nil {
		return nil, storeError("list day sessions", err)
	}
	return analytics.BuildDayReport(sessions, dayRange, s.now(), s.policy)
}

func (s *Service) PredictNext(ctx context.Context, userID int64) (*analytics.Prediction, error) {
	sessions, err := s.repo.ListSessionsByUser(ctx, userID, 0)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	return analytics.Predict(sessions, s.now(), s.opts.Location)
}

func (s *Service) TopTags(ctx context.Context, userID int64) ([]analytics.TagCount, error) {
	tags, err := s.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, storeError("list tags", err)
	}
	return analytics.TopTags(tags, TopTagsLimit), nil
}

// BeginTagEdit opens a pending tag edit for an owned session.
func (s *Service) BeginTagEdit(ctx context.Context, userID, sessionID int64) (PendingEdit, error) {
	if _, err := s.Session(ctx, userID, sessionID); err != nil {
		return PendingEdit{}, err
	}
	return s.pending.Begin(userID, EditTag, sessionID), nil
}

// ApplyPendingTag consumes the user's pending tag edit.
func (s *Service) ApplyPendingTag(ctx context.Context, userID int64, tag string) (int64, error) {
	edit, ok := s.pending.Take(userID, EditTag)
	if !ok {
		return 0, ErrNoPendingEdit
	}
	if err := s.SetTag(ctx, userID, edit.SessionID, tag); err != nil {
		return 0, err
	}
	return edit.SessionID, nil
}

func (s *Service) CancelPending(userID int64) bool {
	return s.pending.Cancel(userID)
}
