package repository

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/utyara3/TimeTracker/internal/repository"
)

var errOpenSessionExists = errors.New("user already has an open session")

// MemoryRepository keeps everything in process memory. WithTx works on a
// copy and swaps it in on success, so a failed transaction leaves no trace.
type MemoryRepository struct {
	mu   sync.Mutex
	data *memoryData
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: newMemoryData()}
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft := r.data.clone()
	if err := fn(ctx, draft); err != nil {
		return err
	}
	r.data = draft
	return nil
}

func (r *MemoryRepository) Close() error { return nil }

func withData[T any](r *MemoryRepository, fn func(d *memoryData) (T, error)) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.data)
}

func (r *MemoryRepository) UpsertUser(ctx context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	return withData(r, func(d *memoryData) (*repository.User, error) { return d.UpsertUser(ctx, input) })
}

func (r *MemoryRepository) GetUser(ctx context.Context, userID int64) (*repository.User, error) {
	return withData(r, func(d *memoryData) (*repository.User, error) { return d.GetUser(ctx, userID) })
}

func (r *MemoryRepository) EnsureState(ctx context.Context, name string, custom bool) error {
	_, err := withData(r, func(d *memoryData) (struct{}, error) { return struct{}{}, d.EnsureState(ctx, name, custom) })
	return err
}

func (r *MemoryRepository) ListStates(ctx context.Context) ([]repository.State, error) {
	return withData(r, func(d *memoryData) ([]repository.State, error) { return d.ListStates(ctx) })
}

func (r *MemoryRepository) InsertSession(ctx context.Context, input repository.InsertSessionInput) (int64, error) {
	return withData(r, func(d *memoryData) (int64, error) { return d.InsertSession(ctx, input) })
}

func (r *MemoryRepository) CloseOpenSession(ctx context.Context, input repository.CloseSessionInput) (bool, error) {
	return withData(r, func(d *memoryData) (bool, error) { return d.CloseOpenSession(ctx, input) })
}

func (r *MemoryRepository) GetOpenSession(ctx context.Context, userID int64) (*repository.Session, error) {
	return withData(r, func(d *memoryData) (*repository.Session, error) { return d.GetOpenSession(ctx, userID) })
}

func (r *MemoryRepository) GetSessionByID(ctx context.Context, sessionID, ownerID int64) (*repository.Session, error) {
	return withData(r, func(d *memoryData) (*repository.Session, error) { return d.GetSessionByID(ctx, sessionID, ownerID) })
}

func (r *MemoryRepository) ListSessionsByUser(ctx context.Context, userID int64, limit int) ([]repository.Session, error) {
	return withData(r, func(d *memoryData) ([]repository.Session, error) { return d.ListSessionsByUser(ctx, userID, limit) })
}

func (r *MemoryRepository) ListSessionsByUserAndDay(ctx context.Context, userID int64, day repository.DayRange) ([]repository.Session, error) {
	return withData(r, func(d *memoryData) ([]repository.Session, error) { return d.ListSessionsByUserAndDay(ctx, userID, day) })
}

func (r *MemoryRepository) UpdateSession(ctx context.Context, input repository.SessionUpdate) (bool, error) {
	return withData(r, func(d *memoryData) (bool, error) { return d.UpdateSession(ctx, input) })
}

func (r *MemoryRepository) ListTags(ctx context.Context, userID int64) ([]string, error) {
	return withData(r, func(d *memoryData) ([]string, error) { return d.ListTags(ctx, userID) })
}

type memoryData struct {
	users    map[int64]repository.User
	states   map[string]repository.State
	sessions []repository.Session
	nextID   int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:  make(map[int64]repository.User),
		states: make(map[string]repository.State),
		nextID: 1,
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		users:    make(map[int64]repository.User, len(d.users)),
		states:   make(map[string]repository.State, len(d.states)),
		sessions: make([]repository.Session, 0, len(d.sessions)),
		nextID:   d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.states {
		c.states[k] = v
	}
	for _, s := range d.sessions {
		c.sessions = append(c.sessions, copySession(s))
	}
	return c
}

func copySession(s repository.Session) repository.Session {
	if s.EndTime != nil {
		t := *s.EndTime
		s.EndTime = &t
	}
	if s.DurationSeconds != nil {
		v := *s.DurationSeconds
		s.DurationSeconds = &v
	}
	if s.Mood != nil {
		v := *s.Mood
		s.Mood = &v
	}
	return s
}

func (d *memoryData) UpsertUser(_ context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	u, ok := d.users[input.UserID]
	if !ok {
		u = repository.User{ID: input.UserID, CreatedAt: time.Now()}
	}
	u.DisplayName = input.DisplayName
	d.users[input.UserID] = u
	return &u, nil
}

func (d *memoryData) GetUser(_ context.Context, userID int64) (*repository.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (d *memoryData) EnsureState(_ context.Context, name string, custom bool) error {
	if _, ok := d.states[name]; !ok {
		d.states[name] = repository.State{Name: name, Custom: custom}
	}
	return nil
}

func (d *memoryData) ListStates(_ context.Context) ([]repository.State, error) {
	list := make([]repository.State, 0, len(d.states))
	for _, s := range d.states {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (d *memoryData) InsertSession(_ context.Context, input repository.InsertSessionInput) (int64, error) {
	for _, s := range d.sessions {
		if s.UserID == input.UserID && s.IsOpen() {
			return 0, errOpenSessionExists
		}
	}
	id := d.nextID
	d.nextID++
	d.sessions = append(d.sessions, repository.Session{
		ID:        id,
		UserID:    input.UserID,
		StateName: input.StateName,
		StartTime: input.StartTime,
		Tag:       input.Tag,
	})
	return id, nil
}

func (d *memoryData) CloseOpenSession(_ context.Context, input repository.CloseSessionInput) (bool, error) {
	for i := range d.sessions {
		s := &d.sessions[i]
		if s.UserID != input.UserID || !s.IsOpen() {
			continue
		}
		end := input.EndTime
		duration := input.DurationSeconds
		s.EndTime = &end
		s.DurationSeconds = &duration
		return true, nil
	}
	return false, nil
}

func (d *memoryData) GetOpenSession(_ context.Context, userID int64) (*repository.Session, error) {
	for _, s := range d.sessions {
		if s.UserID == userID && s.IsOpen() {
			c := copySession(s)
			return &c, nil
		}
	}
	return nil, nil
}

func (d *memoryData) GetSessionByID(_ context.Context, sessionID, ownerID int64) (*repository.Session, error) {
	for _, s := range d.sessions {
		if s.ID == sessionID && s.UserID == ownerID {
			c := copySession(s)
			return &c, nil
		}
	}
	return nil, nil
}

func (d *memoryData) ListSessionsByUser(_ context.Context, userID int64, limit int) ([]repository.Session, error) {
	list := d.filter(func(s repository.Session) bool { return s.UserID == userID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (d *memoryData) ListSessionsByUserAndDay(_ context.Context, userID int64, day repository.DayRange) ([]repository.Session, error) {
	return d.filter(func(s repository.Session) bool {
		return s.UserID == userID && day.Contains(s.StartTime)
	}), nil
}

func (d *memoryData) UpdateSession(_ context.Context, input repository.SessionUpdate) (bool, error) {
	for i := range d.sessions {
		s := &d.sessions[i]
		if s.ID != input.SessionID || s.UserID != input.OwnerID {
			continue
		}
		if input.StateName != nil {
			s.StateName = *input.StateName
		}
		if input.Tag != nil {
			s.Tag = *input.Tag
		}
		if input.Mood != nil {
			mood := *input.Mood
			s.Mood = &mood
		}
		return true, nil
	}
	return false, nil
}

func (d *memoryData) ListTags(_ context.Context, userID int64) ([]string, error) {
	var tags []string
	for _, s := range d.filter(func(s repository.Session) bool { return s.UserID == userID && s.Tag != "" }) {
		tags = append(tags, s.Tag)
	}
	return tags, nil
}

// filter returns copies ordered by start time descending.
func (d *memoryData) filter(keep func(repository.Session) bool) []repository.Session {
	var list []repository.Session
	for _, s := range d.sessions {
		if keep(s) {
			list = append(list, copySession(s))
		}
	}
	slices.SortStableFunc(list, func(a, b repository.Session) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return list
}
