package tracker

import (
	"sync"
	"time"
)

type EditKind string

const EditTag EditKind = "tag"

// PendingEdit is a short-lived "waiting for user input" record.
type PendingEdit struct {
	Kind      EditKind
	SessionID int64
	ExpiresAt time.Time
}

// PendingEdits holds at most one pending edit per user. Expired records
// behave as absent and are removed lazily.
type PendingEdits struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock
	edits map[int64]PendingEdit
}

func NewPendingEdits(ttl time.Duration, clock Clock) *PendingEdits {
	return &PendingEdits{
		ttl:   ttl,
		clock: clock,
		edits: make(map[int64]PendingEdit),
	}
}

// Begin replaces any earlier pending edit of the user.
func (p *PendingEdits) Begin(userID int64, kind EditKind, sessionID int64) PendingEdit {
	p.mu.Lock()
	defer p.mu.Unlock()
	edit := PendingEdit{Kind: kind, SessionID: sessionID, ExpiresAt: p.clock.Now().Add(p.ttl)}
	p.edits[userID] = edit
	return edit
}

// Take removes and returns the user's pending edit of the given kind.
func (p *PendingEdits) Take(userID int64, kind EditKind) (PendingEdit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	edit, ok := p.edits[userID]
	if !ok {
		return PendingEdit{}, false
	}
	if p.clock.Now().After(edit.ExpiresAt) {
		delete(p.edits, userID)
		return PendingEdit{}, false
	}
	if edit.Kind != kind {
		return PendingEdit{}, false
	}
	delete(p.edits, userID)
	return edit, true
}

// Cancel reports whether a live pending edit was dropped.
func (p *PendingEdits) Cancel(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	edit, ok := p.edits[userID]
	delete(p.edits, userID)
	return ok && !p.clock.Now().After(edit.ExpiresAt)
}
