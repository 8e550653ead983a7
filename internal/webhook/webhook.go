package webhook

import (
	"context"
	"time"
)

const TransitionSchemaVersion = 1

const (
	KindSwitch = "switch"
	KindFix    = "fix"
)

// TransitionPayload is posted after every successful switch or fix.
type TransitionPayload struct {
	SchemaVersion     int       `json:"schema_version"`
	Kind              string    `json:"kind"`
	UserID            int64     `json:"user_id"`
	PreviousState     string    `json:"previous_state,omitempty"`
	PreviousTag       string    `json:"previous_tag,omitempty"`
	PreviousSessionID int64     `json:"previous_session_id,omitempty"`
	ClosedSeconds     int64     `json:"closed_seconds"`
	NewState          string    `json:"new_state"`
	NewTag            string    `json:"new_tag,omitempty"`
	NewSessionID      int64     `json:"new_session_id"`
	At                time.Time `json:"at"`
}

type Sender interface {
	SendTransition(ctx context.Context, payload TransitionPayload) error
}
