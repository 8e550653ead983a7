package tracker

import (
	"errors"
	"fmt"

	"github.com/utyara3/TimeTracker/internal/analytics"
)

var (
	ErrUnknownUser         = errors.New("user is not registered")
	ErrUnknownState        = errors.New("unknown state")
	ErrInvalidMood         = errors.New("mood must be between 1 and 5")
	ErrMissingArguments    = errors.New("time and state are required")
	ErrInvalidTimeRange    = errors.New("time is outside the open session")
	ErrNoOpenSession       = errors.New("no open session")
	ErrSessionOpen         = errors.New("session is still open")
	ErrAuthorization       = errors.New("session does not belong to user")
	ErrNoPendingEdit       = errors.New("no pending edit")
	ErrStore               = errors.New("session store failure")
	ErrNoSessions          = analytics.ErrNoSessions
	ErrInsufficientHistory = analytics.ErrInsufficientHistory
)

var knownErrors = []error{
	ErrUnknownUser,
	ErrUnknownState,
	ErrInvalidMood,
	ErrMissingArguments,
	ErrInvalidTimeRange,
	ErrNoOpenSession,
	ErrSessionOpen,
	ErrAuthorization,
	ErrNoPendingEdit,
	ErrStore,
	ErrNoSessions,
	ErrInsufficientHistory,
}

// storeError tags err as a persistence failure while keeping the driver error
// reachable through errors.As.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// classify leaves domain failures untouched and marks anything else as a
// store failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return storeError(op, err)
}
