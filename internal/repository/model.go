package repository

import "time"

type User struct {
	ID          int64
	DisplayName string
	CreatedAt   time.Time
}

type State struct {
	Name   string
	Custom bool
}

// Session is one contiguous occurrence of a state. EndTime == nil means the
// session is still open; DurationSeconds is only meaningful once closed.
type Session struct {
	ID              int64
	UserID          int64
	StateName       string
	StartTime       time.Time
	EndTime         *time.Time
	Tag             string
	DurationSeconds *int64
	Mood            *int
}

func (s Session) IsOpen() bool {
	return s.EndTime == nil
}

// Seconds returns the elapsed seconds, measuring an open session up to now.
// Closed sessions are always recomputed from their bounds.
func (s Session) Seconds(now time.Time) int64 {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	d := int64(end.Sub(s.StartTime) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// DayRange is the half-open interval [Start, End) of one calendar day.
type DayRange struct {
	Start time.Time
	End   time.Time
}

func DayOf(t time.Time, loc *time.Location) DayRange {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayRange{Start: start, End: start.AddDate(0, 0, 1)}
}

func (d DayRange) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}
