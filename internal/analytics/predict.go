package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/utyara3/TimeTracker/internal/repository"
)

var ErrInsufficientHistory = errors.New("not enough history for prediction")

const (
	// MinActiveDays is the smallest number of distinct active days that
	// allows a prediction.
	MinActiveDays = 8
	BucketHours   = 4
	noiseFloor    = 0.01
)

// FallbackLevel names the transition table that produced a prediction.
type FallbackLevel int

const (
	LevelBucket FallbackLevel = iota + 1
	LevelWeekday
	LevelGlobal
)

func (l FallbackLevel) String() string {
	switch l {
	case LevelBucket:
		return "weekday+bucket"
	case LevelWeekday:
		return "weekday"
	case LevelGlobal:
		return "global"
	default:
		return "unknown"
	}
}

type Candidate struct {
	State string
	// Percent is the probability in percent, rounded to two decimals.
	Percent float64
}

type Prediction struct {
	CurrentState string
	Weekday      time.Weekday
	Bucket       int
	Level        FallbackLevel
	Candidates   []Candidate
}

func (p Prediction) Top() Candidate {
	return p.Candidates[0]
}

type bucketKey struct {
	weekday time.Weekday
	bucket  int
	state   string
}

type weekdayKey struct {
	weekday time.Weekday
	state   string
}

type counts map[string]int

type transitionTables struct {
	byBucket  map[bucketKey]counts
	byWeekday map[weekdayKey]counts
	global    map[string]counts
}

// Predict estimates the state following the user's current one from
// first-order transition frequencies, conditioned on the weekday and
// 4-hour bucket in which the current session started.
func Predict(sessions []repository.Session, now time.Time, loc *time.Location) (*Prediction, error) {
	if loc == nil {
		loc = time.UTC
	}
	if activeDays(sessions, loc) < MinActiveDays {
		return nil, ErrInsufficientHistory
	}

	chain := collapseRepeats(sortedCopy(sessions, now))
	current := chain[len(chain)-1]
	tables := buildTables(chain, loc)

	start := current.StartTime.In(loc)
	p := &Prediction{
		CurrentState: current.StateName,
		Weekday:      start.Weekday(),
		Bucket:       start.Hour() / BucketHours,
	}

	var found counts
	if c, ok := tables.byBucket[bucketKey{p.Weekday, p.Bucket, p.CurrentState}]; ok {
		found, p.Level = c, LevelBucket
	} else if c, ok := tables.byWeekday[weekdayKey{p.Weekday, p.CurrentState}]; ok {
		found, p.Level = c, LevelWeekday
	} else if c, ok := tables.global[p.CurrentState]; ok {
		found, p.Level = c, LevelGlobal
	} else {
		return nil, ErrInsufficientHistory
	}
	p.Candidates = rankCandidates(found)
	return p, nil
}

func activeDays(sessions []repository.Session, loc *time.Location) int {
	days := make(map[string]struct{})
	for _, s := range sessions {
		days[s.StartTime.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	return len(days)
}

// sortedCopy returns sessions ordered by start ascending with the open
// session closed at now. The input is not modified.
func sortedCopy(sessions []repository.Session, now time.Time) []repository.Session {
	out := make([]repository.Session, len(sessions))
	copy(out, sessions)
	for i := range out {
		if out[i].EndTime == nil {
			end := now
			out[i].EndTime = &end
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func collapseRepeats(sessions []repository.Session) []repository.Session {
	var out []repository.Session
	for _, s := range sessions {
		if len(out) > 0 && out[len(out)-1].StateName == s.StateName {
			continue
		}
		out = append(out, s)
	}
	return out
}

func buildTables(chain []repository.Session, loc *time.Location) transitionTables {
	t := transitionTables{
		byBucket:  make(map[bucketKey]counts),
		byWeekday: make(map[weekdayKey]counts),
		global:    make(map[string]counts),
	}
	add := func(c counts, next string) counts {
		if c == nil {
			c = counts{}
		}
		c[next]++
		return c
	}
	for i := 0; i+1 < len(chain); i++ {
		from := chain[i]
		next := chain[i+1].StateName
		start := from.StartTime.In(loc)
		bk := bucketKey{start.Weekday(), start.Hour() / BucketHours, from.StateName}
		wk := weekdayKey{start.Weekday(), from.StateName}
		t.byBucket[bk] = add(t.byBucket[bk], next)
		t.byWeekday[wk] = add(t.byWeekday[wk], next)
		t.global[from.StateName] = add(t.global[from.StateName], next)
	}
	return t
}

// rankCandidates keeps the most likely state plus every other state above
// the noise floor.
func rankCandidates(c counts) []Candidate {
	total := 0
	for _, n := range c {
		total += n
	}
	type scored struct {
		state string
		p     float64
	}
	list := make([]scored, 0, len(c))
	for state, n := range c {
		list = append(list, scored{state, float64(n) / float64(total)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].p != list[j].p {
			return list[i].p > list[j].p
		}
		return list[i].state < list[j].state
	})

	candidates := []Candidate{{State: list[0].state, Percent: round2(list[0].p * 100)}}
	for _, s := range list[1:] {
		if s.p > noiseFloor {
			candidates = append(candidates, Candidate{State: s.state, Percent: round2(s.p * 100)})
		}
	}
	return candidates
}
