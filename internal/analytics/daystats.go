package analytics

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
)

var ErrNoSessions = errors.New("no sessions for the day")

const ChronologySeparator = " → "

// Policy says which states count as productive and which are passive.
// Passive states stay in the distribution but not in records or ratios.
type Policy struct {
	Productive map[string]bool
	Passive    map[string]bool
}

func PolicyFromVocabulary(v config.Vocabulary) Policy {
	p := Policy{Productive: map[string]bool{}, Passive: map[string]bool{}}
	for _, name := range v.ProductiveNames() {
		p.Productive[name] = true
	}
	for _, name := range v.PassiveNames() {
		p.Passive[name] = true
	}
	return p
}

type StateShare struct {
	State   string
	Seconds int64
	Percent float64
}

// Record is a named duration. Empty records render as NoData.
type Record struct {
	State   string
	Seconds int64
	Empty   bool
}

func (r Record) Name() string {
	if r.Empty {
		return NoData
	}
	return r.State
}

func (r Record) Duration() string {
	if r.Empty || r.Seconds <= 0 {
		return NoData
	}
	return FormatDuration(r.Seconds)
}

type DayReport struct {
	Day            repository.DayRange
	CurrentState   string
	CurrentTag     string
	CurrentOpen    bool
	CurrentSeconds int64
	SessionCount   int
	ClosedCount    int
	TotalSeconds   int64
	Chronology     []string
	// Shares is sorted by duration descending.
	Shares          []StateShare
	LongestTotal    Record
	ShortestTotal   Record
	LongestSession  Record
	ShortestSession Record
	Productivity    int
	AverageSeconds  int64
	HasAverage      bool
}

func (r DayReport) ChronologyString() string {
	return strings.Join(r.Chronology, ChronologySeparator)
}

func (r DayReport) AverageSession() string {
	if !r.HasAverage {
		return NoData
	}
	return FormatDuration(r.AverageSeconds)
}

// BuildDayReport aggregates the sessions that started inside day. now is
// used for the running time of an open session.
func BuildDayReport(sessions []repository.Session, day repository.DayRange, now time.Time, policy Policy) (*DayReport, error) {
	var daySessions []repository.Session
	for _, s := range sessions {
		if day.Contains(s.StartTime) {
			daySessions = append(daySessions, s)
		}
	}
	if len(daySessions) == 0 {
		return nil, ErrNoSessions
	}
	sort.SliceStable(daySessions, func(i, j int) bool {
		if daySessions[i].StartTime.Equal(daySessions[j].StartTime) {
			return daySessions[i].ID < daySessions[j].ID
		}
		return daySessions[i].StartTime.Before(daySessions[j].StartTime)
	})

	report := &DayReport{Day: day, SessionCount: len(daySessions)}

	current := daySessions[len(daySessions)-1]
	report.CurrentState = current.StateName
	report.CurrentTag = current.Tag
	report.CurrentOpen = current.IsOpen()
	report.CurrentSeconds = currentElapsed(current, day, now)

	totals := make(map[string]int64)
	activeTotals := make(map[string]int64)
	var (
		activeSessions []repository.Session
		activeSum      int64
		productiveSum  int64
	)
	for _, s := range daySessions {
		report.Chronology = append(report.Chronology, s.StateName)
		if s.IsOpen() {
			continue
		}
		report.ClosedCount++
		secs := s.Seconds(now)
		totals[s.StateName] += secs
		report.TotalSeconds += secs
		if policy.Passive[s.StateName] {
			continue
		}
		activeTotals[s.StateName] += secs
		activeSessions = append(activeSessions, s)
		activeSum += secs
		if policy.Productive[s.StateName] {
			productiveSum += secs
		}
	}

	for state, secs := range totals {
		share := StateShare{State: state, Seconds: secs}
		if report.TotalSeconds > 0 {
			share.Percent = round1(float64(secs) / float64(report.TotalSeconds) * 100)
		}
		report.Shares = append(report.Shares, share)
	}
	sort.Slice(report.Shares, func(i, j int) bool {
		if report.Shares[i].Seconds != report.Shares[j].Seconds {
			return report.Shares[i].Seconds > report.Shares[j].Seconds
		}
		return report.Shares[i].State < report.Shares[j].State
	})

	report.LongestTotal, report.ShortestTotal = totalRecords(activeTotals)
	report.LongestSession, report.ShortestSession = sessionRecords(activeSessions, now)

	if activeSum > 0 {
		report.Productivity = int(productiveSum * 100 / activeSum)
	}
	if len(activeSessions) > 0 {
		report.AverageSeconds = activeSum / int64(len(activeSessions))
		report.HasAverage = true
	}
	return report, nil
}

func currentElapsed(s repository.Session, day repository.DayRange, now time.Time) int64 {
	switch {
	case !s.IsOpen():
		return s.Seconds(now)
	case day.Contains(now):
		return s.Seconds(now)
	case now.Before(day.Start):
		return 0
	default:
		return s.Seconds(day.End)
	}
}

func totalRecords(totals map[string]int64) (longest, shortest Record) {
	if len(totals) == 0 {
		return Record{Empty: true}, Record{Empty: true}
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	longest = Record{State: names[0], Seconds: totals[names[0]]}
	shortest = longest
	for _, name := range names[1:] {
		if totals[name] > longest.Seconds {
			longest = Record{State: name, Seconds: totals[name]}
		}
		if totals[name] < shortest.Seconds {
			shortest = Record{State: name, Seconds: totals[name]}
		}
	}
	return longest, shortest
}

func sessionRecords(sessions []repository.Session, now time.Time) (longest, shortest Record) {
	if len(sessions) == 0 {
		return Record{Empty: true}, Record{Empty: true}
	}
	first := sessions[0]
	longest = Record{State: first.StateName, Seconds: first.Seconds(now)}
	shortest = longest
	for _, s := range sessions[1:] {
		secs := s.Seconds(now)
		if secs > longest.Seconds {
			longest = Record{State: s.StateName, Seconds: secs}
		}
		if secs < shortest.Seconds {
			shortest = Record{State: s.StateName, Seconds: secs}
		}
	}
	return longest, shortest
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
