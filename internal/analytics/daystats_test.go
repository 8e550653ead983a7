package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
)

var testDay = repository.DayOf(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), time.UTC)

func closedSession(id int64, state string, start time.Time, d time.Duration) repository.Session {
	end := start.Add(d)
	secs := int64(d / time.Second)
	return repository.Session{ID: id, UserID: 1, StateName: state, StartTime: start, EndTime: &end, DurationSeconds: &secs}
}

func openSession(id int64, state string, start time.Time) repository.Session {
	return repository.Session{ID: id, UserID: 1, StateName: state, StartTime: start}
}

func TestBuildDayReportProductivityExcludesPassive(t *testing.T) {
	sleepStart := testDay.Start
	workStart := sleepStart.Add(8 * time.Hour)
	chillStart := workStart.Add(time.Hour)
	sessions := []repository.Session{
		openSession(4, "study", chillStart.Add(30*time.Minute)),
		closedSession(3, "chill", chillStart, 30*time.Minute),
		closedSession(2, "work", workStart, time.Hour),
		closedSession(1, "sleep", sleepStart, 8*time.Hour),
	}
	now := chillStart.Add(45 * time.Minute)

	report, err := BuildDayReport(sessions, testDay, now, PolicyFromVocabulary(config.DefaultVocabulary()))
	require.NoError(t, err)

	assert.Equal(t, 66, report.Productivity)
	assert.Equal(t, 4, report.SessionCount)
	assert.Equal(t, 3, report.ClosedCount)
	assert.Equal(t, int64(34200), report.TotalSeconds)
	assert.Equal(t, "study", report.CurrentState)
	assert.True(t, report.CurrentOpen)
	assert.Equal(t, int64(900), report.CurrentSeconds)
	assert.Equal(t, "sleep → work → chill → study", report.ChronologyString())

	require.Len(t, report.Shares, 3)
	assert.Equal(t, StateShare{State: "sleep", Seconds: 28800, Percent: 84.2}, report.Shares[0])
	assert.Equal(t, StateShare{State: "work", Seconds: 3600, Percent: 10.5}, report.Shares[1])
	assert.Equal(t, StateShare{State: "chill", Seconds: 1800, Percent: 5.3}, report.Shares[2])

	assert.Equal(t, "work", report.LongestTotal.Name())
	assert.Equal(t, "1ч", report.LongestTotal.Duration())
	assert.Equal(t, "chill", report.ShortestTotal.Name())
	assert.Equal(t, "work", report.LongestSession.Name())
	assert.Equal(t, "30м", report.ShortestSession.Duration())
	assert.Equal(t, "45м", report.AverageSession())
}

func TestBuildDayReportPercentagesSumToHundred(t *testing.T) {
	start := testDay.Start.Add(6 * time.Hour)
	durations := []time.Duration{17 * time.Minute, 43 * time.Minute, 9 * time.Minute, 71 * time.Minute, 13 * time.Minute}
	states := []string{"work", "chill", "study", "wait", "other"}
	var sessions []repository.Session
	for i, d := range durations {
		sessions = append(sessions, closedSession(int64(i+1), states[i], start, d))
		start = start.Add(d)
	}

	report, err := BuildDayReport(sessions, testDay, start, PolicyFromVocabulary(config.DefaultVocabulary()))
	require.NoError(t, err)

	var sum float64
	for _, s := range report.Shares {
		sum += s.Percent
	}
	assert.InDelta(t, 100.0, sum, 0.1*float64(len(report.Shares)))
}

func TestBuildDayReportOnlyPassiveUsesSentinel(t *testing.T) {
	sessions := []repository.Session{closedSession(1, "sleep", testDay.Start, 7*time.Hour)}

	report, err := BuildDayReport(sessions, testDay, testDay.End, PolicyFromVocabulary(config.DefaultVocabulary()))
	require.NoError(t, err)

	for _, r := range []Record{report.LongestTotal, report.ShortestTotal, report.LongestSession, report.ShortestSession} {
		assert.Equal(t, NoData, r.Name())
		assert.Equal(t, NoData, r.Duration())
	}
	assert.Equal(t, NoData, report.AverageSession())
	assert.Equal(t, 0, report.Productivity)
	require.Len(t, report.Shares, 1)
	assert.Equal(t, 100.0, report.Shares[0].Percent)
}

func TestBuildDayReportPastDayOpenSessionRunsToMidnight(t *testing.T) {
	start := testDay.End.Add(-2 * time.Hour)
	sessions := []repository.Session{openSession(1, "work", start)}
	now := testDay.End.Add(5 * time.Hour)

	report, err := BuildDayReport(sessions, testDay, now, PolicyFromVocabulary(config.DefaultVocabulary()))
	require.NoError(t, err)
	assert.Equal(t, int64(7200), report.CurrentSeconds)
	assert.Equal(t, 0, report.ClosedCount)
	assert.Empty(t, report.Shares)
	assert.False(t, report.HasAverage)
}

func TestBuildDayReportIgnoresOtherDays(t *testing.T) {
	sessions := []repository.Session{closedSession(1, "work", testDay.Start.Add(-time.Hour), 30*time.Minute)}
	_, err := BuildDayReport(sessions, testDay, testDay.End, PolicyFromVocabulary(config.DefaultVocabulary()))
	assert.ErrorIs(t, err, ErrNoSessions)
}

func TestBuildDayReportRecomputesStaleDurations(t *testing.T) {
	s := closedSession(1, "work", testDay.Start.Add(time.Hour), time.Hour)
	stale := int64(5)
	s.DurationSeconds = &stale

	report, err := BuildDayReport([]repository.Session{s}, testDay, testDay.End, PolicyFromVocabulary(config.DefaultVocabulary()))
	require.NoError(t, err)
	assert.Equal(t, int64(3600), report.TotalSeconds)
	assert.Equal(t, 100, report.Productivity)
}
