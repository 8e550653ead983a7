package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utyara3/TimeTracker/internal/repository"
)

// Monday.
var predictBase = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func dailyRoutine(days int) []repository.Session {
	return routineEvery(days, 1)
}

// routineEvery builds work 09:00 -> chill 13:00 -> sleep 23:00 on every
// stride-th day, leaving the last session open.
func routineEvery(days, stride int) []repository.Session {
	var sessions []repository.Session
	var id int64
	for d := 0; d < days; d++ {
		day := predictBase.AddDate(0, 0, d*stride)
		for _, step := range []struct {
			state string
			hour  int
		}{{"work", 9}, {"chill", 13}, {"sleep", 23}} {
			id++
			sessions = append(sessions, openSession(id, step.state, day.Add(time.Duration(step.hour)*time.Hour)))
		}
	}
	for i := 0; i+1 < len(sessions); i++ {
		end := sessions[i+1].StartTime
		sessions[i].EndTime = &end
	}
	return sessions
}

func TestPredictRequiresEightActiveDays(t *testing.T) {
	_, err := Predict(dailyRoutine(3), predictBase.AddDate(0, 0, 3), time.UTC)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = Predict(dailyRoutine(7), predictBase.AddDate(0, 0, 7), time.UTC)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = Predict(nil, predictBase, time.UTC)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPredictUsesBucketTable(t *testing.T) {
	sessions := dailyRoutine(10)
	now := predictBase.AddDate(0, 0, 10)

	p, err := Predict(sessions, now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, LevelBucket, p.Level)
	assert.Equal(t, "sleep", p.CurrentState)
	assert.Equal(t, time.Wednesday, p.Weekday)
	assert.Equal(t, 5, p.Bucket)
	assert.Equal(t, Candidate{State: "work", Percent: 100}, p.Top())
	assert.Len(t, p.Candidates, 1)
	assert.Nil(t, sessions[len(sessions)-1].EndTime, "input must not be modified")
}

func TestPredictFallsBackToWeekday(t *testing.T) {
	sessions := dailyRoutine(10)
	last := &sessions[len(sessions)-1]
	start := predictBase.AddDate(0, 0, 10).Add(7 * time.Hour)
	last.EndTime = &start
	sessions = append(sessions, openSession(100, "chill", start))

	p, err := Predict(sessions, start.Add(time.Hour), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, LevelWeekday, p.Level)
	assert.Equal(t, time.Thursday, p.Weekday)
	assert.Equal(t, "sleep", p.Top().State)
}

func TestPredictFallsBackToGlobal(t *testing.T) {
	sessions := routineEvery(8, 7)
	last := &sessions[len(sessions)-1]
	start := predictBase.AddDate(0, 0, 7*7+1).Add(7 * time.Hour)
	last.EndTime = &start
	sessions = append(sessions, openSession(100, "chill", start))

	p, err := Predict(sessions, start.Add(time.Hour), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, LevelGlobal, p.Level)
	assert.Equal(t, time.Tuesday, p.Weekday)
	assert.Equal(t, "sleep", p.Top().State)
}

func TestPredictUnknownCurrentStateHasNoData(t *testing.T) {
	sessions := dailyRoutine(10)
	last := &sessions[len(sessions)-1]
	start := predictBase.AddDate(0, 0, 10).Add(7 * time.Hour)
	last.EndTime = &start
	sessions = append(sessions, openSession(100, "gym", start))

	_, err := Predict(sessions, start, time.UTC)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestCollapseRepeats(t *testing.T) {
	start := predictBase
	chain := collapseRepeats([]repository.Session{
		openSession(1, "work", start),
		openSession(2, "work", start.Add(time.Hour)),
		openSession(3, "chill", start.Add(2*time.Hour)),
		openSession(4, "work", start.Add(3*time.Hour)),
	})
	require.Len(t, chain, 3)
	assert.Equal(t, int64(1), chain[0].ID)
	assert.Equal(t, int64(4), chain[2].ID)
}

func TestRankCandidatesDropsNoise(t *testing.T) {
	assert.Equal(t, []Candidate{{State: "a", Percent: 99.5}}, rankCandidates(counts{"a": 199, "b": 1}))
	assert.Equal(t,
		[]Candidate{{State: "a", Percent: 66.67}, {State: "b", Percent: 33.33}},
		rankCandidates(counts{"a": 2, "b": 1}))
}
