package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixArgs(t *testing.T) {
	cases := []struct {
		in    string
		spec  TimeSpec
		state string
		tag   string
	}{
		{"1h30m study math", TimeSpec{Kind: TimeSpecDuration, Duration: 90 * time.Minute}, "study", "math"},
		{"1h 10m work", TimeSpec{Kind: TimeSpecDuration, Duration: 70 * time.Minute}, "work", ""},
		{"1ч 10м чтение книга про go", TimeSpec{Kind: TimeSpecDuration, Duration: 70 * time.Minute}, "чтение", "книга про go"},
		{"45m chill", TimeSpec{Kind: TimeSpecDuration, Duration: 45 * time.Minute}, "chill", ""},
		{"14:05 sleep", TimeSpec{Kind: TimeSpecClock, Hour: 14, Minute: 5}, "sleep", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFixArgs(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.spec, got.Spec)
			assert.Equal(t, tc.state, got.State)
			assert.Equal(t, tc.tag, got.Tag)
		})
	}
}

func TestParseFixArgsErrors(t *testing.T) {
	for _, in := range []string{"", "study", "1h", "study 1h"} {
		_, err := ParseFixArgs(in)
		assert.ErrorIs(t, err, ErrMissingArguments, "input %q", in)
	}
	_, err := ParseFixArgs("25:00 work")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	_, err = ParseFixArgs("10:00 1h work")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestParseTimeSpecRejectsOverflow(t *testing.T) {
	for _, in := range []string{"5124096h", "153722867281m", "99999999999999999999h", "2562047h 2562047h"} {
		_, err := ParseTimeSpec(in)
		assert.ErrorIs(t, err, ErrInvalidTimeRange, "input %q", in)
	}

	spec, err := ParseTimeSpec("2562047h")
	require.NoError(t, err)
	assert.Equal(t, 2562047*time.Hour, spec.Duration)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, msk)
	_, err = ResolveBoundary(spec, now.Add(-3*time.Hour), now, msk)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestResolveBoundary(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, msk)

	t.Run("duration", func(t *testing.T) {
		start := now.Add(-3 * time.Hour)
		got, err := ResolveBoundary(TimeSpec{Kind: TimeSpecDuration, Duration: time.Hour}, start, now, msk)
		require.NoError(t, err)
		assert.True(t, got.Equal(now.Add(-time.Hour)))
	})

	t.Run("clock today", func(t *testing.T) {
		start := now.Add(-3 * time.Hour)
		got, err := ResolveBoundary(TimeSpec{Kind: TimeSpecClock, Hour: 8, Minute: 30}, start, now, msk)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 3, 2, 8, 30, 0, 0, msk)))
	})

	t.Run("clock later than now means yesterday", func(t *testing.T) {
		start := now.Add(-20 * time.Hour)
		got, err := ResolveBoundary(TimeSpec{Kind: TimeSpecClock, Hour: 23, Minute: 0}, start, now, msk)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 3, 1, 23, 0, 0, 0, msk)))
	})

	t.Run("clock before start", func(t *testing.T) {
		start := now.Add(-time.Hour)
		_, err := ResolveBoundary(TimeSpec{Kind: TimeSpecClock, Hour: 8, Minute: 0}, start, now, msk)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("minimum head length", func(t *testing.T) {
		start := now.Add(-10 * time.Minute)
		_, err := ResolveBoundary(TimeSpec{Kind: TimeSpecDuration, Duration: 10*time.Minute - 58*time.Second}, start, now, msk)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
		got, err := ResolveBoundary(TimeSpec{Kind: TimeSpecDuration, Duration: 9 * time.Minute}, start, now, msk)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, got.Sub(start))
	})
}

func TestPendingEditsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	p := NewPendingEdits(time.Minute, clock)

	p.Begin(1, EditTag, 10)
	_, ok := p.Take(1, EditKind("other"))
	assert.False(t, ok)
	edit, ok := p.Take(1, EditTag)
	require.True(t, ok)
	assert.Equal(t, int64(10), edit.SessionID)

	p.Begin(1, EditTag, 11)
	clock.Advance(2 * time.Minute)
	_, ok = p.Take(1, EditTag)
	assert.False(t, ok)
}
