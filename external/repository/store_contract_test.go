package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utyara3/TimeTracker/internal/repository"
)

var errAbort = errors.New("abort")

// runStoreContract exercises behaviour every backend must share.
func runStoreContract(t *testing.T, open func(t *testing.T) repository.Repository) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, repo repository.Repository) {
		t.Helper()
		ctx := context.Background()
		_, err := repo.UpsertUser(ctx, repository.UpsertUserInput{UserID: 1, DisplayName: "alice"})
		require.NoError(t, err)
		require.NoError(t, repo.EnsureState(ctx, "work", false))
		require.NoError(t, repo.EnsureState(ctx, "study", false))
	}

	t.Run("upsert user updates display name", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)

		u, err := repo.UpsertUser(ctx, repository.UpsertUserInput{UserID: 1, DisplayName: "alice2"})
		require.NoError(t, err)
		assert.Equal(t, "alice2", u.DisplayName)

		missing, err := repo.GetUser(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ensure state keeps first provenance", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)
		require.NoError(t, repo.EnsureState(ctx, "gym", true))
		require.NoError(t, repo.EnsureState(ctx, "gym", false))

		states, err := repo.ListStates(ctx)
		require.NoError(t, err)
		require.Len(t, states, 3)
		assert.Equal(t, repository.State{Name: "gym", Custom: true}, states[0])
	})

	t.Run("close then insert keeps one open session", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)

		firstID, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "work", StartTime: base, Tag: "a"})
		require.NoError(t, err)

		_, err = repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "study", StartTime: base.Add(time.Hour)})
		require.Error(t, err, "second open session must be rejected")

		closed, err := repo.CloseOpenSession(ctx, repository.CloseSessionInput{UserID: 1, EndTime: base.Add(time.Hour), DurationSeconds: 3600})
		require.NoError(t, err)
		assert.True(t, closed)

		secondID, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "study", StartTime: base.Add(time.Hour)})
		require.NoError(t, err)
		assert.Greater(t, secondID, firstID)

		openSession, err := repo.GetOpenSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, openSession)
		assert.Equal(t, secondID, openSession.ID)

		head, err := repo.GetSessionByID(ctx, firstID, 1)
		require.NoError(t, err)
		require.NotNil(t, head)
		require.NotNil(t, head.EndTime)
		assert.True(t, head.EndTime.Equal(base.Add(time.Hour)))
		assert.Equal(t, int64(3600), *head.DurationSeconds)
		assert.Equal(t, "a", head.Tag)
	})

	t.Run("close without open session reports false", func(t *testing.T) {
		repo := open(t)
		seed(t, repo)
		closed, err := repo.CloseOpenSession(context.Background(), repository.CloseSessionInput{UserID: 1, EndTime: base})
		require.NoError(t, err)
		assert.False(t, closed)
	})

	t.Run("failed transaction rolls back every write", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)
		_, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "work", StartTime: base})
		require.NoError(t, err)

		err = repo.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if _, err := tx.CloseOpenSession(ctx, repository.CloseSessionInput{UserID: 1, EndTime: base.Add(time.Hour), DurationSeconds: 3600}); err != nil {
				return err
			}
			if _, err := tx.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "study", StartTime: base.Add(time.Hour)}); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		sessions, err := repo.ListSessionsByUser(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].IsOpen())
		assert.Equal(t, "work", sessions[0].StateName)
	})

	t.Run("committed transaction is visible", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)

		err := repo.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			_, err := tx.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "work", StartTime: base})
			return err
		})
		require.NoError(t, err)

		s, err := repo.GetOpenSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.True(t, s.StartTime.Equal(base))
	})

	t.Run("listing orders by start descending and filters by day", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)
		starts := []time.Time{base.Add(-24 * time.Hour), base, base.Add(2 * time.Hour)}
		for i, start := range starts {
			_, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "work", StartTime: start})
			require.NoError(t, err)
			if i < len(starts)-1 {
				_, err = repo.CloseOpenSession(ctx, repository.CloseSessionInput{UserID: 1, EndTime: starts[i+1], DurationSeconds: int64(starts[i+1].Sub(start).Seconds())})
				require.NoError(t, err)
			}
		}

		all, err := repo.ListSessionsByUser(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.True(t, all[0].StartTime.Equal(starts[2]))
		assert.True(t, all[2].StartTime.Equal(starts[0]))

		limited, err := repo.ListSessionsByUser(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		day, err := repo.ListSessionsByUserAndDay(ctx, 1, repository.DayOf(base, time.UTC))
		require.NoError(t, err)
		assert.Len(t, day, 2)
	})

	t.Run("update session is owner checked", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)
		id, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "work", StartTime: base})
		require.NoError(t, err)

		tag := "deep work"
		ok, err := repo.UpdateSession(ctx, repository.SessionUpdate{SessionID: id, OwnerID: 2, Tag: &tag})
		require.NoError(t, err)
		assert.False(t, ok)

		mood := 4
		state := "study"
		ok, err = repo.UpdateSession(ctx, repository.SessionUpdate{SessionID: id, OwnerID: 1, Tag: &tag, Mood: &mood, StateName: &state})
		require.NoError(t, err)
		assert.True(t, ok)

		s, err := repo.GetSessionByID(ctx, id, 1)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "deep work", s.Tag)
		assert.Equal(t, "study", s.StateName)
		require.NotNil(t, s.Mood)
		assert.Equal(t, 4, *s.Mood)

		other, err := repo.GetSessionByID(ctx, id, 2)
		require.NoError(t, err)
		assert.Nil(t, other)
	})

	t.Run("list tags skips empty tags", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		seed(t, repo)
		for i, tag := range []string{"math", "", "math"} {
			start := base.Add(time.Duration(i) * time.Hour)
			if i > 0 {
				_, err := repo.CloseOpenSession(ctx, repository.CloseSessionInput{UserID: 1, EndTime: start, DurationSeconds: 3600})
				require.NoError(t, err)
			}
			_, err := repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "study", StartTime: start, Tag: tag})
			require.NoError(t, err)
		}
		tags, err := repo.ListTags(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"math", "math"}, tags)
	})
}
