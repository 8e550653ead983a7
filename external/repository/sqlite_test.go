package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utyara3/TimeTracker/internal/repository"
)

func openTestSQLite(t *testing.T, path string) repository.Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), path, DefaultRetryPolicy(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) repository.Repository {
		return openTestSQLite(t, filepath.Join(t.TempDir(), "tracker.db"))
	})
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first, err := NewSQLiteRepository(ctx, path, DefaultRetryPolicy(0))
	require.NoError(t, err)
	_, err = first.UpsertUser(ctx, repository.UpsertUserInput{UserID: 7, DisplayName: "bob"})
	require.NoError(t, err)
	require.NoError(t, first.EnsureState(ctx, "work", false))
	_, err = first.InsertSession(ctx, repository.InsertSessionInput{UserID: 7, StateName: "work", StartTime: start, Tag: "x"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTestSQLite(t, path)
	s, err := second.GetOpenSession(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, start.Unix(), s.StartTime.Unix())
	assert.Equal(t, "x", s.Tag)
}

func TestSQLiteRepositoryRejectsUnknownState(t *testing.T) {
	repo := openTestSQLite(t, filepath.Join(t.TempDir(), "tracker.db"))
	ctx := context.Background()
	_, err := repo.UpsertUser(ctx, repository.UpsertUserInput{UserID: 1, DisplayName: "a"})
	require.NoError(t, err)

	_, err = repo.InsertSession(ctx, repository.InsertSessionInput{UserID: 1, StateName: "ghost", StartTime: time.Now()})
	assert.Error(t, err, "foreign key on state_name must hold")
}

func TestRetryPolicyDelay(t *testing.T) {
	p := DefaultRetryPolicy(3)
	assert.Equal(t, 50*time.Millisecond, p.Delay(0))
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(10))
}

func TestRunWithRetryStopsAfterBudget(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}
	calls := 0
	err := runWithRetry(context.Background(), policy, func(error) bool { return true }, func() error {
		calls++
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Equal(t, 3, calls)

	calls = 0
	err = runWithRetry(context.Background(), policy, func(error) bool { return false }, func() error {
		calls++
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Equal(t, 1, calls)
}
