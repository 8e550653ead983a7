package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds how often a transaction is re-run after transient
// contention such as lock timeouts or serialization failures.
type RetryPolicy struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		InitialDelay:      50 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Delay returns the wait before retry number retryCount (zero based).
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	delay := float64(p.InitialDelay)
	for i := 0; i < retryCount; i++ {
		delay *= p.BackoffMultiplier
	}
	if time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

func runWithRetry(ctx context.Context, policy RetryPolicy, isTransient func(error) bool, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt >= policy.MaxRetries {
			return fmt.Errorf("transaction failed after %d retries: %w", attempt, err)
		}
		delay := policy.Delay(attempt)
		slog.Warn("transient store error; retrying transaction", "error", err, "attempt", attempt+1, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
