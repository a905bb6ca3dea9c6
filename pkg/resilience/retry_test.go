package resilience

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Rand:       rand.New(rand.NewSource(1)),
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3), nil)

	calls := 0
	result, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3), nil)

	calls := 0
	result, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls <= 2 {
			return nil, errors.NewDatabaseError("transient")
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3), nil)

	calls := 0
	notFound := errors.NewNotFoundError("experiment")
	_, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, notFound
	})

	assert.Same(t, notFound, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteSurfacesOriginalErrorAfterExhaustion(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2), nil)

	calls := 0
	dbErr := errors.NewDatabaseError("persistent")
	_, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, dbErr
	})

	// The last attempt's error comes back unwrapped
	assert.Same(t, dbErr, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	exec := NewExecutor(RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Hour,
		MaxDelay:   time.Hour,
		Rand:       rand.New(rand.NewSource(1)),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := exec.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, errors.NewDatabaseError("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExecuteRecordsOutcomesIntoBreaker(t *testing.T) {
	cb, _ := newTestBreaker(5, 30*time.Second)
	exec := NewExecutor(fastRetryConfig(3), cb)
	ctx := context.Background()

	// First invocation burns four attempts against the threshold of five
	alwaysFailing := func(ctx context.Context) (interface{}, error) {
		return nil, errors.NewDatabaseError("down")
	}
	_, err := exec.Execute(ctx, alwaysFailing)
	require.True(t, errors.IsType(err, errors.ErrorTypeDatabase))
	assert.Equal(t, 4, cb.FailureCount())
	assert.Equal(t, StateClosed, cb.State())

	// Second invocation trips the breaker on its first attempt; the next
	// attempt is rejected and reported as circuit-open.
	_, err = exec.Execute(ctx, alwaysFailing)
	require.True(t, errors.IsType(err, errors.ErrorTypeCircuitOpen))
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecuteRejectsImmediatelyWhenOpen(t *testing.T) {
	cb, _ := newTestBreaker(1, 30*time.Second)
	cb.RecordFailure(errors.NewDatabaseError("down"))
	require.Equal(t, StateOpen, cb.State())

	exec := NewExecutor(fastRetryConfig(3), cb)

	calls := 0
	_, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return "unreachable", nil
	})

	require.True(t, errors.IsType(err, errors.ErrorTypeCircuitOpen))
	assert.Equal(t, 0, calls)

	retryAfter, ok := errors.RetryAfter(err)
	require.True(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestExecuteSuccessResetsBreakerFromHalfOpen(t *testing.T) {
	cb, now := newTestBreaker(1, time.Second)
	cb.RecordFailure(errors.NewDatabaseError("down"))
	*now = now.Add(2 * time.Second)

	exec := NewExecutor(fastRetryConfig(0), cb)
	result, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "probe ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "probe ok", result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteReleasesProbeSlotOnNonRetryableError(t *testing.T) {
	cb, now := newTestBreaker(1, time.Second)
	cb.RecordFailure(errors.NewDatabaseError("down"))
	*now = now.Add(2 * time.Second)

	exec := NewExecutor(fastRetryConfig(0), cb)
	ctx := context.Background()

	// The recovery probe lands on a missing row
	notFound := errors.NewNotFoundError("experiment")
	_, err := exec.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, notFound
	})
	require.Same(t, notFound, err)
	assert.Equal(t, StateHalfOpen, cb.State())

	// The next call gets the freed slot and closes the breaker
	calls := 0
	result, err := exec.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteVoid(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2), nil)

	calls := 0
	err := exec.ExecuteVoid(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.NewNetworkError("blip")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDelayStaysWithinJitterBounds(t *testing.T) {
	config := RetryConfig{
		MaxRetries: 4,
		BaseDelay:  time.Millisecond,
		MaxDelay:   6 * time.Millisecond,
		Rand:       rand.New(rand.NewSource(42)),
	}

	var delays []time.Duration
	config.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}

	exec := NewExecutor(config, nil)
	_, err := exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.NewDatabaseError("down")
	})
	require.Error(t, err)
	require.Len(t, delays, 4)

	for attempt, delay := range delays {
		min, max := DelayBounds(config, attempt)
		assert.GreaterOrEqual(t, delay, min, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, max, "attempt %d", attempt)
	}
}

func TestDelayBoundsCapAtMaxDelay(t *testing.T) {
	config := RetryConfig{BaseDelay: time.Second, MaxDelay: 4 * time.Second}

	// 2^3 = 8s raw, capped at 4s before jitter
	min, max := DelayBounds(config, 3)
	assert.Equal(t, 3*time.Second, min)
	assert.Equal(t, 5*time.Second, max)
}

func TestOnRetryReceivesAttemptAndError(t *testing.T) {
	var attempts []int
	config := fastRetryConfig(2)
	config.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	}

	exec := NewExecutor(config, nil)
	_, _ = exec.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.NewNetworkError("down")
	})

	assert.Equal(t, []int{0, 1}, attempts)
}
