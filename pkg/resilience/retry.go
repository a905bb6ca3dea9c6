package resilience

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// RetryConfig holds configuration for the retry executor
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the initial call
	MaxRetries int
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff delay
	MaxDelay time.Duration
	// Retryable classifies errors worth retrying.
	// Defaults to errors.IsRetryable.
	Retryable func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Rand is the jitter source. Inject a seeded source for deterministic
	// tests; defaults to a time-seeded source.
	Rand *rand.Rand
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Retryable:  errors.IsRetryable,
	}
}

// Executor wraps a fallible operation with bounded exponential-backoff
// retries, consulting a shared circuit breaker before each attempt and
// recording outcomes into it. The executor is stateless across invocations
// apart from the breaker reference, which it never outlives or clones.
type Executor struct {
	config  RetryConfig
	breaker *CircuitBreaker
	logger  *logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExecutor creates a retry executor. breaker may be nil for call sites
// that only want backoff behavior.
func NewExecutor(config RetryConfig, breaker *CircuitBreaker) *Executor {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Retryable == nil {
		config.Retryable = errors.IsRetryable
	}

	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Executor{
		config:  config,
		breaker: breaker,
		logger:  logging.GetLogger(),
		rng:     rng,
	}
}

// Execute runs the operation with retries. Retryable failures are re-attempted
// up to MaxRetries times with backoff; the original error is surfaced
// unwrapped when attempts are exhausted. Every completed attempt is recorded
// into the attached breaker, success or failure, so claimed probe slots are
// always released; non-retryable failures propagate immediately and only move
// breaker state when its own classifier counts them. When the breaker rejects
// the call, a circuit-open error carrying a retry-after hint is returned
// without invoking the operation.
func (e *Executor) Execute(ctx context.Context, operation func(context.Context) (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.breaker != nil && !e.breaker.AllowRequest() {
			retryAfter := e.breaker.RetryAfter()
			e.logger.Warn("Circuit breaker rejected request",
				"breaker", e.breaker.Name(),
				"retry_after", retryAfter,
			)
			return nil, errors.NewCircuitOpenError(e.breaker.Name(), retryAfter)
		}

		result, err := operation(ctx)
		if err == nil {
			if e.breaker != nil {
				e.breaker.RecordSuccess()
			}
			if attempt > 0 {
				e.logger.Info("Operation succeeded after retry",
					"attempt", attempt+1,
				)
			}
			return result, nil
		}

		if e.breaker != nil {
			e.breaker.RecordFailure(err)
		}

		if !e.config.Retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == e.config.MaxRetries {
			break
		}

		delay := e.delay(attempt)
		e.logger.Debug("Operation failed, retrying",
			"error", err.Error(),
			"attempt", attempt+1,
			"max_retries", e.config.MaxRetries,
			"delay", delay,
		)
		if e.config.OnRetry != nil {
			e.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	e.logger.Error("Operation failed after all retry attempts",
		"error", lastErr.Error(),
		"attempts", e.config.MaxRetries+1,
	)

	return nil, lastErr
}

// ExecuteVoid runs an operation that doesn't return a result
func (e *Executor) ExecuteVoid(ctx context.Context, operation func(context.Context) error) error {
	_, err := e.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, operation(ctx)
	})
	return err
}

// Breaker returns the attached circuit breaker, if any
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}

// delay computes the backoff for the given zero-based attempt index:
// BaseDelay*2^attempt capped at MaxDelay, with ±25% uniform jitter.
func (e *Executor) delay(attempt int) time.Duration {
	raw := float64(e.config.BaseDelay) * math.Pow(2, float64(attempt))
	if raw > float64(e.config.MaxDelay) {
		raw = float64(e.config.MaxDelay)
	}

	e.mu.Lock()
	factor := 0.75 + e.rng.Float64()*0.5
	e.mu.Unlock()

	return time.Duration(raw * factor)
}

// DelayBounds returns the jitter envelope for the given attempt index, for
// callers that need the raw computed bounds.
func DelayBounds(config RetryConfig, attempt int) (min, max time.Duration) {
	raw := float64(config.BaseDelay) * math.Pow(2, float64(attempt))
	if config.MaxDelay > 0 && raw > float64(config.MaxDelay) {
		raw = float64(config.MaxDelay)
	}
	return time.Duration(raw * 0.75), time.Duration(raw * 1.25)
}
