package resilience

import (
	"sync"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed - circuit is closed, requests are allowed
	StateClosed CircuitState = iota
	// StateOpen - circuit is open, requests are rejected
	StateOpen
	// StateHalfOpen - circuit is half-open, limited probe requests are allowed
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
// Immutable once the breaker is constructed.
type CircuitBreakerConfig struct {
	// Name of the dependency this breaker guards, for logging and errors
	Name string
	// FailureThreshold is the number of classified failures that trips
	// the breaker from closed to open
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before the next
	// AllowRequest call moves it to half-open
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls bounds how many probe calls may be in flight while
	// the breaker is half-open
	HalfOpenMaxCalls int
	// IsFailure classifies errors; only matching errors count toward the
	// failure threshold. Defaults to errors.IsRetryable.
	IsFailure func(error) bool
	// OnStateChange is called whenever the breaker changes state
	OnStateChange func(name string, from CircuitState, to CircuitState)
}

// CircuitBreaker is a state machine that stops calling a failing dependency
// once the failure threshold is crossed, and probes recovery after a timeout.
// One instance is shared per logical dependency for the process lifetime.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	halfOpenMaxCalls int
	isFailure        func(error) bool
	onStateChange    func(name string, from CircuitState, to CircuitState)

	mutex            sync.Mutex
	state            CircuitState
	failureCount     int
	lastFailureTime  time.Time
	halfOpenInFlight int

	logger *logging.Logger
	now    func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}

	cb := &CircuitBreaker{
		name:             config.Name,
		failureThreshold: config.FailureThreshold,
		recoveryTimeout:  config.RecoveryTimeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		isFailure:        config.IsFailure,
		onStateChange:    config.OnStateChange,
		state:            StateClosed,
		logger:           logging.GetLogger(),
		now:              time.Now,
	}

	if cb.isFailure == nil {
		cb.isFailure = errors.IsRetryable
	}

	return cb
}

// AllowRequest reports whether a request may proceed. While open, the first
// call after the recovery timeout has elapsed moves the breaker to half-open
// and claims the probe slot atomically; concurrent callers observe either the
// claimed slot or the still-open state, never both.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.recoveryTimeout {
			return false
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenInFlight = 1
		return true
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.halfOpenMaxCalls {
			return false
		}
		cb.halfOpenInFlight++
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful call. The first success in half-open
// closes the breaker and resets the failure count; in closed state it is a
// no-op.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.halfOpenInFlight > 0 {
		cb.halfOpenInFlight--
	}

	if cb.state == StateHalfOpen {
		cb.failureCount = 0
		cb.setState(StateClosed)
	}
}

// RecordFailure records a failed call. The claimed half-open probe slot, if
// any, is released regardless of classification; errors outside the
// configured failure classification otherwise leave breaker state untouched.
// A classified failure in half-open reopens the breaker immediately; in
// closed state the breaker trips once the failure threshold is reached.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.halfOpenInFlight > 0 {
		cb.halfOpenInFlight--
	}

	if err == nil || !cb.isFailure(err) {
		return
	}

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

// State returns the current state without side effects
func (cb *CircuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive classified failure count
func (cb *CircuitBreaker) FailureCount() int {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.failureCount
}

// Name returns the name of the guarded dependency
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// RetryAfter returns how long until the breaker is willing to probe again.
// Zero when the breaker is not open.
func (cb *CircuitBreaker) RetryAfter() time.Duration {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state != StateOpen {
		return 0
	}
	remaining := cb.recoveryTimeout - cb.now().Sub(cb.lastFailureTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset returns the breaker to its initial closed state. Intended for tests
// and operator intervention.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount = 0
	cb.lastFailureTime = time.Time{}
	cb.halfOpenInFlight = 0
	cb.setState(StateClosed)
}

// setState must be called with the mutex held
func (cb *CircuitBreaker) setState(state CircuitState) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state

	if state != StateHalfOpen {
		cb.halfOpenInFlight = 0
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}

	cb.logger.Info("Circuit breaker state changed",
		"name", cb.name,
		"from", prev.String(),
		"to", state.String(),
		"failure_count", cb.failureCount,
	)
}
