package datastore

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

// fakeBackend is an in-memory Backend with failure injection
type fakeBackend struct {
	mu           sync.Mutex
	experiments  []Experiment
	results      map[string][]Result
	failWith     error
	failFor      int // fail this many calls, then recover; 0 with failWith set fails forever
	succeedFirst int // let this many calls through before failWith applies
	calls        int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{results: make(map[string][]Result)}
}

func (f *fakeBackend) fail() error {
	f.calls++
	if f.succeedFirst > 0 {
		f.succeedFirst--
		return nil
	}
	if f.failWith == nil {
		return nil
	}
	if f.failFor > 0 {
		f.failFor--
		err := f.failWith
		if f.failFor == 0 {
			f.failWith = nil
		}
		return err
	}
	return f.failWith
}

// failAfter lets the next n calls succeed, then fails every later call
func (f *fakeBackend) failAfter(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.succeedFirst = n
	f.failWith = err
}

func (f *fakeBackend) SelectExperiments(ctx context.Context, userID string, limit int) ([]Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}

	var out []Experiment
	for _, e := range f.experiments {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBackend) SelectExperiment(ctx context.Context, experimentID string) (*Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}

	for i := range f.experiments {
		if f.experiments[i].ID == experimentID {
			e := f.experiments[i]
			return &e, nil
		}
	}
	return nil, errors.NewNotFoundError("experiment")
}

func (f *fakeBackend) InsertExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}

	stored := *experiment
	f.experiments = append(f.experiments, stored)
	return &stored, nil
}

func (f *fakeBackend) UpdateExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}

	for i := range f.experiments {
		if f.experiments[i].ID == experiment.ID {
			f.experiments[i] = *experiment
			stored := f.experiments[i]
			return &stored, nil
		}
	}
	return nil, errors.NewNotFoundError("experiment")
}

func (f *fakeBackend) DeleteExperiment(ctx context.Context, experimentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}

	for i := range f.experiments {
		if f.experiments[i].ID == experimentID {
			f.experiments = append(f.experiments[:i], f.experiments[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("experiment")
}

func (f *fakeBackend) SelectResults(ctx context.Context, experimentID string) ([]Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.results[experimentID], nil
}

func (f *fakeBackend) InsertResult(ctx context.Context, result *Result) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}

	stored := *result
	f.results[result.ExperimentID] = append(f.results[result.ExperimentID], stored)
	return &stored, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type storeFixture struct {
	store   *Store
	backend *fakeBackend
	breaker *resilience.CircuitBreaker
	orch    *resilience.Orchestrator
}

func newStoreFixture(t *testing.T, maxRetries, failureThreshold int, cacheTTL time.Duration) *storeFixture {
	t.Helper()

	cacheService, err := cache.NewService(&config.CacheConfig{
		DefaultTTL: cacheTTL,
		StaleGrace: time.Hour,
		MaxEntries: 100,
	}, nil, nil)
	require.NoError(t, err)

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             ServiceDatabase,
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  time.Hour,
	})
	executor := resilience.NewExecutor(resilience.RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Rand:       rand.New(rand.NewSource(1)),
	}, breaker)

	maintenance := resilience.NewMaintenanceController()
	orch := resilience.NewOrchestrator(
		resilience.NewHealthMonitor(maintenance),
		maintenance,
		resilience.NewFallbackProvider(),
	)

	backend := newFakeBackend()
	store := NewStore(Config{
		Backend:      backend,
		Cache:        cacheService,
		Invalidator:  cache.NewInvalidator(cacheService, nil),
		Executor:     executor,
		Orchestrator: orch,
		CacheTTL:     cacheTTL,
	})

	return &storeFixture{store: store, backend: backend, breaker: breaker, orch: orch}
}

func seedExperiments(f *storeFixture, userID string, n int) {
	for i := 0; i < n; i++ {
		status := StatusCompleted
		if i%2 == 1 {
			status = StatusRunning
		}
		f.backend.experiments = append(f.backend.experiments, Experiment{
			ID:             userID + "-exp-" + string(rune('a'+i)),
			UserID:         userID,
			Name:           "experiment",
			ExperimentType: "reaction_time",
			Status:         status,
		})
	}
}

func TestListExperimentsCachesResult(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	seedExperiments(f, "user-1", 3)
	ctx := context.Background()

	first, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, 1, f.backend.callCount())
}

func TestListExperimentsRetriesTransientFailures(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	seedExperiments(f, "user-1", 2)
	f.backend.failWith = errors.NewDatabaseError("transient")
	f.backend.failFor = 2

	experiments, err := f.store.ListExperiments(context.Background(), "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, experiments, 2)
	assert.Equal(t, 3, f.backend.callCount())
}

func TestPersistentFailureOpensBreakerThenShortCircuits(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	f.backend.failWith = errors.NewDatabaseError("down")
	ctx := context.Background()

	// First invocation exhausts four attempts
	_, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.True(t, errors.IsType(err, errors.ErrorTypeDatabase))
	assert.Equal(t, 4, f.backend.callCount())
	assert.Equal(t, resilience.StateClosed, f.breaker.State())

	// Second invocation trips the breaker on its fifth recorded failure
	_, err = f.store.ListExperiments(ctx, "user-1", 50)
	require.True(t, errors.IsType(err, errors.ErrorTypeCircuitOpen))
	assert.Equal(t, resilience.StateOpen, f.breaker.State())
	assert.Equal(t, 5, f.backend.callCount())

	// Third invocation never reaches the backend
	_, err = f.store.ListExperiments(ctx, "user-1", 50)
	require.True(t, errors.IsType(err, errors.ErrorTypeCircuitOpen))
	assert.Equal(t, 5, f.backend.callCount())
}

func TestStaleCacheServedAfterStoreFailure(t *testing.T) {
	f := newStoreFixture(t, 0, 50, 20*time.Millisecond)
	seedExperiments(f, "user-1", 2)
	ctx := context.Background()

	_, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)

	// Let the entry expire into its stale window, then break the backend
	time.Sleep(40 * time.Millisecond)
	f.backend.failWith = errors.NewDatabaseError("down")

	experiments, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, experiments, 2)
}

func TestNonRetryableErrorPropagatesImmediately(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	ctx := context.Background()

	_, err := f.store.GetExperiment(ctx, "user-1", "no-such-id")
	require.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Equal(t, 1, f.backend.callCount())
	assert.Equal(t, 0, f.breaker.FailureCount())
}

func TestGetExperimentEnforcesOwnership(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	seedExperiments(f, "user-1", 1)

	_, err := f.store.GetExperiment(context.Background(), "user-2", "user-1-exp-a")
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthorization))
}

func TestCreateExperimentInvalidatesListViews(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	seedExperiments(f, "user-1", 1)
	ctx := context.Background()

	first, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = f.store.CreateExperiment(ctx, &Experiment{
		ID:     "user-1-exp-new",
		UserID: "user-1",
		Name:   "fresh",
		Status: StatusPending,
	})
	require.NoError(t, err)

	// The cached list was invalidated, so the new experiment appears
	second, err := f.store.ListExperiments(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestAddResultInvalidatesExperimentAndDashboard(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	seedExperiments(f, "user-1", 1)
	ctx := context.Background()

	resp, err := f.store.GetDashboardSummary(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, resp.Summary)
	callsAfterFirstDashboard := f.backend.callCount()

	_, err = f.store.AddResult(ctx, "user-1", &Result{
		ExperimentID: "user-1-exp-a",
		Metrics:      map[string]float64{"accuracy": 0.9},
	})
	require.NoError(t, err)

	// Dashboard view was invalidated and recomputes from the backend
	resp, err = f.store.GetDashboardSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Greater(t, f.backend.callCount(), callsAfterFirstDashboard+1)
	assert.Equal(t, 0.9, resp.Summary.AverageMetrics["accuracy"])
}

func TestValidationErrors(t *testing.T) {
	f := newStoreFixture(t, 3, 5, time.Minute)
	ctx := context.Background()

	_, err := f.store.ListExperiments(ctx, "", 10)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = f.store.CreateExperiment(ctx, &Experiment{UserID: "user-1"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = f.store.AddResult(ctx, "user-1", &Result{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.Equal(t, 0, f.backend.callCount())
}
