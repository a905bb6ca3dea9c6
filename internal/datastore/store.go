package datastore

import (
	"context"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

// ServiceDatabase is the health-monitor name for the primary data store
const ServiceDatabase = "database"

// Backend is the raw data source underneath the resilient store. The
// production implementation talks to Supabase; tests substitute a fake.
type Backend interface {
	SelectExperiments(ctx context.Context, userID string, limit int) ([]Experiment, error)
	SelectExperiment(ctx context.Context, experimentID string) (*Experiment, error)
	InsertExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error)
	UpdateExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error)
	DeleteExperiment(ctx context.Context, experimentID string) error
	SelectResults(ctx context.Context, experimentID string) ([]Result, error)
	InsertResult(ctx context.Context, result *Result) (*Result, error)
}

// Store is the canonical data access path. Every read goes cache first,
// then through the retry executor and shared database circuit breaker;
// terminal failures fall back to stale cache entries and registered
// fallback data before an error ever reaches the caller. Mutations
// write through and invalidate the affected cached views.
type Store struct {
	backend      Backend
	cache        *cache.Service
	invalidator  *cache.Invalidator
	executor     *resilience.Executor
	orchestrator *resilience.Orchestrator
	logger       *logging.Logger

	cacheTTL time.Duration
}

// Config carries the store's collaborators
type Config struct {
	Backend      Backend
	Cache        *cache.Service
	Invalidator  *cache.Invalidator
	Executor     *resilience.Executor
	Orchestrator *resilience.Orchestrator
	CacheTTL     time.Duration
}

// NewStore creates the resilient store
func NewStore(cfg Config) *Store {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Store{
		backend:      cfg.Backend,
		cache:        cfg.Cache,
		invalidator:  cfg.Invalidator,
		executor:     cfg.Executor,
		orchestrator: cfg.Orchestrator,
		logger:       logging.GetLogger().WithComponent("datastore"),
		cacheTTL:     ttl,
	}
}

// execute runs a backend operation through the retry executor and keeps the
// health monitor in sync with the outcome.
func (s *Store) execute(ctx context.Context, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	result, err := s.executor.Execute(ctx, op)
	if err != nil {
		return nil, err
	}

	monitor := s.orchestrator.Monitor()
	if record, found := monitor.GetServiceHealth(ServiceDatabase); found && record.Status != resilience.StatusHealthy {
		monitor.RecordRecovery(ServiceDatabase)
	}
	return result, nil
}

// serveStale attempts a stale cache read after a store failure, logging when
// it succeeds.
func (s *Store) serveStale(ctx context.Context, key string, dest interface{}, cause error) bool {
	found, _ := s.cache.GetStale(ctx, key, dest)
	if found {
		s.logger.Warn("Serving stale cached data after store failure",
			"key", key,
			"error", cause.Error(),
		)
	}
	return found
}
