package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the resilience core
type Metrics struct {
	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheEvictions     prometheus.Counter
	CacheInvalidations *prometheus.CounterVec
	CacheEntries       prometheus.Gauge

	// Circuit breaker metrics
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec

	// Retry metrics
	RetryAttempts *prometheus.CounterVec

	// Degradation metrics
	DegradedResponses *prometheus.CounterVec
	MaintenanceMode   prometheus.Gauge

	registry *prometheus.Registry
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "neurolab",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics on a dedicated
// registry, so tests can construct instances without collisions.
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Enabled {
		return &Metrics{}
	}

	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits per tier",
			},
			[]string{"tier"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses per tier",
			},
			[]string{"tier"},
		),
		CacheEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of local cache evictions",
			},
		),
		CacheInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "cache_invalidations_total",
				Help:      "Total number of pattern invalidations per entity kind",
			},
			[]string{"entity_kind"},
		),
		CacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Name:      "cache_local_entries",
				Help:      "Current number of entries in the local cache tier",
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		BreakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "circuit_breaker_transitions_total",
				Help:      "Total number of circuit breaker state transitions",
			},
			[]string{"name", "to"},
		),
		RetryAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "retry_attempts_total",
				Help:      "Total number of retry attempts per operation",
			},
			[]string{"operation"},
		),
		DegradedResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "degraded_responses_total",
				Help:      "Total number of responses served from fallback data",
			},
			[]string{"service", "data_type"},
		),
		MaintenanceMode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Name:      "maintenance_mode",
				Help:      "Whether maintenance mode is enabled (1) or not (0)",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.CacheInvalidations,
		m.CacheEntries,
		m.BreakerState,
		m.BreakerTransitions,
		m.RetryAttempts,
		m.DegradedResponses,
		m.MaintenanceMode,
	)

	return m
}

// RecordCacheHit increments the hit counter for a tier
func (m *Metrics) RecordCacheHit(tier string) {
	if m.CacheHits != nil {
		m.CacheHits.WithLabelValues(tier).Inc()
	}
}

// RecordCacheMiss increments the miss counter for a tier
func (m *Metrics) RecordCacheMiss(tier string) {
	if m.CacheMisses != nil {
		m.CacheMisses.WithLabelValues(tier).Inc()
	}
}

// RecordBreakerTransition updates the state gauge and transition counter
func (m *Metrics) RecordBreakerTransition(name string, to int, toLabel string) {
	if m.BreakerState != nil {
		m.BreakerState.WithLabelValues(name).Set(float64(to))
		m.BreakerTransitions.WithLabelValues(name, toLabel).Inc()
	}
}

// RecordRetryAttempt increments the retry counter for an operation
func (m *Metrics) RecordRetryAttempt(operation string) {
	if m.RetryAttempts != nil {
		m.RetryAttempts.WithLabelValues(operation).Inc()
	}
}

// RecordDegradedResponse increments the fallback-served counter
func (m *Metrics) RecordDegradedResponse(service, dataType string) {
	if m.DegradedResponses != nil {
		m.DegradedResponses.WithLabelValues(service, dataType).Inc()
	}
}

// SetMaintenanceMode records whether maintenance mode is active
func (m *Metrics) SetMaintenanceMode(enabled bool) {
	if m.MaintenanceMode != nil {
		if enabled {
			m.MaintenanceMode.Set(1)
		} else {
			m.MaintenanceMode.Set(0)
		}
	}
}

// Handler returns the Prometheus metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
