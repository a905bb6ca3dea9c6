// Package resilience provides the failure-handling primitives used around
// outbound Supabase calls: a per-dependency circuit breaker, a retry
// executor with exponential backoff and jitter, per-service health tracking
// with derived degradation levels, registered fallback data, and a
// maintenance-mode gate.
//
// The circuit breaker is shared per logical dependency (one instance for
// "the database") and lives for the process lifetime. The retry executor
// receives a reference to it and records every attempt outcome into it:
//
//	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//		Name:             "database",
//		FailureThreshold: 5,
//		RecoveryTimeout:  30 * time.Second,
//	})
//	exec := resilience.NewExecutor(resilience.DefaultRetryConfig(), breaker)
//
//	result, err := exec.Execute(ctx, func(ctx context.Context) (interface{}, error) {
//		return store.FetchExperiments(ctx, userID)
//	})
//
// On terminal failure, the orchestrator decides availability and serves
// registered fallback data as a uniform degraded response; callers map the
// remaining errors to boundary responses using their error kinds.
package resilience
