package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

const dashboardRecentLimit = 10

// DashboardResponse is what the dashboard endpoint serves. Exactly one of
// Summary or FallbackData is populated; the flags tell the client how much
// to trust it.
type DashboardResponse struct {
	Summary          *DashboardSummary        `json:"summary,omitempty"`
	FallbackData     interface{}              `json:"fallback_data,omitempty"`
	ServiceDegraded  bool                     `json:"service_degraded"`
	Stale            bool                     `json:"stale"`
	Partial          bool                     `json:"partial"`
	FailedOperations []string                 `json:"failed_operations,omitempty"`
	FallbackInfo     *resilience.FallbackInfo `json:"fallback_info,omitempty"`
}

// GetDashboardSummary assembles the dashboard for a user. The experiment
// list is required; per-experiment result aggregation is best effort and a
// failure there produces a partial summary cached under a reduced TTL.
// When the experiment list itself is unreachable the response degrades
// through stale cache and then registered fallback data.
func (s *Store) GetDashboardSummary(ctx context.Context, userID string) (*DashboardResponse, error) {
	key := fmt.Sprintf("dashboard_summary:%s", userID)

	var summary DashboardSummary
	if s.cache.Get(ctx, key, &summary) {
		return &DashboardResponse{Summary: &summary}, nil
	}

	if !s.orchestrator.CheckServiceAvailability(ServiceDatabase) {
		cause := errors.NewExternalError(ServiceDatabase, "service unavailable")
		return s.degradeDashboard(ctx, key, userID, cause)
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.SelectExperiments(ctx, userID, dashboardRecentLimit*10)
	})
	if err != nil {
		return s.degradeDashboard(ctx, key, userID, err)
	}
	experiments := result.([]Experiment)

	summary = buildSummary(experiments)

	// Metric aggregation across completed experiments is best effort
	var failed []string
	metrics, metricsErr := s.aggregateMetrics(ctx, experiments)
	if metricsErr != nil {
		failed = append(failed, "result_metrics")
		s.logger.Warn("Dashboard metric aggregation failed",
			"user_id", userID,
			"error", metricsErr.Error(),
		)
	} else {
		summary.AverageMetrics = metrics
	}

	if len(failed) > 0 {
		partial := resilience.NewPartialResult(summary, failed)
		s.cache.Set(ctx, key, summary, partial.RecommendedTTL)
		return &DashboardResponse{
			Summary:          &summary,
			Partial:          true,
			FailedOperations: failed,
		}, nil
	}

	s.cache.Set(ctx, key, summary, s.cacheTTL)
	return &DashboardResponse{Summary: &summary}, nil
}

// degradeDashboard is the failure path: stale cache first, then registered
// fallback data, then the error itself.
func (s *Store) degradeDashboard(ctx context.Context, key, userID string, cause error) (*DashboardResponse, error) {
	var summary DashboardSummary
	if s.serveStale(ctx, key, &summary, cause) {
		return &DashboardResponse{Summary: &summary, Stale: true, ServiceDegraded: true}, nil
	}

	degraded, err := s.orchestrator.HandleServiceFailure(ServiceDatabase, "dashboard_summary", cause,
		map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		FallbackData:    degraded.Data,
		ServiceDegraded: true,
		FallbackInfo:    &degraded.FallbackInfo,
	}, nil
}

// aggregateMetrics averages result metrics across completed experiments
func (s *Store) aggregateMetrics(ctx context.Context, experiments []Experiment) (map[string]float64, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, experiment := range experiments {
		if experiment.Status != StatusCompleted {
			continue
		}
		results, err := s.ListResults(ctx, experiment.ID)
		if err != nil {
			return nil, err
		}
		for _, result := range results {
			for name, value := range result.Metrics {
				sums[name] += value
				counts[name]++
			}
		}
	}

	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = sum / float64(counts[name])
	}
	return averages, nil
}

func buildSummary(experiments []Experiment) DashboardSummary {
	summary := DashboardSummary{
		TotalExperiments:    len(experiments),
		ExperimentsByType:   make(map[string]int),
		ExperimentsByStatus: make(map[string]int),
		LastUpdated:         time.Now().UTC(),
	}

	completed := 0
	for _, experiment := range experiments {
		summary.ExperimentsByType[experiment.ExperimentType]++
		summary.ExperimentsByStatus[experiment.Status]++
		if experiment.Status == StatusCompleted {
			completed++
		}
	}
	if len(experiments) > 0 {
		summary.CompletionRate = float64(completed) / float64(len(experiments))
	}

	recent := experiments
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}
	summary.RecentExperiments = append([]Experiment(nil), recent...)

	return summary
}
