package cache

import (
	"context"
	"fmt"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/metrics"
)

// EntityKind identifies a domain entity whose mutation invalidates cached
// reads.
type EntityKind string

const (
	EntityExperiment EntityKind = "experiment"
	EntityResult     EntityKind = "result"
	EntityDashboard  EntityKind = "dashboard"
	EntityUser       EntityKind = "user"
)

// dependents maps an entity kind to the kinds whose cached views it feeds.
// Results roll up into experiments and the dashboard; experiments roll up
// into the dashboard. The graph is fixed and acyclic.
var dependents = map[EntityKind][]EntityKind{
	EntityResult:     {EntityExperiment, EntityDashboard},
	EntityExperiment: {EntityDashboard},
}

// Invalidator removes cached entries after entity mutations. Each entity
// kind owns a fixed set of key patterns; invalidating a kind also
// invalidates the kinds that aggregate it.
type Invalidator struct {
	cache   *Service
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewInvalidator creates an invalidator over the given cache
func NewInvalidator(cache *Service, m *metrics.Metrics) *Invalidator {
	return &Invalidator{
		cache:   cache,
		metrics: m,
		logger:  logging.GetLogger().WithComponent("cache_invalidator"),
	}
}

// InvalidateFor clears the patterns for kind and its dependents after a
// mutation. ownerID scopes per-user views and entityID scopes per-entity
// views; either may be empty when not applicable. Returns the number of
// local entries removed. A failing pattern never stops the remaining ones.
func (inv *Invalidator) InvalidateFor(ctx context.Context, kind EntityKind, ownerID, entityID string) int {
	kinds := expandKinds(kind)
	removed := 0

	for _, k := range kinds {
		for _, pattern := range patternsFor(k, ownerID, entityID) {
			removed += inv.cache.ClearPattern(ctx, pattern)
		}
		if inv.metrics != nil && inv.metrics.CacheInvalidations != nil {
			inv.metrics.CacheInvalidations.WithLabelValues(string(k)).Inc()
		}
	}

	inv.logger.Debug("Invalidated cached entries",
		"entity_kind", string(kind),
		"owner_id", ownerID,
		"entity_id", entityID,
		"removed", removed,
	)
	return removed
}

// InvalidateKinds clears the patterns for an explicit set of kinds without
// following the dependency graph.
func (inv *Invalidator) InvalidateKinds(ctx context.Context, ownerID, entityID string, kinds ...EntityKind) int {
	removed := 0
	for _, k := range kinds {
		for _, pattern := range patternsFor(k, ownerID, entityID) {
			removed += inv.cache.ClearPattern(ctx, pattern)
		}
		if inv.metrics != nil && inv.metrics.CacheInvalidations != nil {
			inv.metrics.CacheInvalidations.WithLabelValues(string(k)).Inc()
		}
	}
	return removed
}

// expandKinds returns kind followed by its transitive dependents, deduped
// in a stable order.
func expandKinds(kind EntityKind) []EntityKind {
	seen := map[EntityKind]bool{kind: true}
	order := []EntityKind{kind}

	queue := append([]EntityKind(nil), dependents[kind]...)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		order = append(order, k)
		queue = append(queue, dependents[k]...)
	}
	return order
}

// patternsFor returns the cache key patterns owned by an entity kind. Keys
// follow the "<view>:<scope>" convention used throughout the data layer.
func patternsFor(kind EntityKind, ownerID, entityID string) []string {
	var patterns []string

	switch kind {
	case EntityExperiment:
		if ownerID != "" {
			patterns = append(patterns, fmt.Sprintf("experiments:%s*", ownerID))
		}
		if entityID != "" {
			patterns = append(patterns, fmt.Sprintf("experiment:%s*", entityID))
		}
	case EntityResult:
		if entityID != "" {
			patterns = append(patterns, fmt.Sprintf("results:%s*", entityID))
		}
	case EntityDashboard:
		if ownerID != "" {
			patterns = append(patterns,
				fmt.Sprintf("dashboard_summary:%s*", ownerID),
				fmt.Sprintf("dashboard_charts:%s*", ownerID),
			)
		}
	case EntityUser:
		if ownerID != "" {
			patterns = append(patterns, fmt.Sprintf("user:%s*", ownerID))
		}
	}

	return patterns
}
