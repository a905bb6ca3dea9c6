package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

// HealthHandler serves health and degradation snapshots
type HealthHandler struct {
	orchestrator *resilience.Orchestrator
	breaker      *resilience.CircuitBreaker
	cache        *cache.Service
}

// NewHealthHandler creates the health handler
func NewHealthHandler(orch *resilience.Orchestrator, breaker *resilience.CircuitBreaker, cacheService *cache.Service) *HealthHandler {
	return &HealthHandler{
		orchestrator: orch,
		breaker:      breaker,
		cache:        cacheService,
	}
}

// GetSystemHealth returns the aggregate snapshot across every tracked
// service plus breaker and cache state.
func (h *HealthHandler) GetSystemHealth(c *gin.Context) {
	snapshot := h.orchestrator.Monitor().GetOverallHealth()

	SuccessResponse(c, gin.H{
		"status":            snapshot.Status,
		"degradation_level": snapshot.DegradationLevel.String(),
		"services":          snapshot.Services,
		"timestamp":         snapshot.Timestamp,
		"maintenance":       h.orchestrator.Maintenance().GetInfo(),
		"circuit_breaker": gin.H{
			"name":          h.breaker.Name(),
			"state":         h.breaker.State().String(),
			"failure_count": h.breaker.FailureCount(),
			"retry_after":   h.breaker.RetryAfter().Seconds(),
		},
		"cache": h.cache.Stats(),
	})
}

// GetServiceHealth returns the record for one named service
func (h *HealthHandler) GetServiceHealth(c *gin.Context) {
	name := c.Param("name")

	record, found := h.orchestrator.Monitor().GetServiceHealth(name)
	if !found {
		SuccessResponse(c, gin.H{
			"service_name": name,
			"tracked":      false,
			"available":    h.orchestrator.CheckServiceAvailability(name),
		})
		return
	}

	SuccessResponse(c, gin.H{
		"service_name":      record.ServiceName,
		"tracked":           true,
		"status":            record.Status,
		"degradation_level": record.DegradationLevel.String(),
		"error_count":       record.ErrorCount,
		"response_time_ms":  record.ResponseTime.Milliseconds(),
		"message":           record.Message,
		"last_updated":      record.LastUpdated,
		"available":         h.orchestrator.CheckServiceAvailability(name),
	})
}
