package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/metrics"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

// AdminHandler exposes operator controls: health reporting, maintenance
// windows and breaker resets.
type AdminHandler struct {
	orchestrator *resilience.Orchestrator
	breaker      *resilience.CircuitBreaker
	metrics      *metrics.Metrics
}

// NewAdminHandler creates the operator handler
func NewAdminHandler(orch *resilience.Orchestrator, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *AdminHandler {
	return &AdminHandler{
		orchestrator: orch,
		breaker:      breaker,
		metrics:      m,
	}
}

type serviceStatusRequest struct {
	Status         string            `json:"status" binding:"required"`
	ErrorCount     int               `json:"error_count"`
	ResponseTimeMS int64             `json:"response_time_ms"`
	Message        string            `json:"message"`
	Details        map[string]string `json:"details"`
}

// UpdateServiceStatus upserts the health record for a named service
func (h *AdminHandler) UpdateServiceStatus(c *gin.Context) {
	name := c.Param("name")

	var req serviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, errors.NewValidationError("invalid service status payload").WithCause(err))
		return
	}

	status := resilience.ServiceStatus(req.Status)
	switch status {
	case resilience.StatusHealthy, resilience.StatusDegraded, resilience.StatusUnavailable:
	default:
		ErrorResponse(c, errors.NewValidationError("status must be healthy, degraded or unavailable"))
		return
	}

	record := h.orchestrator.Monitor().UpdateServiceHealth(
		name,
		status,
		req.ErrorCount,
		time.Duration(req.ResponseTimeMS)*time.Millisecond,
		req.Message,
		req.Details,
	)

	SuccessResponse(c, record)
}

type maintenanceRequest struct {
	Message          string   `json:"message"`
	DurationSeconds  int64    `json:"duration_seconds"`
	AffectedServices []string `json:"affected_services"`
}

// EnableMaintenance starts a maintenance window
func (h *AdminHandler) EnableMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, errors.NewValidationError("invalid maintenance payload").WithCause(err))
		return
	}

	h.orchestrator.Maintenance().Enable(
		req.Message,
		time.Duration(req.DurationSeconds)*time.Second,
		req.AffectedServices,
	)
	h.metrics.SetMaintenanceMode(true)

	SuccessResponse(c, h.orchestrator.Maintenance().GetInfo())
}

// DisableMaintenance ends the maintenance window
func (h *AdminHandler) DisableMaintenance(c *gin.Context) {
	h.orchestrator.Maintenance().Disable()
	h.metrics.SetMaintenanceMode(false)

	SuccessResponse(c, h.orchestrator.Maintenance().GetInfo())
}

// GetMaintenance returns the current window snapshot
func (h *AdminHandler) GetMaintenance(c *gin.Context) {
	SuccessResponse(c, h.orchestrator.Maintenance().GetInfo())
}

// ResetBreaker forces the circuit breaker back to closed
func (h *AdminHandler) ResetBreaker(c *gin.Context) {
	h.breaker.Reset()
	h.orchestrator.Monitor().RecordRecovery(h.breaker.Name())

	SuccessResponse(c, gin.H{
		"name":  h.breaker.Name(),
		"state": h.breaker.State().String(),
	})
}
