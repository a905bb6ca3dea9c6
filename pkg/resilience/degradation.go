package resilience

import (
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// PartialDataCacheTTL is the reduced TTL recommended for caching results
// assembled while some sub-operations failed, so incomplete data ages out
// quickly.
const PartialDataCacheTTL = 60 * time.Second

// FallbackInfo describes the substitute data in a degraded response
type FallbackInfo struct {
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// DegradedResponse is the uniform shape returned when a service failure was
// absorbed by serving fallback data.
type DegradedResponse struct {
	Data            interface{}  `json:"data"`
	ServiceDegraded bool         `json:"service_degraded"`
	FallbackInfo    FallbackInfo `json:"fallback_info"`
}

// PartialResult is produced when some sub-operations succeeded and others
// failed. It is a result shape, not a failure of the core.
type PartialResult struct {
	Data             interface{}   `json:"data"`
	FailedOperations []string      `json:"failed_operations"`
	RecommendedTTL   time.Duration `json:"recommended_ttl"`
}

// NewPartialResult builds a partial result carrying the failed sub-operation
// names and the reduced cache-TTL recommendation.
func NewPartialResult(data interface{}, failedOperations []string) *PartialResult {
	return &PartialResult{
		Data:             data,
		FailedOperations: failedOperations,
		RecommendedTTL:   PartialDataCacheTTL,
	}
}

// Orchestrator composes the health monitor, maintenance controller and
// fallback provider into a uniform degraded-response policy.
type Orchestrator struct {
	monitor     *HealthMonitor
	maintenance *MaintenanceController
	fallbacks   *FallbackProvider
	onFallback  func(serviceName, dataType string)
	logger      *logging.Logger
}

// NewOrchestrator wires the degradation components together
func NewOrchestrator(monitor *HealthMonitor, maintenance *MaintenanceController, fallbacks *FallbackProvider) *Orchestrator {
	return &Orchestrator{
		monitor:     monitor,
		maintenance: maintenance,
		fallbacks:   fallbacks,
		logger:      logging.GetLogger(),
	}
}

// SetOnFallback registers a hook invoked whenever fallback data is served
// in place of a failed operation. Set once during wiring, before use.
func (o *Orchestrator) SetOnFallback(fn func(serviceName, dataType string)) {
	o.onFallback = fn
}

// Monitor returns the health monitor
func (o *Orchestrator) Monitor() *HealthMonitor {
	return o.monitor
}

// Maintenance returns the maintenance controller
func (o *Orchestrator) Maintenance() *MaintenanceController {
	return o.maintenance
}

// Fallbacks returns the fallback provider
func (o *Orchestrator) Fallbacks() *FallbackProvider {
	return o.fallbacks
}

// CheckServiceAvailability reports whether a service may be called; both the
// health monitor and the maintenance controller must pass.
func (o *Orchestrator) CheckServiceAvailability(name string) bool {
	if o.maintenance.IsEnabled(name) {
		return false
	}
	return o.monitor.CheckServiceAvailability(name)
}

// HandleServiceFailure records the failure into the health monitor and
// attempts a fallback lookup. A circuit-open error forces the service to
// unavailable/critical; retryable failures mark it degraded. When no
// fallback is registered for the data type the original error is returned
// and the caller decides the boundary-level response.
func (o *Orchestrator) HandleServiceFailure(serviceName, dataType string, err error, context map[string]interface{}) (*DegradedResponse, error) {
	switch {
	case errors.IsType(err, errors.ErrorTypeCircuitOpen):
		o.monitor.MarkUnavailable(serviceName, err.Error())
	case errors.IsRetryable(err):
		o.monitor.RecordError(serviceName, err.Error())
	default:
		// Unclassified failures still count against the service
		o.monitor.RecordError(serviceName, err.Error())
	}

	record, ok := o.fallbacks.GetFallbackData(dataType, context)
	if !ok {
		o.logger.Error("Service failure with no fallback available",
			"service", serviceName,
			"data_type", dataType,
			"error", err.Error(),
		)
		return nil, err
	}

	o.logger.Warn("Serving fallback data for failed service",
		"service", serviceName,
		"data_type", dataType,
		"source", record.Source,
		"confidence", record.Confidence,
	)
	if o.onFallback != nil {
		o.onFallback(serviceName, dataType)
	}

	return &DegradedResponse{
		Data:            record.Data,
		ServiceDegraded: true,
		FallbackInfo: FallbackInfo{
			Confidence: record.Confidence,
			Source:     record.Source,
		},
	}, nil
}
