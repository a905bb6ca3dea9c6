package resilience

import (
	"sync"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// ServiceStatus represents the reported status of a named service
type ServiceStatus string

const (
	StatusHealthy     ServiceStatus = "healthy"
	StatusDegraded    ServiceStatus = "degraded"
	StatusUnavailable ServiceStatus = "unavailable"
)

// statusRank orders statuses for worst-of aggregation
func statusRank(s ServiceStatus) int {
	switch s {
	case StatusUnavailable:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// DegradationLevel represents the severity tier derived from health metrics
type DegradationLevel int

const (
	LevelNone DegradationLevel = iota
	LevelMinor
	LevelModerate
	LevelCritical
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelMinor:
		return "MINOR"
	case LevelModerate:
		return "MODERATE"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Degradation thresholds. A service crosses into a level when its error
// count or response time reaches the corresponding bound.
const (
	MinorErrorCountThreshold      = 10
	ModerateErrorCountThreshold   = 25
	MinorResponseTimeThreshold    = 2000 * time.Millisecond
	ModerateResponseTimeThreshold = 5000 * time.Millisecond
)

// ServiceHealth is the tracked health record for one named service.
// One record per name; created on first report, updated thereafter.
type ServiceHealth struct {
	ServiceName      string            `json:"service_name"`
	Status           ServiceStatus     `json:"status"`
	DegradationLevel DegradationLevel  `json:"degradation_level"`
	ErrorCount       int               `json:"error_count"`
	ResponseTime     time.Duration     `json:"response_time"`
	Message          string            `json:"message,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// SystemHealth is the aggregate snapshot across all tracked services
type SystemHealth struct {
	Status           ServiceStatus             `json:"status"`
	DegradationLevel DegradationLevel          `json:"degradation_level"`
	Services         map[string]*ServiceHealth `json:"services"`
	Timestamp        time.Time                 `json:"timestamp"`
}

// HealthMonitor tracks per-service health and derives degradation levels.
// Records are never implicitly deleted.
type HealthMonitor struct {
	mutex       sync.RWMutex
	services    map[string]*ServiceHealth
	maintenance *MaintenanceController
	logger      *logging.Logger
}

// NewHealthMonitor creates a health monitor. maintenance may be nil when no
// maintenance gating is wanted (tests).
func NewHealthMonitor(maintenance *MaintenanceController) *HealthMonitor {
	return &HealthMonitor{
		services:    make(map[string]*ServiceHealth),
		maintenance: maintenance,
		logger:      logging.GetLogger(),
	}
}

// UpdateServiceHealth upserts the health record for a service, recomputing
// its degradation level, and returns a copy of the stored record.
func (hm *HealthMonitor) UpdateServiceHealth(name string, status ServiceStatus, errorCount int, responseTime time.Duration, message string, details map[string]string) *ServiceHealth {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	record, exists := hm.services[name]
	if !exists {
		record = &ServiceHealth{ServiceName: name}
		hm.services[name] = record
	}

	record.Status = status
	record.ErrorCount = errorCount
	record.ResponseTime = responseTime
	record.Message = message
	record.Details = details
	record.LastUpdated = time.Now()
	record.DegradationLevel = deriveDegradationLevel(status, errorCount, responseTime)

	hm.logger.Debug("Service health updated",
		"service", name,
		"status", string(status),
		"degradation_level", record.DegradationLevel.String(),
		"error_count", errorCount,
		"response_time", responseTime,
	)

	return copyHealth(record)
}

// RecordError marks a service degraded and increments its error count,
// keeping the previously reported response time.
func (hm *HealthMonitor) RecordError(name, message string) *ServiceHealth {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	record, exists := hm.services[name]
	if !exists {
		record = &ServiceHealth{ServiceName: name}
		hm.services[name] = record
	}

	record.Status = StatusDegraded
	record.ErrorCount++
	record.Message = message
	record.LastUpdated = time.Now()
	record.DegradationLevel = deriveDegradationLevel(record.Status, record.ErrorCount, record.ResponseTime)

	return copyHealth(record)
}

// MarkUnavailable forces a service to unavailable/critical
func (hm *HealthMonitor) MarkUnavailable(name, message string) *ServiceHealth {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	record, exists := hm.services[name]
	if !exists {
		record = &ServiceHealth{ServiceName: name}
		hm.services[name] = record
	}

	record.Status = StatusUnavailable
	record.ErrorCount++
	record.Message = message
	record.LastUpdated = time.Now()
	record.DegradationLevel = LevelCritical

	hm.logger.Warn("Service marked unavailable", "service", name, "message", message)

	return copyHealth(record)
}

// RecordRecovery resets a service to healthy with a zero error count
func (hm *HealthMonitor) RecordRecovery(name string) *ServiceHealth {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	record, exists := hm.services[name]
	if !exists {
		record = &ServiceHealth{ServiceName: name}
		hm.services[name] = record
	}

	record.Status = StatusHealthy
	record.ErrorCount = 0
	record.Message = ""
	record.LastUpdated = time.Now()
	record.DegradationLevel = deriveDegradationLevel(record.Status, 0, record.ResponseTime)

	return copyHealth(record)
}

// GetServiceHealth returns a copy of the health record for a service
func (hm *HealthMonitor) GetServiceHealth(name string) (*ServiceHealth, bool) {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	record, exists := hm.services[name]
	if !exists {
		return nil, false
	}
	return copyHealth(record), true
}

// GetOverallHealth aggregates the worst status and worst degradation level
// across all tracked services.
func (hm *HealthMonitor) GetOverallHealth() *SystemHealth {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	snapshot := &SystemHealth{
		Status:    StatusHealthy,
		Services:  make(map[string]*ServiceHealth, len(hm.services)),
		Timestamp: time.Now(),
	}

	for name, record := range hm.services {
		snapshot.Services[name] = copyHealth(record)
		if statusRank(record.Status) > statusRank(snapshot.Status) {
			snapshot.Status = record.Status
		}
		if record.DegradationLevel > snapshot.DegradationLevel {
			snapshot.DegradationLevel = record.DegradationLevel
		}
	}

	return snapshot
}

// CheckServiceAvailability reports whether a service may be called: false
// iff it is unavailable or currently under maintenance. Unknown services
// are assumed available.
func (hm *HealthMonitor) CheckServiceAvailability(name string) bool {
	if hm.maintenance != nil && hm.maintenance.IsEnabled(name) {
		return false
	}

	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	record, exists := hm.services[name]
	if !exists {
		return true
	}
	return record.Status != StatusUnavailable
}

func deriveDegradationLevel(status ServiceStatus, errorCount int, responseTime time.Duration) DegradationLevel {
	switch status {
	case StatusUnavailable:
		return LevelCritical
	case StatusDegraded:
		if errorCount >= ModerateErrorCountThreshold || responseTime >= ModerateResponseTimeThreshold {
			return LevelModerate
		}
		return LevelMinor
	default:
		if errorCount >= MinorErrorCountThreshold || responseTime >= MinorResponseTimeThreshold {
			return LevelMinor
		}
		return LevelNone
	}
}

func copyHealth(record *ServiceHealth) *ServiceHealth {
	clone := *record
	if record.Details != nil {
		clone.Details = make(map[string]string, len(record.Details))
		for k, v := range record.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}
