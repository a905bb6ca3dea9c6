package resilience

import (
	"sync"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// MaintenanceInfo is a snapshot of the current maintenance window
type MaintenanceInfo struct {
	Enabled          bool          `json:"enabled"`
	Message          string        `json:"message,omitempty"`
	StartedAt        time.Time     `json:"started_at,omitempty"`
	Duration         time.Duration `json:"duration,omitempty"`
	Remaining        time.Duration `json:"remaining,omitempty"`
	AffectedServices []string      `json:"affected_services,omitempty"`
}

// MaintenanceController forces unavailability for a bounded duration,
// independent of measured health. A window with no affected services
// applies globally. Expiry is checked lazily on read; no background sweeper.
type MaintenanceController struct {
	mutex     sync.Mutex
	enabled   bool
	message   string
	startedAt time.Time
	duration  time.Duration
	affected  map[string]struct{}

	logger *logging.Logger
	now    func() time.Time
}

// NewMaintenanceController creates a disabled maintenance controller
func NewMaintenanceController() *MaintenanceController {
	return &MaintenanceController{
		logger: logging.GetLogger(),
		now:    time.Now,
	}
}

// Enable starts a maintenance window. An empty affectedServices slice means
// every service is affected.
func (mc *MaintenanceController) Enable(message string, duration time.Duration, affectedServices []string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.enabled = true
	mc.message = message
	mc.startedAt = mc.now()
	mc.duration = duration
	mc.affected = make(map[string]struct{}, len(affectedServices))
	for _, name := range affectedServices {
		mc.affected[name] = struct{}{}
	}

	mc.logger.Info("Maintenance mode enabled",
		"message", message,
		"duration", duration,
		"affected_services", affectedServices,
	)
}

// Disable ends the maintenance window
func (mc *MaintenanceController) Disable() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if mc.enabled {
		mc.logger.Info("Maintenance mode disabled")
	}
	mc.clearLocked()
}

// IsEnabled reports whether the given service is under maintenance. An empty
// service name asks about global maintenance. Expired windows are cleared as
// a side effect.
func (mc *MaintenanceController) IsEnabled(serviceName string) bool {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if !mc.activeLocked() {
		return false
	}

	if len(mc.affected) == 0 {
		return true
	}
	if serviceName == "" {
		return true
	}
	_, affected := mc.affected[serviceName]
	return affected
}

// GetInfo returns a snapshot of the window, reflecting lazy expiry
func (mc *MaintenanceController) GetInfo() MaintenanceInfo {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if !mc.activeLocked() {
		return MaintenanceInfo{Enabled: false}
	}

	info := MaintenanceInfo{
		Enabled:   true,
		Message:   mc.message,
		StartedAt: mc.startedAt,
		Duration:  mc.duration,
		Remaining: mc.duration - mc.now().Sub(mc.startedAt),
	}
	for name := range mc.affected {
		info.AffectedServices = append(info.AffectedServices, name)
	}
	return info
}

// activeLocked checks the window and clears it once the duration has
// elapsed. Must be called with the mutex held.
func (mc *MaintenanceController) activeLocked() bool {
	if !mc.enabled {
		return false
	}
	if mc.duration > 0 && mc.now().Sub(mc.startedAt) >= mc.duration {
		mc.logger.Info("Maintenance window expired", "started_at", mc.startedAt)
		mc.clearLocked()
		return false
	}
	return true
}

func (mc *MaintenanceController) clearLocked() {
	mc.enabled = false
	mc.message = ""
	mc.startedAt = time.Time{}
	mc.duration = 0
	mc.affected = nil
}
