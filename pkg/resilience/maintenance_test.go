package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMaintenance() (*MaintenanceController, *time.Time) {
	now := time.Now()
	mc := NewMaintenanceController()
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMaintenanceDisabledByDefault(t *testing.T) {
	mc, _ := newTestMaintenance()

	assert.False(t, mc.IsEnabled(""))
	assert.False(t, mc.IsEnabled("database"))
	assert.False(t, mc.GetInfo().Enabled)
}

func TestMaintenanceGlobalWindow(t *testing.T) {
	mc, _ := newTestMaintenance()

	mc.Enable("upgrading storage", time.Hour, nil)

	assert.True(t, mc.IsEnabled(""))
	assert.True(t, mc.IsEnabled("database"))
	assert.True(t, mc.IsEnabled("anything"))
}

func TestMaintenanceScopedWindow(t *testing.T) {
	mc, _ := newTestMaintenance()

	mc.Enable("database migration", time.Hour, []string{"database"})

	assert.True(t, mc.IsEnabled("database"))
	assert.False(t, mc.IsEnabled("cache"))
	// The bare question "is maintenance on" is answered yes
	assert.True(t, mc.IsEnabled(""))
}

func TestMaintenanceDisable(t *testing.T) {
	mc, _ := newTestMaintenance()
	mc.Enable("upgrade", time.Hour, nil)

	mc.Disable()

	assert.False(t, mc.IsEnabled(""))
	assert.False(t, mc.GetInfo().Enabled)
}

func TestMaintenanceAutoExpiry(t *testing.T) {
	mc, now := newTestMaintenance()
	mc.Enable("short window", 10*time.Minute, nil)

	*now = now.Add(9 * time.Minute)
	assert.True(t, mc.IsEnabled("database"))

	*now = now.Add(2 * time.Minute)
	assert.False(t, mc.IsEnabled("database"))

	// The expired window is fully cleared, not just suppressed
	assert.False(t, mc.GetInfo().Enabled)
}

func TestMaintenanceZeroDurationNeverExpires(t *testing.T) {
	mc, now := newTestMaintenance()
	mc.Enable("until further notice", 0, nil)

	*now = now.Add(240 * time.Hour)
	assert.True(t, mc.IsEnabled("database"))
}

func TestMaintenanceGetInfo(t *testing.T) {
	mc, now := newTestMaintenance()
	started := *now
	mc.Enable("patching", time.Hour, []string{"database", "cache"})

	*now = now.Add(15 * time.Minute)
	info := mc.GetInfo()

	require.True(t, info.Enabled)
	assert.Equal(t, "patching", info.Message)
	assert.Equal(t, started, info.StartedAt)
	assert.Equal(t, time.Hour, info.Duration)
	assert.Equal(t, 45*time.Minute, info.Remaining)
	assert.ElementsMatch(t, []string{"database", "cache"}, info.AffectedServices)
}

func TestMaintenanceReEnableReplacesWindow(t *testing.T) {
	mc, _ := newTestMaintenance()
	mc.Enable("first", time.Hour, []string{"database"})
	mc.Enable("second", 2*time.Hour, nil)

	info := mc.GetInfo()
	assert.Equal(t, "second", info.Message)
	assert.Empty(t, info.AffectedServices)
	assert.True(t, mc.IsEnabled("cache"))
}
