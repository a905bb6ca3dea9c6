package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

func TestBuiltInDashboardFallback(t *testing.T) {
	fp := NewFallbackProvider()

	record, ok := fp.GetFallbackData("dashboard_summary", nil)
	require.True(t, ok)

	assert.Equal(t, FallbackSourceStatic, record.Source)
	assert.Equal(t, 0.1, record.Confidence)

	data, isMap := record.Data.(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, 0, data["total_experiments"])
	assert.Equal(t, true, data["fallback_data"])
}

func TestStaticFallbackRegistration(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterStaticFallback("experiments", []string{}, 0.5)

	assert.True(t, fp.HasFallback("experiments"))
	assert.False(t, fp.HasFallback("unregistered"))

	record, ok := fp.GetFallbackData("experiments", nil)
	require.True(t, ok)
	assert.Equal(t, 0.5, record.Confidence)
	assert.Equal(t, "experiments", record.DataType)
}

func TestGeneratorReceivesContext(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterFallbackGenerator("user_summary", 0.7, func(ctx map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"user_id": ctx["user_id"], "empty": true}, nil
	})

	record, ok := fp.GetFallbackData("user_summary", map[string]interface{}{"user_id": "user-1"})
	require.True(t, ok)

	assert.Equal(t, FallbackSourceGenerated, record.Source)
	data := record.Data.(map[string]interface{})
	assert.Equal(t, "user-1", data["user_id"])
}

func TestGeneratorErrorMeansNoFallback(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterFallbackGenerator("flaky", 0.5, func(ctx map[string]interface{}) (interface{}, error) {
		return nil, errors.NewInternalError("cannot synthesize")
	})

	record, ok := fp.GetFallbackData("flaky", nil)
	assert.False(t, ok)
	assert.Nil(t, record)
}

func TestGeneratorPanicIsAbsorbed(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterFallbackGenerator("explosive", 0.5, func(ctx map[string]interface{}) (interface{}, error) {
		panic("generator bug")
	})

	record, ok := fp.GetFallbackData("explosive", nil)
	assert.False(t, ok)
	assert.Nil(t, record)
}

func TestUnknownDataTypeHasNoFallback(t *testing.T) {
	fp := NewFallbackProvider()

	record, ok := fp.GetFallbackData("nonexistent", nil)
	assert.False(t, ok)
	assert.Nil(t, record)
}

func TestReRegistrationOverwrites(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterStaticFallback("data", "first", 0.3)
	fp.RegisterStaticFallback("data", "second", 0.6)

	record, ok := fp.GetFallbackData("data", nil)
	require.True(t, ok)
	assert.Equal(t, "second", record.Data)
	assert.Equal(t, 0.6, record.Confidence)
}

func TestConfidenceClamping(t *testing.T) {
	fp := NewFallbackProvider()
	fp.RegisterStaticFallback("too_high", nil, 1.5)
	fp.RegisterStaticFallback("too_low", nil, -0.5)

	high, _ := fp.GetFallbackData("too_high", nil)
	low, _ := fp.GetFallbackData("too_low", nil)

	assert.Equal(t, 1.0, high.Confidence)
	assert.Equal(t, 0.0, low.Confidence)
}
