package resilience

import (
	"fmt"
	"sync"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// Fallback sources
const (
	FallbackSourceStatic    = "static"
	FallbackSourceGenerated = "generated"
)

// FallbackGenerator produces substitute data lazily at request time from
// caller-supplied context (e.g. the owner id).
type FallbackGenerator func(context map[string]interface{}) (interface{}, error)

// FallbackRecord is substitute data served when the primary source is
// unavailable, tagged with a confidence score and source label.
type FallbackRecord struct {
	DataType   string      `json:"data_type"`
	Data       interface{} `json:"data"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source"`
}

type fallbackEntry struct {
	data       interface{}
	confidence float64
	source     string
	generator  FallbackGenerator
}

// FallbackProvider supplies substitute data per data type when the primary
// source is unavailable. One active registration per data type;
// re-registration overwrites.
type FallbackProvider struct {
	mutex   sync.RWMutex
	entries map[string]*fallbackEntry
	logger  *logging.Logger
}

// NewFallbackProvider creates a provider seeded with the built-in last-resort
// fallbacks.
func NewFallbackProvider() *FallbackProvider {
	fp := &FallbackProvider{
		entries: make(map[string]*fallbackEntry),
		logger:  logging.GetLogger(),
	}

	// Last-resort dashboard summary so the dashboard endpoint always has
	// something to serve.
	fp.RegisterStaticFallback("dashboard_summary", map[string]interface{}{
		"total_experiments":  0,
		"recent_experiments": []interface{}{},
		"fallback_data":      true,
	}, 0.1)

	return fp
}

// RegisterStaticFallback registers fixed substitute data for a data type
func (fp *FallbackProvider) RegisterStaticFallback(dataType string, data interface{}, confidence float64) {
	fp.mutex.Lock()
	defer fp.mutex.Unlock()

	fp.entries[dataType] = &fallbackEntry{
		data:       data,
		confidence: clampConfidence(confidence),
		source:     FallbackSourceStatic,
	}
}

// RegisterFallbackGenerator registers a lazy generator for a data type
func (fp *FallbackProvider) RegisterFallbackGenerator(dataType string, confidence float64, generator FallbackGenerator) {
	fp.mutex.Lock()
	defer fp.mutex.Unlock()

	fp.entries[dataType] = &fallbackEntry{
		confidence: clampConfidence(confidence),
		source:     FallbackSourceGenerated,
		generator:  generator,
	}
}

// GetFallbackData returns the fallback record for a data type, invoking the
// generator with the given context when one is registered. Generator errors
// and panics are absorbed and treated as "no fallback available".
func (fp *FallbackProvider) GetFallbackData(dataType string, context map[string]interface{}) (record *FallbackRecord, ok bool) {
	fp.mutex.RLock()
	entry, exists := fp.entries[dataType]
	fp.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	data := entry.data
	if entry.generator != nil {
		defer func() {
			if r := recover(); r != nil {
				fp.logger.Error("Fallback generator panicked",
					"data_type", dataType,
					"panic", fmt.Sprintf("%v", r),
				)
				record, ok = nil, false
			}
		}()

		generated, err := entry.generator(context)
		if err != nil {
			fp.logger.Warn("Fallback generator failed",
				"data_type", dataType,
				"error", err.Error(),
			)
			return nil, false
		}
		data = generated
	}

	return &FallbackRecord{
		DataType:   dataType,
		Data:       data,
		Confidence: entry.confidence,
		Source:     entry.source,
	}, true
}

// HasFallback reports whether a fallback is registered for a data type
func (fp *FallbackProvider) HasFallback(dataType string) bool {
	fp.mutex.RLock()
	defer fp.mutex.RUnlock()
	_, exists := fp.entries[dataType]
	return exists
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
