package api

import (
	"context"
	"sync"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

// memoryBackend is an in-memory datastore.Backend for handler tests
type memoryBackend struct {
	mu          sync.Mutex
	experiments map[string]datastore.Experiment
	results     map[string][]datastore.Result
	failWith    error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		experiments: make(map[string]datastore.Experiment),
		results:     make(map[string][]datastore.Result),
	}
}

func (m *memoryBackend) SelectExperiments(ctx context.Context, userID string, limit int) ([]datastore.Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	var out []datastore.Experiment
	for _, e := range m.experiments {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryBackend) SelectExperiment(ctx context.Context, experimentID string) (*datastore.Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	e, ok := m.experiments[experimentID]
	if !ok {
		return nil, errors.NewNotFoundError("experiment")
	}
	return &e, nil
}

func (m *memoryBackend) InsertExperiment(ctx context.Context, experiment *datastore.Experiment) (*datastore.Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	m.experiments[experiment.ID] = *experiment
	stored := *experiment
	return &stored, nil
}

func (m *memoryBackend) UpdateExperiment(ctx context.Context, experiment *datastore.Experiment) (*datastore.Experiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	if _, ok := m.experiments[experiment.ID]; !ok {
		return nil, errors.NewNotFoundError("experiment")
	}
	m.experiments[experiment.ID] = *experiment
	stored := *experiment
	return &stored, nil
}

func (m *memoryBackend) DeleteExperiment(ctx context.Context, experimentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}

	if _, ok := m.experiments[experimentID]; !ok {
		return errors.NewNotFoundError("experiment")
	}
	delete(m.experiments, experimentID)
	delete(m.results, experimentID)
	return nil
}

func (m *memoryBackend) SelectResults(ctx context.Context, experimentID string) ([]datastore.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.results[experimentID], nil
}

func (m *memoryBackend) InsertResult(ctx context.Context, result *datastore.Result) (*datastore.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	m.results[result.ExperimentID] = append(m.results[result.ExperimentID], *result)
	stored := *result
	return &stored, nil
}
