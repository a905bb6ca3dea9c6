package datastore

import (
	"context"
	"fmt"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

// ListResults returns the recorded results for an experiment
func (s *Store) ListResults(ctx context.Context, experimentID string) ([]Result, error) {
	if experimentID == "" {
		return nil, errors.NewValidationError("experiment id is required")
	}

	key := fmt.Sprintf("results:%s:list", experimentID)

	var results []Result
	if s.cache.Get(ctx, key, &results) {
		return results, nil
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.SelectResults(ctx, experimentID)
	})
	if err == nil {
		results = result.([]Result)
		s.cache.Set(ctx, key, results, s.cacheTTL)
		return results, nil
	}

	if s.serveStale(ctx, key, &results, err) {
		return results, nil
	}
	return nil, err
}

// AddResult records a result for an experiment. The owner id scopes the
// dashboard invalidation that cascades from the write.
func (s *Store) AddResult(ctx context.Context, ownerID string, result *Result) (*Result, error) {
	if result == nil || result.ExperimentID == "" {
		return nil, errors.NewValidationError("result experiment id is required")
	}

	inserted, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.InsertResult(ctx, result)
	})
	if err != nil {
		return nil, err
	}

	created := inserted.(*Result)
	s.invalidator.InvalidateFor(ctx, cache.EntityResult, ownerID, created.ExperimentID)
	return created, nil
}
