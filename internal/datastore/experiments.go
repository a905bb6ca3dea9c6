package datastore

import (
	"context"
	"fmt"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

// ListExperiments returns a user's experiments, newest first. Live cache
// entries are served directly; after a terminal store failure a stale entry
// within its grace window is served instead.
func (s *Store) ListExperiments(ctx context.Context, userID string, limit int) ([]Experiment, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	key := fmt.Sprintf("experiments:%s:list:%d", userID, limit)

	var experiments []Experiment
	if s.cache.Get(ctx, key, &experiments) {
		return experiments, nil
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.SelectExperiments(ctx, userID, limit)
	})
	if err == nil {
		experiments = result.([]Experiment)
		s.cache.Set(ctx, key, experiments, s.cacheTTL)
		return experiments, nil
	}

	if s.serveStale(ctx, key, &experiments, err) {
		return experiments, nil
	}
	return nil, err
}

// GetExperiment returns one experiment by id, scoped to its owner
func (s *Store) GetExperiment(ctx context.Context, userID, experimentID string) (*Experiment, error) {
	if experimentID == "" {
		return nil, errors.NewValidationError("experiment id is required")
	}

	key := fmt.Sprintf("experiment:%s:detail", experimentID)

	var experiment Experiment
	if s.cache.Get(ctx, key, &experiment) {
		return s.checkOwner(&experiment, userID)
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.SelectExperiment(ctx, experimentID)
	})
	if err == nil {
		found := result.(*Experiment)
		s.cache.Set(ctx, key, found, s.cacheTTL)
		return s.checkOwner(found, userID)
	}

	if s.serveStale(ctx, key, &experiment, err) {
		return s.checkOwner(&experiment, userID)
	}
	return nil, err
}

// CreateExperiment writes a new experiment and invalidates the owner's
// cached views.
func (s *Store) CreateExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error) {
	if experiment == nil || experiment.UserID == "" || experiment.Name == "" {
		return nil, errors.NewValidationError("experiment owner and name are required")
	}
	if experiment.Status == "" {
		experiment.Status = StatusPending
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.InsertExperiment(ctx, experiment)
	})
	if err != nil {
		return nil, err
	}

	created := result.(*Experiment)
	s.invalidator.InvalidateFor(ctx, cache.EntityExperiment, created.UserID, created.ID)
	return created, nil
}

// UpdateExperiment writes changed fields and invalidates affected views
func (s *Store) UpdateExperiment(ctx context.Context, experiment *Experiment) (*Experiment, error) {
	if experiment == nil || experiment.ID == "" {
		return nil, errors.NewValidationError("experiment id is required")
	}

	result, err := s.execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.backend.UpdateExperiment(ctx, experiment)
	})
	if err != nil {
		return nil, err
	}

	updated := result.(*Experiment)
	s.invalidator.InvalidateFor(ctx, cache.EntityExperiment, updated.UserID, updated.ID)
	return updated, nil
}

// DeleteExperiment removes an experiment and every cached view that could
// still show it, including its results.
func (s *Store) DeleteExperiment(ctx context.Context, userID, experimentID string) error {
	if experimentID == "" {
		return errors.NewValidationError("experiment id is required")
	}

	err := s.executor.ExecuteVoid(ctx, func(ctx context.Context) error {
		return s.backend.DeleteExperiment(ctx, experimentID)
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateFor(ctx, cache.EntityResult, userID, experimentID)
	return nil
}

func (s *Store) checkOwner(experiment *Experiment, userID string) (*Experiment, error) {
	if userID != "" && experiment.UserID != userID {
		return nil, errors.NewAuthorizationError("experiment belongs to another user")
	}
	return experiment, nil
}
