package supabase

import (
	"context"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

const (
	tableExperiments = "experiments"
	tableResults     = "results"
)

// Backend implements datastore.Backend on Supabase's PostgREST API
type Backend struct {
	client *Client
}

// NewBackend creates the Supabase-backed data source
func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

// SelectExperiments returns a user's experiments, newest first
func (b *Backend) SelectExperiments(ctx context.Context, userID string, limit int) ([]datastore.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var experiments []datastore.Experiment
	_, err := b.client.Raw().From(tableExperiments).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&experiments)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return experiments, nil
}

// SelectExperiment returns one experiment by id
func (b *Backend) SelectExperiment(ctx context.Context, experimentID string) (*datastore.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var experiments []datastore.Experiment
	_, err := b.client.Raw().From(tableExperiments).
		Select("*", "", false).
		Eq("id", experimentID).
		Limit(1, "").
		ExecuteTo(&experiments)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(experiments) == 0 {
		return nil, errors.NewNotFoundError("experiment")
	}
	return &experiments[0], nil
}

// InsertExperiment writes a new experiment and returns the stored row
func (b *Backend) InsertExperiment(ctx context.Context, experiment *datastore.Experiment) (*datastore.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	experiment.CreatedAt = now
	experiment.UpdatedAt = now

	var inserted []datastore.Experiment
	_, err := b.client.Raw().From(tableExperiments).
		Insert(experiment, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(inserted) == 0 {
		return nil, errors.NewDatabaseError("insert returned no rows")
	}
	return &inserted[0], nil
}

// UpdateExperiment writes changed fields and returns the stored row
func (b *Backend) UpdateExperiment(ctx context.Context, experiment *datastore.Experiment) (*datastore.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	experiment.UpdatedAt = time.Now().UTC()

	var updated []datastore.Experiment
	_, err := b.client.Raw().From(tableExperiments).
		Update(experiment, "representation", "").
		Eq("id", experiment.ID).
		ExecuteTo(&updated)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(updated) == 0 {
		return nil, errors.NewNotFoundError("experiment")
	}
	return &updated[0], nil
}

// DeleteExperiment removes an experiment; its results cascade at the
// database level.
func (b *Backend) DeleteExperiment(ctx context.Context, experimentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := b.client.Raw().From(tableExperiments).
		Delete("", "").
		Eq("id", experimentID).
		Execute()
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// SelectResults returns the results recorded for an experiment
func (b *Backend) SelectResults(ctx context.Context, experimentID string) ([]datastore.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []datastore.Result
	_, err := b.client.Raw().From(tableResults).
		Select("*", "", false).
		Eq("experiment_id", experimentID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&results)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return results, nil
}

// InsertResult records a result row and returns the stored row
func (b *Backend) InsertResult(ctx context.Context, result *datastore.Result) (*datastore.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.CreatedAt = time.Now().UTC()

	var inserted []datastore.Result
	_, err := b.client.Raw().From(tableResults).
		Insert(result, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(inserted) == 0 {
		return nil, errors.NewDatabaseError("insert returned no rows")
	}
	return &inserted[0], nil
}
