package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

// ExperimentsHandler serves experiment and result endpoints
type ExperimentsHandler struct {
	store *datastore.Store
}

// NewExperimentsHandler creates the experiments handler
func NewExperimentsHandler(store *datastore.Store) *ExperimentsHandler {
	return &ExperimentsHandler{store: store}
}

// userID pulls the authenticated user id forwarded by the gateway
func userID(c *gin.Context) (string, error) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		return "", errors.NewAuthenticationError("missing user identity")
	}
	return id, nil
}

// ListExperiments returns the caller's experiments
func (h *ExperimentsHandler) ListExperiments(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			ErrorResponse(c, errors.NewValidationError("limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	experiments, err := h.store.ListExperiments(c.Request.Context(), uid, limit)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"experiments": experiments, "count": len(experiments)})
}

// GetExperiment returns one experiment owned by the caller
func (h *ExperimentsHandler) GetExperiment(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	experiment, err := h.store.GetExperiment(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, experiment)
}

type createExperimentRequest struct {
	Name           string                 `json:"name" binding:"required"`
	ExperimentType string                 `json:"experiment_type" binding:"required"`
	Parameters     map[string]interface{} `json:"parameters"`
	Status         string                 `json:"status"`
}

// CreateExperiment records a new experiment for the caller
func (h *ExperimentsHandler) CreateExperiment(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req createExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, errors.NewValidationError("invalid experiment payload").WithCause(err))
		return
	}

	created, err := h.store.CreateExperiment(c.Request.Context(), &datastore.Experiment{
		ID:             uuid.New().String(),
		UserID:         uid,
		Name:           req.Name,
		ExperimentType: req.ExperimentType,
		Parameters:     req.Parameters,
		Status:         req.Status,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, created)
}

type updateExperimentRequest struct {
	Name       string                 `json:"name"`
	Status     string                 `json:"status"`
	Parameters map[string]interface{} `json:"parameters"`
}

// UpdateExperiment updates an experiment owned by the caller
func (h *ExperimentsHandler) UpdateExperiment(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	existing, err := h.store.GetExperiment(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req updateExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, errors.NewValidationError("invalid experiment payload").WithCause(err))
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	if req.Parameters != nil {
		existing.Parameters = req.Parameters
	}

	updated, err := h.store.UpdateExperiment(c.Request.Context(), existing)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, updated)
}

// DeleteExperiment removes an experiment owned by the caller
func (h *ExperimentsHandler) DeleteExperiment(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	// Ownership check before the delete goes through
	if _, err := h.store.GetExperiment(c.Request.Context(), uid, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}

	if err := h.store.DeleteExperiment(c.Request.Context(), uid, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"deleted": true})
}

// ListResults returns the results for an experiment owned by the caller
func (h *ExperimentsHandler) ListResults(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if _, err := h.store.GetExperiment(c.Request.Context(), uid, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}

	results, err := h.store.ListResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"results": results, "count": len(results)})
}

type addResultRequest struct {
	DataPoints      []map[string]interface{} `json:"data_points"`
	Metrics         map[string]float64       `json:"metrics"`
	AnalysisSummary string                   `json:"analysis_summary"`
}

// AddResult records a result for an experiment owned by the caller
func (h *ExperimentsHandler) AddResult(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if _, err := h.store.GetExperiment(c.Request.Context(), uid, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}

	var req addResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, errors.NewValidationError("invalid result payload").WithCause(err))
		return
	}

	created, err := h.store.AddResult(c.Request.Context(), uid, &datastore.Result{
		ID:              uuid.New().String(),
		ExperimentID:    c.Param("id"),
		DataPoints:      req.DataPoints,
		Metrics:         req.Metrics,
		AnalysisSummary: req.AnalysisSummary,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, created)
}
