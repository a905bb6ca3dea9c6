package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
)

// DashboardHandler serves the aggregated dashboard view
type DashboardHandler struct {
	store *datastore.Store
}

// NewDashboardHandler creates the dashboard handler
func NewDashboardHandler(store *datastore.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// GetSummary returns the caller's dashboard. Degraded, stale and partial
// responses still return 200 with the flags set so clients can annotate
// the view rather than fail it.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	resp, err := h.store.GetDashboardSummary(c.Request.Context(), uid)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if resp.ServiceDegraded {
		c.Header("X-Service-Degraded", "true")
	}
	SuccessResponse(c, resp)
}
