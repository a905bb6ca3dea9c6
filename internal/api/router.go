package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/metrics"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

// Deps carries everything the router wires into handlers
type Deps struct {
	Config       *config.Config
	Store        *datastore.Store
	Cache        *cache.Service
	Orchestrator *resilience.Orchestrator
	Breaker      *resilience.CircuitBreaker
	Metrics      *metrics.Metrics
}

// NewRouter creates and configures the API router
func NewRouter(deps Deps) *gin.Engine {
	if deps.Config != nil && deps.Config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(RecoveryMiddleware())

	healthHandler := NewHealthHandler(deps.Orchestrator, deps.Breaker, deps.Cache)
	adminHandler := NewAdminHandler(deps.Orchestrator, deps.Breaker, deps.Metrics)
	experimentsHandler := NewExperimentsHandler(deps.Store)
	dashboardHandler := NewDashboardHandler(deps.Store)

	router.GET("/health", healthHandler.GetSystemHealth)
	router.GET("/health/services/:name", healthHandler.GetServiceHealth)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	admin := router.Group("/admin")
	{
		admin.PUT("/services/:name/status", adminHandler.UpdateServiceStatus)
		admin.GET("/maintenance", adminHandler.GetMaintenance)
		admin.POST("/maintenance", adminHandler.EnableMaintenance)
		admin.DELETE("/maintenance", adminHandler.DisableMaintenance)
		admin.POST("/breaker/reset", adminHandler.ResetBreaker)
	}

	v1 := router.Group("/api/v1")
	{
		experiments := v1.Group("/experiments")
		{
			experiments.GET("", experimentsHandler.ListExperiments)
			experiments.POST("", experimentsHandler.CreateExperiment)
			experiments.GET("/:id", experimentsHandler.GetExperiment)
			experiments.PUT("/:id", experimentsHandler.UpdateExperiment)
			experiments.DELETE("/:id", experimentsHandler.DeleteExperiment)
			experiments.GET("/:id/results", experimentsHandler.ListResults)
			experiments.POST("/:id/results", experimentsHandler.AddResult)
		}

		v1.GET("/dashboard/summary", dashboardHandler.GetSummary)
	}

	return router
}
