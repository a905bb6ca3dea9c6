package datastore

import (
	"time"
)

// Experiment statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Experiment is a tracked experiment owned by a user
type Experiment struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	Name           string                 `json:"name"`
	ExperimentType string                 `json:"experiment_type"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Result holds the recorded output of one experiment run
type Result struct {
	ID              string                   `json:"id"`
	ExperimentID    string                   `json:"experiment_id"`
	DataPoints      []map[string]interface{} `json:"data_points,omitempty"`
	Metrics         map[string]float64       `json:"metrics,omitempty"`
	AnalysisSummary string                   `json:"analysis_summary,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// DashboardSummary aggregates a user's experiments for the dashboard view
type DashboardSummary struct {
	TotalExperiments    int                `json:"total_experiments"`
	ExperimentsByType   map[string]int     `json:"experiments_by_type"`
	ExperimentsByStatus map[string]int     `json:"experiments_by_status"`
	RecentExperiments   []Experiment       `json:"recent_experiments"`
	AverageMetrics      map[string]float64 `json:"average_metrics,omitempty"`
	CompletionRate      float64            `json:"completion_rate"`
	LastUpdated         time.Time          `json:"last_updated"`
}
