package ports

import (
	"context"

	"pubstats/domain/core"
	"pubstats/models"
)

// RunRepository defines the interface for archived analysis run operations
type RunRepository interface {
	// SaveRun persists a completed analysis run
	SaveRun(ctx context.Context, run *models.AnalysisRun) error

	// GetRun retrieves an archived run by ID
	GetRun(ctx context.Context, id core.RunID) (*models.AnalysisRun, error)

	// ListRuns returns the most recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error)
}
