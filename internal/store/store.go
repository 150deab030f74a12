// Package store persists pipeline runs and export jobs locally.
package store

import (
	"context"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Region string          `json:"region,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the cropmask pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, region, year string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Export jobs
	CreateExportJob(ctx context.Context, runID, asset, path string) (*model.ExportJob, error)
	CompleteExportJob(ctx context.Context, jobID string, jobErr error) error
	ListExportJobs(ctx context.Context, limit int) ([]model.ExportJob, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
