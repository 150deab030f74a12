package model

import "time"

// RunStatus tracks a pipeline run through its stages.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusLoading    RunStatus = "loading"
	RunStatusSampling   RunStatus = "sampling"
	RunStatusTraining   RunStatus = "training"
	RunStatusEvaluating RunStatus = "evaluating"
	RunStatusRendering  RunStatus = "rendering"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

// Stage statuses.
const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records one stage of a run.
type StageResult struct {
	Name     string         `json:"name"`
	Status   StageStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunResult is the persisted outcome of a completed run.
type RunResult struct {
	Asset         string        `json:"asset"`
	Matrix        [2][2]int     `json:"confusion_matrix"`
	MatrixDefined bool          `json:"matrix_defined"`
	Accuracy      float64       `json:"accuracy"`
	TrainSamples  int           `json:"train_samples"`
	TestSamples   int           `json:"test_samples"`
	DroppedTrain  int           `json:"dropped_train"`
	DroppedTest   int           `json:"dropped_test"`
	Bands         []string      `json:"bands"`
	Trees         int           `json:"trees"`
	QuicklookPath string        `json:"quicklook_path,omitempty"`
	HeatmapPath   string        `json:"heatmap_path,omitempty"`
	ExportJobID   string        `json:"export_job_id,omitempty"`
	Stages        []StageResult `json:"stages"`
}

// Run is a pipeline invocation for one region and year.
type Run struct {
	ID        string     `json:"id"`
	Region    string     `json:"region"`
	Year      string     `json:"year"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ExportJobStatus tracks an asynchronous raster export.
type ExportJobStatus string

// Export job statuses. Jobs are fire-and-forget: the pipeline submits and
// moves on, the operator observes completion out-of-band via `cropmask jobs`.
const (
	ExportStatusSubmitted ExportJobStatus = "submitted"
	ExportStatusComplete  ExportJobStatus = "complete"
	ExportStatusFailed    ExportJobStatus = "failed"
)

// ExportJob records a submitted raster export.
type ExportJob struct {
	ID          string          `json:"id"`
	RunID       string          `json:"run_id"`
	Asset       string          `json:"asset"`
	Path        string          `json:"path"`
	Status      ExportJobStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
