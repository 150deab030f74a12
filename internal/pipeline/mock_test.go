package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/agromaps/cropmask-cli/internal/export"
	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/raster"
	"github.com/agromaps/cropmask-cli/internal/region"
	"github.com/agromaps/cropmask-cli/internal/store"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	mu   sync.Mutex
	runs map[string]*model.Run
	jobs map[string]*model.ExportJob
}

func newMemStore() *memStore {
	return &memStore{
		runs: make(map[string]*model.Run),
		jobs: make(map[string]*model.ExportJob),
	}
}

func (s *memStore) CreateRun(_ context.Context, regionName, year string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &model.Run{
		ID:        uuid.New().String(),
		Region:    regionName,
		Year:      year,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.runs[run.ID] = run
	return run, nil
}

func (s *memStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("run %s not found", runID)
	}
	run.Status = status
	return nil
}

func (s *memStore) UpdateRunResult(_ context.Context, runID string, result *model.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("run %s not found", runID)
	}
	run.Result = result
	return nil
}

func (s *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, eris.Errorf("run %s not found", runID)
	}
	return run, nil
}

func (s *memStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) CreateExportJob(_ context.Context, runID, asset, path string) (*model.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &model.ExportJob{
		ID:          uuid.New().String(),
		RunID:       runID,
		Asset:       asset,
		Path:        path,
		Status:      model.ExportStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *memStore) CompleteExportJob(_ context.Context, jobID string, jobErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return eris.Errorf("job %s not found", jobID)
	}
	if jobErr != nil {
		job.Status = model.ExportStatusFailed
		job.Error = jobErr.Error()
	} else {
		job.Status = model.ExportStatusComplete
	}
	return nil
}

func (s *memStore) ListExportJobs(_ context.Context, _ int) ([]model.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ExportJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

// singleRun returns the one run in the store.
func (s *memStore) singleRun() *model.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		return r
	}
	return nil
}

// stubLoader returns canned region and point data.
type stubLoader struct {
	region     *region.Region
	points     *region.PointSet
	resolveErr error
	pointsErr  error
}

func (l *stubLoader) Resolve(context.Context, string, string) (*region.Region, error) {
	if l.resolveErr != nil {
		return nil, l.resolveErr
	}
	return l.region, nil
}

func (l *stubLoader) LoadPoints(context.Context, *region.Region) (*region.PointSet, error) {
	if l.pointsErr != nil {
		return nil, l.pointsErr
	}
	return l.points, nil
}

// stubCompositor serves a prebuilt in-memory image.
type stubCompositor struct {
	img *raster.Image
	err error
}

func (c *stubCompositor) GetImage(context.Context, *geom.MultiPolygon, time.Time, time.Time) (*raster.Image, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.img, nil
}

// stubExporter records the submitted request.
type stubExporter struct {
	req       *export.Request
	submitErr error
}

func (e *stubExporter) Submit(_ context.Context, req export.Request) (*model.ExportJob, error) {
	if e.submitErr != nil {
		return nil, e.submitErr
	}
	e.req = &req
	return &model.ExportJob{
		ID:          "job-1",
		RunID:       req.RunID,
		Asset:       req.Asset,
		Status:      model.ExportStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}, nil
}
