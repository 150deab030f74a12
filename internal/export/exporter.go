// Package export submits asynchronous raster export jobs. Submission is
// fire-and-forget: the pipeline does not block on or verify completion, and
// the operator observes job status out-of-band via `cropmask jobs`.
package export

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/raster"
	"github.com/agromaps/cropmask-cli/internal/store"
)

// Request describes one raster export.
type Request struct {
	RunID string
	// Asset is the versioned identifier, e.g.
	// "Sudan/WestDarfur2022_cropmask_regionsplit_v1".
	Asset     string
	Grid      *raster.Grid
	EPSG      int
	MaxPixels int64
}

// Exporter enqueues raster exports.
type Exporter interface {
	Submit(ctx context.Context, req Request) (*model.ExportJob, error)
}

// LocalExporter writes exports as GeoTIFFs under a root directory, recording
// each job in the store.
type LocalExporter struct {
	root  string
	store store.Store
	wg    sync.WaitGroup
}

// NewLocal creates an exporter writing under root.
func NewLocal(root string, st store.Store) *LocalExporter {
	return &LocalExporter{root: root, store: st}
}

// Submit enqueues the export and returns immediately with the job record.
// Failures to enqueue are reported as ErrExportSubmission; failures during
// the write itself are only visible on the job record.
func (e *LocalExporter) Submit(ctx context.Context, req Request) (*model.ExportJob, error) {
	if req.Grid == nil {
		return nil, eris.Wrap(model.ErrExportSubmission, "no grid to export")
	}
	pixels := int64(req.Grid.Width) * int64(req.Grid.Height)
	if req.MaxPixels > 0 && pixels > req.MaxPixels {
		return nil, eris.Wrapf(model.ErrExportSubmission,
			"grid has %d pixels, budget is %d", pixels, req.MaxPixels)
	}

	path := filepath.Join(e.root, filepath.FromSlash(req.Asset)+".tif")
	job, err := e.store.CreateExportJob(ctx, req.RunID, req.Asset, path)
	if err != nil {
		return nil, eris.Wrap(model.ErrExportSubmission, err.Error())
	}

	log := zap.L().With(
		zap.String("component", "export"),
		zap.String("job_id", job.ID),
		zap.String("asset", req.Asset),
	)
	log.Info("export job submitted", zap.String("path", path))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		writeErr := raster.WriteGeoTIFF(path, req.Grid, req.EPSG)
		// The job record, not the pipeline, carries the outcome.
		if err := e.store.CompleteExportJob(context.Background(), job.ID, writeErr); err != nil {
			log.Warn("failed to record export job outcome", zap.Error(err))
		}
		if writeErr != nil {
			log.Error("export job failed", zap.Error(writeErr))
		} else {
			log.Info("export job complete")
		}
	}()

	return job, nil
}

// Wait blocks until submitted jobs have finished. Used on shutdown and in
// tests; the pipeline itself never calls it.
func (e *LocalExporter) Wait() {
	e.wg.Wait()
}
