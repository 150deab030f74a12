// Package pipeline orchestrates the five-stage cropmask workflow: load
// region and points, composite imagery, split spatially, train and evaluate,
// render and export.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/classifier"
	"github.com/agromaps/cropmask-cli/internal/config"
	"github.com/agromaps/cropmask-cli/internal/eval"
	"github.com/agromaps/cropmask-cli/internal/export"
	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/raster"
	"github.com/agromaps/cropmask-cli/internal/region"
	"github.com/agromaps/cropmask-cli/internal/render"
	"github.com/agromaps/cropmask-cli/internal/split"
	"github.com/agromaps/cropmask-cli/internal/store"
)

// matrixLabels orders display labels like the matrix classes.
var matrixLabels = [model.NumClasses]string{
	model.ClassNonCrop.String(),
	model.ClassCrop.String(),
}

// CompositorFactory builds the compositor for a resolved region and year.
type CompositorFactory func(slug, year string) raster.Compositor

// Pipeline runs the cropmask workflow. Each stage's output is an immutable
// artifact consumed read-only downstream; there is no shared mutable state
// and no local recovery; any stage error aborts the run.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	loader     region.Loader
	compositor CompositorFactory
	exporter   export.Exporter
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, loader region.Loader, compositor CompositorFactory, exporter export.Exporter) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		loader:     loader,
		compositor: compositor,
		exporter:   exporter,
	}
}

// Run executes the full pipeline for one region and year.
func (p *Pipeline) Run(ctx context.Context, params Params) (*model.RunResult, error) {
	params, err := params.WithDefaults()
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("region", params.Region),
		zap.String("year", params.Year),
	)
	log.Info("pipeline: starting run",
		zap.Time("window_start", params.Start),
		zap.Time("window_end", params.End),
		zap.Int("trees", params.Trees),
	)

	run, err := p.store.CreateRun(ctx, params.Region, params.Year)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	result := &model.RunResult{Trees: params.Trees}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	trackStage := func(name string, fn func() (map[string]any, error)) error {
		start := time.Now()
		meta, fnErr := fn()
		stage := model.StageResult{
			Name:     name,
			Status:   model.StageStatusComplete,
			Duration: time.Since(start).Milliseconds(),
			Metadata: meta,
		}
		if fnErr != nil {
			stage.Status = model.StageStatusFailed
			stage.Error = fnErr.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Int64("duration_ms", stage.Duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", stage.Duration),
			)
		}
		result.Stages = append(result.Stages, stage)
		return fnErr
	}

	fail := func(stageErr error) (*model.RunResult, error) {
		setStatus(model.RunStatusFailed)
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
		return result, eris.Wrapf(stageErr, "pipeline: region %s year %s", params.Region, params.Year)
	}

	// ===== Stage 1: Region & point loading =====
	setStatus(model.RunStatusLoading)

	var reg *region.Region
	var points *region.PointSet

	if err := trackStage("load_region", func() (map[string]any, error) {
		reg, err = p.loader.Resolve(ctx, params.Region, params.Year)
		if err != nil {
			return nil, err
		}
		points, err = p.loader.LoadPoints(ctx, reg)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"general":            len(points.General),
			"corrective_crop":    len(points.CorrectiveCrop),
			"corrective_noncrop": len(points.CorrectiveNonCrop),
		}, nil
	}); err != nil {
		return fail(err)
	}

	// ===== Stage 2: Imagery composite =====
	var img *raster.Image

	if err := trackStage("composite", func() (map[string]any, error) {
		comp := p.compositor(region.Slug(reg.Name), reg.Year)
		img, err = comp.GetImage(ctx, reg.Border, params.Start, params.End)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"bands":  img.BandNames(),
			"width":  img.Width,
			"height": img.Height,
		}, nil
	}); err != nil {
		return fail(err)
	}
	result.Bands = img.BandNames()

	// ===== Stage 3: Spatial split =====
	var partition *split.Result

	_ = trackStage("split", func() (map[string]any, error) {
		partition = split.Partition(points, reg.SubRegion)
		return map[string]any{
			"train": len(partition.Train),
			"test":  len(partition.Test),
		}, nil
	})

	// ===== Stage 4: Sample, train, evaluate =====
	setStatus(model.RunStatusSampling)

	var trainTable, testTable *model.SampleTable

	if err := trackStage("sample", func() (map[string]any, error) {
		trainTable = raster.Sample(img, partition.Train)
		testTable = raster.Sample(img, partition.Test)
		if trainTable.Empty() {
			return nil, eris.Wrap(model.ErrInsufficientTrainingData,
				"no training points with imagery coverage")
		}
		return map[string]any{
			"train_rows":    trainTable.Len(),
			"test_rows":     testTable.Len(),
			"train_dropped": trainTable.Dropped,
			"test_dropped":  testTable.Dropped,
		}, nil
	}); err != nil {
		return fail(err)
	}
	result.TrainSamples = trainTable.Len()
	result.TestSamples = testTable.Len()
	result.DroppedTrain = trainTable.Dropped
	result.DroppedTest = testTable.Dropped

	setStatus(model.RunStatusTraining)

	var mdl *classifier.Model

	if err := trackStage("train", func() (map[string]any, error) {
		mdl, err = classifier.Train(trainTable, params.Trees)
		if err != nil {
			return nil, err
		}
		return map[string]any{"trees": params.Trees}, nil
	}); err != nil {
		return fail(err)
	}

	setStatus(model.RunStatusEvaluating)

	var matrix *eval.ConfusionMatrix

	_ = trackStage("evaluate", func() (map[string]any, error) {
		matrix = eval.Evaluate(mdl, testTable)
		eval.DisplayStdout(matrix, matrixLabels)

		meta := map[string]any{"test_samples": matrix.Total()}
		if summary, ok := eval.Summarize(matrix); ok {
			result.Accuracy = summary.Accuracy
			meta["accuracy"] = summary.Accuracy
		}
		return meta, nil
	})
	result.Matrix = matrix.Counts
	result.MatrixDefined = matrix.Defined()

	heatmapName := region.Slug(reg.Name) + reg.Year + "_matrix"
	if written, hmErr := eval.SaveHeatmap(matrix, matrixLabels, heatmapPath(p.cfg.Output.Dir, heatmapName)); hmErr != nil {
		log.Warn("pipeline: heatmap render failed", zap.Error(hmErr))
	} else if written {
		result.HeatmapPath = heatmapPath(p.cfg.Output.Dir, heatmapName)
	}

	// ===== Stage 5: Render & export =====
	setStatus(model.RunStatusRendering)

	var grid *raster.Grid

	if err := trackStage("render", func() (map[string]any, error) {
		grid, err = mdl.ProbabilityMap(img)
		if err != nil {
			return nil, err
		}
		grid.Clip(reg.SubRegion)

		name := region.Slug(reg.Name) + reg.Year + "_probability"
		quicklook, qlErr := render.Quicklook(grid, p.cfg.Output.Palette, p.cfg.Output.Dir, name)
		if qlErr != nil {
			return nil, qlErr
		}
		result.QuicklookPath = quicklook

		// Mapped pixel totals feed the stratified area estimate.
		if est, ok := eval.EstimateArea(matrix, grid.CountByThreshold(0.5), pixelAreaHa(p.cfg.Export.Scale)); ok {
			log.Info("area estimate",
				zap.Float64("crop_ha", est.AreaHa[model.ClassCrop]),
				zap.Float64("crop_ci_ha", est.AreaCIHa[model.ClassCrop]),
				zap.Float64("overall_accuracy", est.OverallAccuracy),
			)
		}
		return map[string]any{"quicklook": quicklook}, nil
	}); err != nil {
		return fail(err)
	}

	asset := region.AssetName(p.cfg.Export.Dataset, reg.Name, reg.Year)
	result.Asset = asset

	if err := trackStage("export", func() (map[string]any, error) {
		job, subErr := p.exporter.Submit(ctx, export.Request{
			RunID:     run.ID,
			Asset:     asset,
			Grid:      grid,
			EPSG:      p.cfg.Export.EPSG,
			MaxPixels: p.cfg.Export.MaxPixels,
		})
		if subErr != nil {
			return nil, subErr
		}
		result.ExportJobID = job.ID
		return map[string]any{"job_id": job.ID, "asset": asset}, nil
	}); err != nil {
		// Submission failure is reported but does not roll back the matrix
		// or the rendered map.
		setStatus(model.RunStatusFailed)
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
		return result, eris.Wrapf(err, "pipeline: region %s year %s", params.Region, params.Year)
	}

	setStatus(model.RunStatusComplete)
	if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.String("asset", asset),
		zap.Int("train_samples", result.TrainSamples),
		zap.Int("test_samples", result.TestSamples),
		zap.Float64("accuracy", result.Accuracy),
	)
	return result, nil
}

func heatmapPath(dir, name string) string {
	return filepath.Join(dir, name+".png")
}

// pixelAreaHa converts a ground resolution in meters to hectares per pixel.
func pixelAreaHa(scale float64) float64 {
	return scale * scale / 10000
}
