package pipeline

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/agromaps/cropmask-cli/internal/config"
	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/raster"
	"github.com/agromaps/cropmask-cli/internal/region"
)

func squareMP(t *testing.T, x0, y0, x1, y1 float64) *geom.MultiPolygon {
	t.Helper()
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		x0, y0, x1, y0, x1, y1, x0, y1, x0, y0,
	})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return mp
}

// fixtureImage is a 20x10 two-band image over [0,20]x[0,10] with 1-degree
// pixels. B4 starts at 0 everywhere; tests mark crop cells by setting it
// to 10.
func fixtureImage() *raster.Image {
	w, h := 20, 10
	b4 := make([]float64, w*h)
	b8 := make([]float64, w*h)
	for i := range b8 {
		b8[i] = 100
	}
	return &raster.Image{
		Width:     w,
		Height:    h,
		Transform: [6]float64{0, 1, 0, 10, 0, -1},
		Bands: []raster.Band{
			{Name: "B4", Data: b4},
			{Name: "B8", Data: b8},
		},
	}
}

func markCrop(img *raster.Image, col, row int) {
	img.Bands[0].Data[row*img.Width+col] = 10
	img.Bands[1].Data[row*img.Width+col] = 0
}

func pointAt(img *raster.Image, col, row int, label model.Class, source model.PointSource) model.LabeledPoint {
	x, y := img.CellCenter(col, row)
	return model.LabeledPoint{X: x, Y: y, Label: label, Source: source}
}

// fixture builds a full happy-path scenario: the western half of the border
// is the held-out sub-region with 10 test points, the eastern half holds 10
// separable training points, plus one corrective point and one point with no
// imagery coverage.
func fixture(t *testing.T) (*stubLoader, *stubCompositor) {
	t.Helper()
	img := fixtureImage()

	reg := &region.Region{
		Name:      "West Darfur",
		Year:      "2022",
		SubRegion: squareMP(t, 0, 0, 10, 10),
		Border:    squareMP(t, 0, 0, 20, 10),
	}

	points := &region.PointSet{}

	// Test points inside the sub-region: five crop, five non-crop.
	for col := 0; col < 5; col++ {
		markCrop(img, col, 2)
		points.General = append(points.General, pointAt(img, col, 2, model.ClassCrop, model.SourceGeneral))
	}
	for col := 5; col < 10; col++ {
		points.General = append(points.General, pointAt(img, col, 2, model.ClassNonCrop, model.SourceGeneral))
	}

	// Training points outside the sub-region.
	for col := 10; col < 15; col++ {
		markCrop(img, col, 2)
		points.General = append(points.General, pointAt(img, col, 2, model.ClassCrop, model.SourceGeneral))
	}
	for col := 15; col < 20; col++ {
		points.General = append(points.General, pointAt(img, col, 2, model.ClassNonCrop, model.SourceGeneral))
	}

	// One point with no imagery coverage: silently dropped at sampling.
	points.General = append(points.General, model.LabeledPoint{X: 100, Y: 100, Label: model.ClassCrop, Source: model.SourceGeneral})

	// Corrective crop point inside the sub-region: trains anyway.
	markCrop(img, 1, 5)
	points.CorrectiveCrop = append(points.CorrectiveCrop, pointAt(img, 1, 5, model.ClassCrop, model.SourceCorrectiveCrop))

	return &stubLoader{region: reg, points: points}, &stubCompositor{img: img}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Export: config.ExportConfig{
			Dataset:   "Sudan",
			Scale:     10,
			EPSG:      4326,
			MaxPixels: 1e9,
		},
		Output: config.OutputConfig{
			Dir:     t.TempDir(),
			Palette: "cmocean-speed",
		},
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *memStore, *stubExporter) {
	t.Helper()
	loader, comp := fixture(t)
	st := newMemStore()
	exp := &stubExporter{}
	p := New(testConfig(t), st, loader, func(string, string) raster.Compositor { return comp }, exp)
	return p, st, exp
}

func happyParams() Params {
	return Params{Region: "West Darfur", Year: "2022", Trees: 20}
}

func TestRunHappyPath(t *testing.T) {
	p, st, exp := newTestPipeline(t)

	result, err := p.Run(context.Background(), happyParams())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Sudan/WestDarfur2022_cropmask_regionsplit_v1", result.Asset)
	assert.Equal(t, []string{"B4", "B8"}, result.Bands)
	assert.Equal(t, 20, result.Trees)

	// 10 train points + 1 corrective; the uncovered point is dropped.
	assert.Equal(t, 11, result.TrainSamples)
	assert.Equal(t, 10, result.TestSamples)
	assert.Equal(t, 1, result.DroppedTrain)
	assert.Zero(t, result.DroppedTest)

	// Matrix cells sum to the retained test rows.
	require.True(t, result.MatrixDefined)
	var total int
	for i := range result.Matrix {
		for j := range result.Matrix[i] {
			total += result.Matrix[i][j]
		}
	}
	assert.Equal(t, 10, total)

	// Cleanly separable features: held-out accuracy is perfect.
	assert.InDelta(t, 1.0, result.Accuracy, 1e-12)

	// Artifacts on disk.
	_, err = os.Stat(result.QuicklookPath)
	assert.NoError(t, err)
	require.NotEmpty(t, result.HeatmapPath)
	_, err = os.Stat(result.HeatmapPath)
	assert.NoError(t, err)

	// Export was submitted with the clipped grid.
	assert.Equal(t, "job-1", result.ExportJobID)
	require.NotNil(t, exp.req)
	assert.Equal(t, result.Asset, exp.req.Asset)
	require.NotNil(t, exp.req.Grid)
	_, ok := exp.req.Grid.At(15, 2)
	assert.False(t, ok, "cells outside the sub-region are clipped")
	_, ok = exp.req.Grid.At(3, 2)
	assert.True(t, ok, "cells inside the sub-region carry probabilities")

	// Run record reaches a terminal state with all stages tracked.
	run := st.singleRun()
	require.NotNil(t, run)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)

	stageNames := make([]string, len(run.Result.Stages))
	for i, s := range run.Result.Stages {
		stageNames[i] = s.Name
		assert.Equal(t, model.StageStatusComplete, s.Status)
	}
	assert.Equal(t, []string{
		"load_region", "composite", "split", "sample", "train", "evaluate", "render", "export",
	}, stageNames)
}

func TestRunEmptySubRegion(t *testing.T) {
	loader, comp := fixture(t)
	// Hold out an area no point falls in: every general point trains and
	// the matrix is undefined, but the run still completes.
	loader.region.SubRegion = squareMP(t, 100, 100, 110, 110)

	st := newMemStore()
	p := New(testConfig(t), st, loader, func(string, string) raster.Compositor { return comp }, &stubExporter{})

	result, err := p.Run(context.Background(), happyParams())
	require.NoError(t, err)

	assert.Zero(t, result.TestSamples)
	assert.False(t, result.MatrixDefined)
	assert.Zero(t, result.Accuracy)
	assert.Empty(t, result.HeatmapPath)
	assert.Equal(t, model.RunStatusComplete, st.singleRun().Status)
}

func TestRunLoaderFailure(t *testing.T) {
	loader, comp := fixture(t)
	loader.resolveErr = eris.Wrap(model.ErrAssetNotFound, "boundary shapefile missing")

	st := newMemStore()
	p := New(testConfig(t), st, loader, func(string, string) raster.Compositor { return comp }, &stubExporter{})

	result, err := p.Run(context.Background(), happyParams())
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrAssetNotFound))

	require.NotNil(t, result)
	require.Len(t, result.Stages, 1)
	assert.Equal(t, "load_region", result.Stages[0].Name)
	assert.Equal(t, model.StageStatusFailed, result.Stages[0].Status)
	assert.Equal(t, model.RunStatusFailed, st.singleRun().Status)
}

func TestRunNoTrainingCoverage(t *testing.T) {
	loader, comp := fixture(t)
	// Push every training point outside the imagery: sampling yields an
	// empty training table.
	for i, pt := range loader.points.General {
		if !region.Contains(loader.region.SubRegion, pt.X, pt.Y) {
			loader.points.General[i].X = 500
			loader.points.General[i].Y = 500
		}
	}
	loader.points.CorrectiveCrop = nil

	st := newMemStore()
	p := New(testConfig(t), st, loader, func(string, string) raster.Compositor { return comp }, &stubExporter{})

	_, err := p.Run(context.Background(), happyParams())
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrInsufficientTrainingData))
	assert.Equal(t, model.RunStatusFailed, st.singleRun().Status)
}

func TestRunExportFailure(t *testing.T) {
	loader, comp := fixture(t)
	st := newMemStore()
	exp := &stubExporter{submitErr: eris.Wrap(model.ErrExportSubmission, "pixel budget exceeded")}
	p := New(testConfig(t), st, loader, func(string, string) raster.Compositor { return comp }, exp)

	result, err := p.Run(context.Background(), happyParams())
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrExportSubmission))

	// The evaluation and rendered artifacts survive the failed submission.
	require.NotNil(t, result)
	assert.True(t, result.MatrixDefined)
	assert.NotEmpty(t, result.QuicklookPath)
	assert.Empty(t, result.ExportJobID)
	assert.Equal(t, model.RunStatusFailed, st.singleRun().Status)
}

func TestRunInvalidParams(t *testing.T) {
	p, st, _ := newTestPipeline(t)

	tests := []struct {
		name   string
		params Params
	}{
		{name: "unknown region", params: Params{Region: "Atlantis", Year: "2022", Trees: 20}},
		{name: "missing year", params: Params{Region: "West Darfur", Trees: 20}},
		{name: "non-numeric year", params: Params{Region: "West Darfur", Year: "twenty", Trees: 20}},
		{name: "zero trees", params: Params{Region: "West Darfur", Year: "2022", Trees: 0}},
		{
			name: "inverted window",
			params: Params{
				Region: "West Darfur", Year: "2022", Trees: 20,
				Start: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, eris.Is(err, model.ErrConfiguration))
		})
	}

	// Parameter validation happens before any run record is created.
	assert.Nil(t, st.singleRun())
}
