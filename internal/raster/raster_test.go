package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// testImage builds a 4x3 two-band image over [0,4]x[0,3] with 1-degree
// pixels, origin at the north-west corner. Band values encode the pixel
// index so tests can verify which cell was sampled.
func testImage() *Image {
	w, h := 4, 3
	b1 := make([]float64, w*h)
	b2 := make([]float64, w*h)
	for i := range b1 {
		b1[i] = float64(i)
		b2[i] = float64(i) * 10
	}
	return &Image{
		Width:     w,
		Height:    h,
		Transform: [6]float64{0, 1, 0, 3, 0, -1},
		Bands: []Band{
			{Name: "B4", Data: b1},
			{Name: "B8", Data: b2},
		},
		NoData:    -9999,
		HasNoData: true,
	}
}

func TestBandNames(t *testing.T) {
	assert.Equal(t, []string{"B4", "B8"}, testImage().BandNames())
}

func TestFeaturesAt(t *testing.T) {
	img := testImage()

	tests := []struct {
		name     string
		x, y     float64
		expected []float64
		ok       bool
	}{
		{name: "top-left cell", x: 0.5, y: 2.5, expected: []float64{0, 0}, ok: true},
		{name: "second column", x: 1.5, y: 2.5, expected: []float64{1, 10}, ok: true},
		{name: "bottom-right cell", x: 3.5, y: 0.5, expected: []float64{11, 110}, ok: true},
		{name: "outside west", x: -0.5, y: 1.5, ok: false},
		{name: "outside north", x: 1.5, y: 3.5, ok: false},
		{name: "outside east", x: 4.5, y: 1.5, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := img.FeaturesAt(tt.x, tt.y)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestFeaturesAtMasked(t *testing.T) {
	img := testImage()
	img.Bands[0].Data[5] = -9999
	img.Bands[1].Data[6] = math.NaN()

	_, ok := img.FeaturesAt(1.5, 1.5) // pixel 5, nodata in band 0
	assert.False(t, ok)
	_, ok = img.FeaturesAt(2.5, 1.5) // pixel 6, NaN in band 1
	assert.False(t, ok)
	_, ok = img.FeaturesAt(3.5, 1.5) // pixel 7, clean
	assert.True(t, ok)
}

func TestCellCenterRoundTrip(t *testing.T) {
	img := testImage()
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			x, y := img.CellCenter(col, row)
			features, ok := img.FeaturesAt(x, y)
			require.True(t, ok)
			assert.Equal(t, float64(row*img.Width+col), features[0])
		}
	}
}

func TestMapPixels(t *testing.T) {
	img := testImage()
	img.Bands[0].Data[0] = -9999

	grid := img.MapPixels(func(features []float64) float64 {
		return features[1] / 200
	})

	require.Equal(t, img.Width, grid.Width)
	require.Equal(t, img.Height, grid.Height)
	assert.Equal(t, img.Transform, grid.Transform)

	_, ok := grid.At(0, 0)
	assert.False(t, ok, "masked input pixel stays nodata")

	v, ok := grid.At(1, 0)
	require.True(t, ok)
	assert.InDelta(t, 10.0/200, v, 1e-12)
}

func TestSample(t *testing.T) {
	img := testImage()
	img.Bands[0].Data[5] = -9999

	points := []model.LabeledPoint{
		{X: 0.5, Y: 2.5, Label: model.ClassCrop},
		{X: 3.5, Y: 0.5, Label: model.ClassNonCrop},
		{X: 1.5, Y: 1.5, Label: model.ClassCrop}, // masked pixel
		{X: 50, Y: 50, Label: model.ClassCrop},   // outside extent
	}

	table := Sample(img, points)
	assert.Equal(t, []string{"B4", "B8"}, table.Bands)
	assert.Equal(t, 2, table.Dropped)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, model.ClassCrop, table.Rows[0].Label)
	assert.Equal(t, []float64{0, 0}, table.Rows[0].Features)
	assert.Equal(t, model.ClassNonCrop, table.Rows[1].Label)
	assert.Equal(t, []float64{11, 110}, table.Rows[1].Features)
}

func TestSampleIdempotent(t *testing.T) {
	img := testImage()
	points := []model.LabeledPoint{
		{X: 0.5, Y: 2.5, Label: model.ClassCrop},
		{X: 2.5, Y: 1.5, Label: model.ClassNonCrop},
	}

	first := Sample(img, points)
	second := Sample(img, points)
	assert.Equal(t, first, second)
}

func TestSampleEmpty(t *testing.T) {
	table := Sample(testImage(), nil)
	assert.True(t, table.Empty())
	assert.Zero(t, table.Dropped)
}

func TestGridAt(t *testing.T) {
	g := NewGrid(2, 2, [6]float64{0, 1, 0, 2, 0, -1})
	_, ok := g.At(0, 0)
	assert.False(t, ok, "fresh grid is all nodata")

	g.Data[3] = 0.75
	v, ok := g.At(1, 1)
	require.True(t, ok)
	assert.Equal(t, 0.75, v)
}

func TestGridClip(t *testing.T) {
	// 4x3 grid over [0,4]x[0,3]; clip to the western half.
	g := NewGrid(4, 3, [6]float64{0, 1, 0, 3, 0, -1})
	for i := range g.Data {
		g.Data[i] = 0.5
	}

	ring := geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 2, 0, 2, 3, 0, 3, 0, 0})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))

	g.Clip(mp)

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			_, ok := g.At(col, row)
			assert.Equal(t, col < 2, ok, "col=%d row=%d", col, row)
		}
	}
}

func TestGridCountByThreshold(t *testing.T) {
	g := NewGrid(2, 2, [6]float64{0, 1, 0, 2, 0, -1})
	g.Data[0] = 0.2
	g.Data[1] = 0.5
	g.Data[2] = 0.9
	// Data[3] stays nodata.

	counts := g.CountByThreshold(0.5)
	assert.Equal(t, [2]int{1, 2}, counts)
}
