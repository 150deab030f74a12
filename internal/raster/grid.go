package raster

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/agromaps/cropmask-cli/internal/region"
)

// GridNoData marks masked cells in derived grids.
const GridNoData = -1.0

// Grid is a single-band raster, used for the per-pixel crop probability map.
type Grid struct {
	Width     int
	Height    int
	Transform [6]float64
	// Data is row-major; GridNoData marks masked cells.
	Data []float64
}

// NewGrid allocates a grid with every cell set to nodata.
func NewGrid(width, height int, transform [6]float64) *Grid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = GridNoData
	}
	return &Grid{Width: width, Height: height, Transform: transform, Data: data}
}

// At returns the value at a pixel index and whether it holds data.
func (g *Grid) At(col, row int) (float64, bool) {
	v := g.Data[row*g.Width+col]
	if v == GridNoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// CellCenter returns the geographic coordinates of a pixel center.
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	x = g.Transform[0] + (float64(col)+0.5)*g.Transform[1]
	y = g.Transform[3] + (float64(row)+0.5)*g.Transform[5]
	return x, y
}

// Clip masks every cell whose center falls outside the geometry. The export
// is clipped exactly to the sub-region boundary, not the wider border.
func (g *Grid) Clip(mp *geom.MultiPolygon) {
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			idx := row*g.Width + col
			if g.Data[idx] == GridNoData {
				continue
			}
			x, y := g.CellCenter(col, row)
			if !region.Contains(mp, x, y) {
				g.Data[idx] = GridNoData
			}
		}
	}
}

// CountByThreshold returns how many data cells fall below and at-or-above the
// threshold, in class order [non-crop, crop]. Used for the mapped-class pixel
// totals of the area estimate.
func (g *Grid) CountByThreshold(threshold float64) [2]int {
	var counts [2]int
	for _, v := range g.Data {
		if v == GridNoData || math.IsNaN(v) {
			continue
		}
		if v >= threshold {
			counts[1]++
		} else {
			counts[0]++
		}
	}
	return counts
}
