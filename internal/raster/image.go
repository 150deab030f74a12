// Package raster holds the in-memory raster model: multi-band composite
// images, sampling at point locations, and derived single-band grids.
package raster

import "math"

// Band is one named numeric layer of a multi-band image.
type Band struct {
	Name string
	// Data is row-major, Width*Height values.
	Data []float64
}

// Image is a multi-band grid over a geographic extent. Produced once per run
// by the compositor and read-only thereafter.
type Image struct {
	Width  int
	Height int
	// Transform is a GDAL-style affine geotransform mapping pixel to
	// geographic coordinates.
	Transform [6]float64
	Bands     []Band
	NoData    float64
	HasNoData bool
}

// BandNames returns the band names in order.
func (img *Image) BandNames() []string {
	names := make([]string, len(img.Bands))
	for i, b := range img.Bands {
		names[i] = b.Name
	}
	return names
}

// pixelAt maps geographic coordinates to a pixel index. ok is false when the
// location falls outside the image extent. Only north-up transforms are
// produced by the compositor, so rotation terms are ignored.
func (img *Image) pixelAt(x, y float64) (col, row int, ok bool) {
	if img.Transform[1] == 0 || img.Transform[5] == 0 {
		return 0, 0, false
	}
	col = int(math.Floor((x - img.Transform[0]) / img.Transform[1]))
	row = int(math.Floor((y - img.Transform[3]) / img.Transform[5]))
	if col < 0 || col >= img.Width || row < 0 || row >= img.Height {
		return 0, 0, false
	}
	return col, row, true
}

// FeaturesAt extracts the band values at a geographic location. ok is false
// when the location is outside the image extent or any band holds a nodata
// or NaN value there (a masked pixel).
func (img *Image) FeaturesAt(x, y float64) (features []float64, ok bool) {
	col, row, ok := img.pixelAt(x, y)
	if !ok {
		return nil, false
	}
	idx := row*img.Width + col
	features = make([]float64, len(img.Bands))
	for i, b := range img.Bands {
		v := b.Data[idx]
		if math.IsNaN(v) || (img.HasNoData && v == img.NoData) {
			return nil, false
		}
		features[i] = v
	}
	return features, true
}

// CellCenter returns the geographic coordinates of a pixel center.
func (img *Image) CellCenter(col, row int) (x, y float64) {
	x = img.Transform[0] + (float64(col)+0.5)*img.Transform[1]
	y = img.Transform[3] + (float64(row)+0.5)*img.Transform[5]
	return x, y
}

// MapPixels applies fn to every unmasked pixel's feature vector and returns
// the resulting single-band grid. Masked pixels become nodata in the output.
func (img *Image) MapPixels(fn func(features []float64) float64) *Grid {
	grid := NewGrid(img.Width, img.Height, img.Transform)
	features := make([]float64, len(img.Bands))
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			idx := row*img.Width + col
			masked := false
			for i, b := range img.Bands {
				v := b.Data[idx]
				if math.IsNaN(v) || (img.HasNoData && v == img.NoData) {
					masked = true
					break
				}
				features[i] = v
			}
			if masked {
				continue
			}
			grid.Data[idx] = fn(features)
		}
	}
	return grid
}
