package raster

import (
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// Sample intersects labeled points with the image, producing one row per
// point with the band values at the point's pixel. Points outside imagery
// coverage (or on masked/nodata pixels) are silently excluded; this drop is
// part of the sampling contract, and the count is recorded in the table so
// downstream totals stay accountable.
func Sample(img *Image, points []model.LabeledPoint) *model.SampleTable {
	table := &model.SampleTable{
		Bands: img.BandNames(),
		Rows:  make([]model.Sample, 0, len(points)),
	}

	for _, p := range points {
		features, ok := img.FeaturesAt(p.X, p.Y)
		if !ok {
			table.Dropped++
			continue
		}
		table.Rows = append(table.Rows, model.Sample{
			X:        p.X,
			Y:        p.Y,
			Label:    p.Label,
			Features: features,
		})
	}

	if table.Dropped > 0 {
		zap.L().Debug("points outside imagery coverage excluded",
			zap.Int("dropped", table.Dropped),
			zap.Int("kept", len(table.Rows)),
		)
	}
	return table
}
