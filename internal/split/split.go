// Package split partitions labeled points into spatially disjoint training
// and test sets. One sub-region is held out entirely as test data so the
// evaluation measures generalization to an unseen area rather than
// interpolation between neighboring training pixels.
package split

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/region"
)

// Result is a train/test partition of labeled points.
type Result struct {
	Train []model.LabeledPoint
	Test  []model.LabeledPoint
}

// Partition splits the point set on a single boundary predicate: general
// points inside subRegion become test, general points outside become train.
// Corrective points are appended to train unconditionally; they come from a
// separate curated source and are never filtered by the spatial mask, so a
// corrective point may coincide geometrically with a test point. That overlap
// is accepted, not a defect.
func Partition(points *region.PointSet, subRegion *geom.MultiPolygon) *Result {
	res := &Result{
		Train: make([]model.LabeledPoint, 0, len(points.General)+len(points.CorrectiveCrop)+len(points.CorrectiveNonCrop)),
		Test:  make([]model.LabeledPoint, 0, len(points.General)/4),
	}

	for _, p := range points.General {
		if region.Contains(subRegion, p.X, p.Y) {
			res.Test = append(res.Test, p)
		} else {
			res.Train = append(res.Train, p)
		}
	}

	res.Train = append(res.Train, points.CorrectiveCrop...)
	res.Train = append(res.Train, points.CorrectiveNonCrop...)

	zap.L().Info("spatial split",
		zap.Int("train", len(res.Train)),
		zap.Int("test", len(res.Test)),
		zap.Int("corrective", len(points.CorrectiveCrop)+len(points.CorrectiveNonCrop)),
	)
	return res
}
