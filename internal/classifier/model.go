// Package classifier trains and applies the random-forest pixel classifier.
// The training algorithm itself is supplied by the underlying library; this
// package owns the schema contract and the two output modes.
package classifier

import (
	randomforest "github.com/malaschitz/randomForest"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/raster"
)

// Model is a trained randomized tree ensemble. Probability and Classify are
// two views of the same trained parameters: Probability reads the crop vote
// fraction, Classify takes the majority class. Neither retrains.
type Model struct {
	bands  []string
	trees  int
	forest *randomforest.Forest
}

// Train fits an ensemble of decision trees on the training table. The table
// must be non-empty; the tree count must be positive.
func Train(table *model.SampleTable, trees int) (*Model, error) {
	if trees <= 0 {
		return nil, eris.Wrapf(model.ErrConfiguration, "tree count %d must be positive", trees)
	}
	if table == nil || table.Empty() {
		return nil, eris.Wrap(model.ErrInsufficientTrainingData, "training table is empty after sampling")
	}

	x := make([][]float64, len(table.Rows))
	classes := make([]int, len(table.Rows))
	for i, row := range table.Rows {
		if len(row.Features) != len(table.Bands) {
			return nil, eris.Wrapf(model.ErrSchemaMismatch,
				"row %d has %d features for %d bands", i, len(row.Features), len(table.Bands))
		}
		x[i] = row.Features
		classes[i] = int(row.Label)
	}

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: x, Class: classes}
	forest.Train(trees)

	counts := table.CountByLabel()
	zap.L().Info("classifier trained",
		zap.Int("trees", trees),
		zap.Int("samples", table.Len()),
		zap.Int("crop", counts[model.ClassCrop]),
		zap.Int("non_crop", counts[model.ClassNonCrop]),
		zap.Strings("bands", table.Bands),
	)

	return &Model{
		bands:  append([]string(nil), table.Bands...),
		trees:  trees,
		forest: forest,
	}, nil
}

// Bands returns the band schema the model was trained on.
func (m *Model) Bands() []string {
	return append([]string(nil), m.bands...)
}

// Trees returns the ensemble size.
func (m *Model) Trees() int { return m.trees }

// ValidateSchema checks that a band set matches the training schema.
func (m *Model) ValidateSchema(bands []string) error {
	if len(bands) != len(m.bands) {
		return eris.Wrapf(model.ErrSchemaMismatch,
			"model trained on %d bands, got %d", len(m.bands), len(bands))
	}
	for i, b := range bands {
		if b != m.bands[i] {
			return eris.Wrapf(model.ErrSchemaMismatch,
				"band %d: trained on %q, got %q", i, m.bands[i], b)
		}
	}
	return nil
}

// Probability returns the crop-class membership probability in [0, 1] for a
// feature vector: the fraction of trees voting crop.
func (m *Model) Probability(features []float64) float64 {
	votes := m.forest.Vote(features)
	if int(model.ClassCrop) < len(votes) {
		return votes[model.ClassCrop]
	}
	// Training data held only the non-crop class; every tree votes it.
	return 0
}

// Classify returns the majority-vote class for a feature vector.
func (m *Model) Classify(features []float64) model.Class {
	if m.Probability(features) >= 0.5 {
		return model.ClassCrop
	}
	return model.ClassNonCrop
}

// ProbabilityMap applies probability mode to every unmasked pixel of the
// image, after checking the image's band schema against the training schema.
func (m *Model) ProbabilityMap(img *raster.Image) (*raster.Grid, error) {
	if err := m.ValidateSchema(img.BandNames()); err != nil {
		return nil, err
	}
	return img.MapPixels(m.Probability), nil
}
