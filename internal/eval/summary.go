package eval

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// normalDeviate95 is the two-sided 95% confidence deviate.
const normalDeviate95 = 1.96

// ClassStats holds per-class accuracy rates derived from the matrix.
type ClassStats struct {
	TruePositiveRate  float64 `json:"tpr"`
	FalsePositiveRate float64 `json:"fpr"`
	UserAccuracy      float64 `json:"user_accuracy"`
	ProducerAccuracy  float64 `json:"producer_accuracy"`
}

// Summary is the accuracy report for a held-out evaluation.
type Summary struct {
	Accuracy float64                      `json:"accuracy"`
	Classes  [model.NumClasses]ClassStats `json:"classes"`
}

// Summarize derives per-class rates from the matrix. ok is false when the
// matrix is undefined; callers report "no data" instead of statistics.
func Summarize(cm *ConfusionMatrix) (s Summary, ok bool) {
	if !cm.Defined() {
		return Summary{}, false
	}

	total := cm.Total()
	rows := cm.RowTotals()
	cols := cm.ColTotals()
	s.Accuracy, _ = cm.Accuracy()

	for k := 0; k < model.NumClasses; k++ {
		tp := cm.Counts[k][k]
		fp := cols[k] - tp
		fn := rows[k] - tp
		tn := total - tp - fp - fn

		s.Classes[k] = ClassStats{
			TruePositiveRate:  ratio(tp, tp+fn),
			FalsePositiveRate: ratio(fp, fp+tn),
			UserAccuracy:      ratio(tp, cols[k]),
			ProducerAccuracy:  ratio(tp, rows[k]),
		}
	}
	return s, true
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// AreaEstimate is a stratified area estimate for the mapped classes,
// following the good-practice estimator built on the area-proportion error
// matrix: cell proportions p[i][j] = w[j] * n[i][j] / n[.j], where w[j] is
// the mapped area share of class j.
type AreaEstimate struct {
	// Proportions is the error matrix in area-proportion terms.
	Proportions [model.NumClasses][model.NumClasses]float64 `json:"proportions"`
	// AreaHa is the estimated area of each reference class in hectares.
	AreaHa [model.NumClasses]float64 `json:"area_ha"`
	// AreaCIHa is the 95% confidence half-width of each area estimate.
	AreaCIHa [model.NumClasses]float64 `json:"area_ci_ha"`
	// OverallAccuracy is the area-weighted overall accuracy.
	OverallAccuracy float64 `json:"overall_accuracy"`
	// AccuracySE is the standard error of the overall accuracy.
	AccuracySE float64 `json:"accuracy_se"`
}

// EstimateArea computes the stratified area estimate from sample counts and
// the mapped pixel totals of each class. pixelAreaHa is the ground area of
// one pixel in hectares. ok is false when any mapped class has no samples,
// which leaves the estimator undefined.
func EstimateArea(cm *ConfusionMatrix, mappedPixels [model.NumClasses]int, pixelAreaHa float64) (est AreaEstimate, ok bool) {
	if !cm.Defined() || pixelAreaHa <= 0 {
		return AreaEstimate{}, false
	}

	cols := cm.ColTotals()
	totalPixels := 0
	for _, n := range mappedPixels {
		totalPixels += n
	}
	if totalPixels == 0 {
		return AreaEstimate{}, false
	}
	for j := 0; j < model.NumClasses; j++ {
		// Each mapped stratum needs at least two samples for a variance.
		if cols[j] < 2 || mappedPixels[j] == 0 {
			return AreaEstimate{}, false
		}
	}

	// Mapped area shares w[j].
	var w [model.NumClasses]float64
	for j := range w {
		w[j] = float64(mappedPixels[j]) / float64(totalPixels)
	}

	// Area-proportion error matrix.
	for i := 0; i < model.NumClasses; i++ {
		for j := 0; j < model.NumClasses; j++ {
			est.Proportions[i][j] = w[j] * float64(cm.Counts[i][j]) / float64(cols[j])
		}
	}

	totalAreaHa := float64(totalPixels) * pixelAreaHa

	// Per-reference-class area and its standard error.
	for i := 0; i < model.NumClasses; i++ {
		rowProp := est.Proportions[i][:]
		est.AreaHa[i] = floats.Sum(rowProp) * totalAreaHa

		var variance float64
		for j := 0; j < model.NumClasses; j++ {
			p := est.Proportions[i][j]
			variance += (w[j]*p - p*p) / float64(cols[j]-1)
		}
		est.AreaCIHa[i] = normalDeviate95 * math.Sqrt(variance) * totalAreaHa
	}

	// Area-weighted overall accuracy and its standard error.
	var accVar float64
	for j := 0; j < model.NumClasses; j++ {
		est.OverallAccuracy += est.Proportions[j][j]
		u := float64(cm.Counts[j][j]) / float64(cols[j])
		accVar += w[j] * w[j] * u * (1 - u) / float64(cols[j]-1)
	}
	est.AccuracySE = math.Sqrt(accVar)

	return est, true
}
