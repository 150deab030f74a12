// Package eval builds and reports the held-out evaluation of a trained
// classifier: the confusion matrix, accuracy statistics, and the stratified
// area estimate derived from them.
package eval

import (
	"github.com/agromaps/cropmask-cli/internal/model"
)

// Classifier is the discrete-label view of a trained model.
type Classifier interface {
	Classify(features []float64) model.Class
}

// ConfusionMatrix is a 2x2 cross-tabulation of actual (rows) versus predicted
// (columns) class labels, ordered [non-crop, crop].
type ConfusionMatrix struct {
	Counts [model.NumClasses][model.NumClasses]int
}

// Evaluate applies the classifier to every row of the test table. The
// resulting cell counts sum to the number of retained test rows; points
// dropped at sampling time never reach the matrix.
func Evaluate(c Classifier, test *model.SampleTable) *ConfusionMatrix {
	cm := &ConfusionMatrix{}
	if test == nil {
		return cm
	}
	for _, row := range test.Rows {
		predicted := c.Classify(row.Features)
		cm.Counts[row.Label][predicted]++
	}
	return cm
}

// Total returns the sum of all cells.
func (cm *ConfusionMatrix) Total() int {
	var n int
	for i := range cm.Counts {
		for j := range cm.Counts[i] {
			n += cm.Counts[i][j]
		}
	}
	return n
}

// Defined reports whether the matrix holds any samples. An empty sub-region
// or a test set with no imagery coverage yields an undefined matrix, which
// is reported as "no data" rather than an error.
func (cm *ConfusionMatrix) Defined() bool {
	return cm.Total() > 0
}

// Accuracy returns the overall agreement fraction. ok is false for an
// undefined matrix.
func (cm *ConfusionMatrix) Accuracy() (acc float64, ok bool) {
	total := cm.Total()
	if total == 0 {
		return 0, false
	}
	var agree int
	for i := range cm.Counts {
		agree += cm.Counts[i][i]
	}
	return float64(agree) / float64(total), true
}

// RowTotals returns per-actual-class totals.
func (cm *ConfusionMatrix) RowTotals() [model.NumClasses]int {
	var t [model.NumClasses]int
	for i := range cm.Counts {
		for j := range cm.Counts[i] {
			t[i] += cm.Counts[i][j]
		}
	}
	return t
}

// ColTotals returns per-predicted-class totals.
func (cm *ConfusionMatrix) ColTotals() [model.NumClasses]int {
	var t [model.NumClasses]int
	for i := range cm.Counts {
		for j := range cm.Counts[i] {
			t[j] += cm.Counts[i][j]
		}
	}
	return t
}
