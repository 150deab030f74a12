// Package model holds the shared data types of the cropmask pipeline.
package model

// Class is the categorical label of a ground-truth point.
type Class int

// Class values, ordered as they appear in the confusion matrix.
const (
	ClassNonCrop Class = 0
	ClassCrop    Class = 1
)

// NumClasses is the size of the label space.
const NumClasses = 2

// String returns the display name used in matrix headers and logs.
func (c Class) String() string {
	switch c {
	case ClassNonCrop:
		return "non-crop"
	case ClassCrop:
		return "crop"
	default:
		return "unknown"
	}
}

// PointSource identifies which collection a labeled point came from.
type PointSource string

// Point collections. General points are partitioned spatially into train and
// test; corrective points are curated additions that always train.
const (
	SourceGeneral           PointSource = "general"
	SourceCorrectiveCrop    PointSource = "corrective-crop"
	SourceCorrectiveNonCrop PointSource = "corrective-noncrop"
)

// Corrective reports whether the point bypasses the spatial split.
func (s PointSource) Corrective() bool {
	return s == SourceCorrectiveCrop || s == SourceCorrectiveNonCrop
}

// LabeledPoint is a ground-truth location in EPSG:4326 with a class label.
type LabeledPoint struct {
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Label  Class       `json:"label"`
	Source PointSource `json:"source"`
}
