package model

// Sample is one row of a sample table: the raster band values under a labeled
// point, together with the original label and location.
type Sample struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Label    Class     `json:"label"`
	Features []float64 `json:"features"`
}

// SampleTable is the result of intersecting a point collection with a raster.
// Points outside imagery coverage are silently excluded at sampling time;
// Dropped counts them so totals remain accountable downstream.
type SampleTable struct {
	Bands   []string `json:"bands"`
	Rows    []Sample `json:"rows"`
	Dropped int      `json:"dropped"`
}

// Len returns the number of retained rows.
func (t *SampleTable) Len() int { return len(t.Rows) }

// Empty reports whether no rows survived sampling.
func (t *SampleTable) Empty() bool { return len(t.Rows) == 0 }

// CountByLabel returns the number of rows per class.
func (t *SampleTable) CountByLabel() map[Class]int {
	counts := make(map[Class]int, NumClasses)
	for _, r := range t.Rows {
		counts[r.Label]++
	}
	return counts
}
