package eval

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// Display formats the matrix to w with actual classes as rows and predicted
// classes as columns. An undefined matrix prints a "no data" line instead of
// counts.
func Display(w io.Writer, cm *ConfusionMatrix, labels [model.NumClasses]string) {
	if !cm.Defined() {
		fmt.Fprintln(w, "confusion matrix: no test samples (no data)")
		return
	}

	fmt.Fprintf(w, "%-12s", "")
	for _, l := range labels {
		fmt.Fprintf(w, "%12s", l)
	}
	fmt.Fprintln(w)
	for i, l := range labels {
		fmt.Fprintf(w, "%-12s", l)
		for j := range labels {
			fmt.Fprintf(w, "%12d", cm.Counts[i][j])
		}
		fmt.Fprintln(w)
	}

	if acc, ok := cm.Accuracy(); ok {
		fmt.Fprintf(w, "overall accuracy: %.3f (n=%d)\n", acc, cm.Total())
	}
}

// DisplayStdout writes the matrix to standard output.
func DisplayStdout(cm *ConfusionMatrix, labels [model.NumClasses]string) {
	Display(os.Stdout, cm, labels)
}

// matrixGrid adapts a confusion matrix to the plotter grid interface, with
// the first actual class on the top row.
type matrixGrid struct {
	cm *ConfusionMatrix
}

func (g matrixGrid) Dims() (c, r int) { return model.NumClasses, model.NumClasses }
func (g matrixGrid) X(c int) float64  { return float64(c) }
func (g matrixGrid) Y(r int) float64  { return float64(r) }
func (g matrixGrid) Z(c, r int) float64 {
	// Row 0 of the matrix renders at the top of the plot.
	return float64(g.cm.Counts[model.NumClasses-1-r][c])
}

// SaveHeatmap renders the matrix as a heatmap PNG. Undefined matrices are
// skipped and reported via the returned written flag.
func SaveHeatmap(cm *ConfusionMatrix, labels [model.NumClasses]string, path string) (written bool, err error) {
	if !cm.Defined() {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, eris.Wrapf(err, "eval: create output dir for %s", path)
	}

	p := plot.New()
	p.Title.Text = "Confusion matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	hm := plotter.NewHeatMap(matrixGrid{cm: cm}, palette.Heat(12, 1))
	p.Add(hm)

	ticksX := make([]plot.Tick, model.NumClasses)
	ticksY := make([]plot.Tick, model.NumClasses)
	for i := 0; i < model.NumClasses; i++ {
		ticksX[i] = plot.Tick{Value: float64(i), Label: labels[i]}
		ticksY[i] = plot.Tick{Value: float64(model.NumClasses - 1 - i), Label: labels[i]}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticksX)
	p.Y.Tick.Marker = plot.ConstantTicks(ticksY)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return false, eris.Wrapf(err, "eval: save heatmap %s", path)
	}
	return true, nil
}
