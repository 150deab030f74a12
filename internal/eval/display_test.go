package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = [2]string{"non-crop", "crop"}

func TestDisplay(t *testing.T) {
	cm := matrixFromCounts([2][2]int{{4, 1}, {2, 3}})

	var buf strings.Builder
	Display(&buf, cm, testLabels)
	out := buf.String()

	assert.Contains(t, out, "non-crop")
	assert.Contains(t, out, "crop")
	assert.Contains(t, out, "overall accuracy: 0.700 (n=10)")
	assert.NotContains(t, out, "no data")
}

func TestDisplayNoData(t *testing.T) {
	var buf strings.Builder
	Display(&buf, &ConfusionMatrix{}, testLabels)
	assert.Equal(t, "confusion matrix: no test samples (no data)\n", buf.String())
}

func TestSaveHeatmap(t *testing.T) {
	cm := matrixFromCounts([2][2]int{{4, 1}, {2, 3}})
	path := filepath.Join(t.TempDir(), "plots", "matrix.png")

	written, err := SaveHeatmap(cm, testLabels, path)
	require.NoError(t, err)
	assert.True(t, written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveHeatmapUndefined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.png")
	written, err := SaveHeatmap(&ConfusionMatrix{}, testLabels, path)
	require.NoError(t, err)
	assert.False(t, written)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMatrixGridOrientation(t *testing.T) {
	g := matrixGrid{cm: matrixFromCounts([2][2]int{{1, 2}, {3, 4}})}

	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)

	// Plot row 1 is the top: it holds matrix row 0.
	assert.Equal(t, 1.0, g.Z(0, 1))
	assert.Equal(t, 2.0, g.Z(1, 1))
	assert.Equal(t, 3.0, g.Z(0, 0))
	assert.Equal(t, 4.0, g.Z(1, 0))
}
