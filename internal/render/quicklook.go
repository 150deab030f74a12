package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/raster"
)

// paletteTruncation is how many leading stops are dropped from the ramp.
const paletteTruncation = 2

// Quicklook renders the probability grid as a PNG using the named palette
// truncated by two stops. Nodata cells are transparent. Returns the written
// path.
func Quicklook(grid *raster.Grid, scheme, dir, name string) (string, error) {
	colors, err := PaletteFor(scheme)
	if err != nil {
		return "", err
	}
	ramp := Truncate(colors, paletteTruncation)

	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			v, ok := grid.At(col, row)
			if !ok {
				continue
			}
			img.SetNRGBA(col, row, Interpolate(ramp, v))
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "render: create output dir %s", dir)
	}
	path := filepath.Join(dir, name+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", eris.Wrapf(err, "render: save quicklook %s", path)
	}

	zap.L().Info("quicklook rendered",
		zap.String("path", path),
		zap.String("palette", scheme),
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height),
	)
	return path, nil
}

// Interpolate maps a value in [0, 1] onto the ramp with linear blending
// between adjacent stops. Values outside the range clamp to the ends.
func Interpolate(ramp []color.NRGBA, v float64) color.NRGBA {
	if len(ramp) == 1 {
		return ramp[0]
	}
	if v <= 0 {
		return ramp[0]
	}
	if v >= 1 {
		return ramp[len(ramp)-1]
	}

	pos := v * float64(len(ramp)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	a, b := ramp[lo], ramp[lo+1]
	return color.NRGBA{
		R: blend(a.R, b.R, frac),
		G: blend(a.G, b.G, frac),
		B: blend(a.B, b.B, frac),
		A: 0xff,
	}
}

func blend(a, b uint8, frac float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*frac + 0.5)
}
