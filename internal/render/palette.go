// Package render turns a probability grid into a colored quicklook image.
package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// schemes maps palette names to ordered hex color ramps. The default scheme
// is the 7-step speed ramp used for vegetation probability maps.
var schemes = map[string][]string{
	"cmocean-speed": {
		"#fffdcd", "#e1cd73", "#aaac20", "#5f920c", "#187328", "#144b2a", "#172313",
	},
	"red-yellow-green": {
		"#a50026", "#d73027", "#fdae61", "#ffffbf", "#a6d96a", "#1a9850", "#006837",
	},
}

// PaletteFor returns the ordered color list of a named scheme.
func PaletteFor(name string) ([]color.NRGBA, error) {
	hexes, ok := schemes[name]
	if !ok {
		return nil, eris.Errorf("render: unknown palette %q", name)
	}
	colors := make([]color.NRGBA, len(hexes))
	for i, h := range hexes {
		c, err := parseHex(h)
		if err != nil {
			return nil, err
		}
		colors[i] = c
	}
	return colors, nil
}

// Truncate drops the first n stops of a palette, matching the map styling of
// the source workflow (a 7-step ramp truncated by 2).
func Truncate(colors []color.NRGBA, n int) []color.NRGBA {
	if n >= len(colors) {
		return colors[len(colors)-1:]
	}
	return colors[n:]
}

func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, eris.Errorf("render: malformed hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, eris.Wrapf(err, "render: parse hex color %q", s)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
