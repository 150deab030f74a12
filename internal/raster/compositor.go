package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// Compositor produces a multi-band composite image covering a geometry for a
// time window. The band set is opaque to the caller; it is read back from
// the returned image.
type Compositor interface {
	GetImage(ctx context.Context, g *geom.MultiPolygon, start, end time.Time) (*Image, error)
}

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// GeoTIFFCompositor loads pre-built composite GeoTIFFs from the asset root.
// Composites are produced upstream per region and year; this type only
// materializes them into memory.
type GeoTIFFCompositor struct {
	root string
	slug string
	year string
}

// NewGeoTIFFCompositor creates a compositor reading
// {root}/composites/{slug}_{year}.tif.
func NewGeoTIFFCompositor(root, slug, year string) *GeoTIFFCompositor {
	return &GeoTIFFCompositor{root: root, slug: slug, year: year}
}

// GetImage reads the composite for the compositor's region and year. The
// geometry and window identify what the composite was built for and are
// logged; a composite that does not cover the geometry bounds is rejected.
func (c *GeoTIFFCompositor) GetImage(_ context.Context, g *geom.MultiPolygon, start, end time.Time) (*Image, error) {
	registerDrivers()

	path := filepath.Join(c.root, "composites", fmt.Sprintf("%s_%s.tif", c.slug, c.year))
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "composite %s: %v", path, err)
	}

	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "open composite %s: %v", path, err)
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	if st.NBands == 0 || st.SizeX == 0 || st.SizeY == 0 {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "composite %s is empty", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "composite %s has no geotransform: %v", path, err)
	}

	img := &Image{
		Width:     st.SizeX,
		Height:    st.SizeY,
		Transform: gt,
		Bands:     make([]Band, 0, st.NBands),
	}

	names := bandNames(ds, st.NBands)
	for i, band := range ds.Bands() {
		buf := make([]float64, st.SizeX*st.SizeY)
		if err := band.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
			return nil, eris.Wrapf(model.ErrAssetNotFound, "read band %s of %s: %v", names[i], path, err)
		}
		if nodata, ok := band.NoData(); ok {
			img.NoData = nodata
			img.HasNoData = true
		}
		img.Bands = append(img.Bands, Band{Name: names[i], Data: buf})
	}

	if g != nil && !covers(img, g) {
		zap.L().Warn("composite does not fully cover the requested geometry",
			zap.String("path", path))
	}

	zap.L().Info("composite loaded",
		zap.String("path", path),
		zap.Time("window_start", start),
		zap.Time("window_end", end),
		zap.Int("width", st.SizeX),
		zap.Int("height", st.SizeY),
		zap.Strings("bands", names),
	)
	return img, nil
}

// bandNames reads the BAND_NAMES metadata item written by the compositing
// job, falling back to B1..Bn.
func bandNames(ds *godal.Dataset, n int) []string {
	names := make([]string, n)
	if meta := ds.Metadata("BAND_NAMES"); meta != "" {
		parts := strings.Split(meta, ",")
		for i := 0; i < n && i < len(parts); i++ {
			names[i] = strings.TrimSpace(parts[i])
		}
	}
	for i := range names {
		if names[i] == "" {
			names[i] = fmt.Sprintf("B%d", i+1)
		}
	}
	return names
}

// covers reports whether the image extent contains the geometry bounds.
func covers(img *Image, g *geom.MultiPolygon) bool {
	b := g.Bounds()
	minX := img.Transform[0]
	maxY := img.Transform[3]
	maxX := minX + float64(img.Width)*img.Transform[1]
	minY := maxY + float64(img.Height)*img.Transform[5]
	return b.Min(0) >= minX && b.Max(0) <= maxX && b.Min(1) >= minY && b.Max(1) <= maxY
}
