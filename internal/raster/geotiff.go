package raster

import (
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
)

// WriteGeoTIFF persists a grid as a single-band Float32 GeoTIFF with the
// given coordinate reference system. Nodata cells carry the GridNoData
// marker.
func WriteGeoTIFF(path string, grid *Grid, epsg int) error {
	registerDrivers()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "raster: create export dir for %s", path)
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, grid.Width, grid.Height,
		godal.CreationOption("COMPRESS=DEFLATE", "TILED=YES"))
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = ds.Close() }()

	if err := ds.SetGeoTransform(grid.Transform); err != nil {
		return eris.Wrap(err, "raster: set geotransform")
	}

	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return eris.Wrapf(err, "raster: spatial ref EPSG:%d", epsg)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return eris.Wrap(err, "raster: set spatial ref")
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(GridNoData); err != nil {
		return eris.Wrap(err, "raster: set nodata")
	}

	buf := make([]float32, len(grid.Data))
	for i, v := range grid.Data {
		buf[i] = float32(v)
	}
	if err := band.Write(0, 0, buf, grid.Width, grid.Height); err != nil {
		return eris.Wrapf(err, "raster: write %s", path)
	}
	return nil
}
