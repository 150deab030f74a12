package region

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agromaps/cropmask-cli/internal/config"
	"github.com/agromaps/cropmask-cli/internal/model"
)

// Region is a resolved administrative context for one run. Immutable once
// resolved.
type Region struct {
	Name      string
	Year      string
	SubRegion *geom.MultiPolygon
	Border    *geom.MultiPolygon
}

// PointSet holds the three labeled point collections for a region and year.
type PointSet struct {
	General           []model.LabeledPoint
	CorrectiveCrop    []model.LabeledPoint
	CorrectiveNonCrop []model.LabeledPoint
}

// Loader resolves boundaries and point collections from input assets.
type Loader interface {
	Resolve(ctx context.Context, name, year string) (*Region, error)
	LoadPoints(ctx context.Context, r *Region) (*PointSet, error)
}

// ShapefileLoader reads boundaries and points from local shapefiles under an
// asset root.
type ShapefileLoader struct {
	cfg config.AssetsConfig
}

// NewShapefileLoader creates a loader over the configured asset root.
func NewShapefileLoader(cfg config.AssetsConfig) *ShapefileLoader {
	return &ShapefileLoader{cfg: cfg}
}

// Resolve loads the administrative boundary dataset and builds the border
// (union of the parent region set) and the named sub-region geometry.
func (l *ShapefileLoader) Resolve(_ context.Context, name, year string) (*Region, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "region.loader"), zap.String("region", canonical))

	path := filepath.Join(l.cfg.Root, l.cfg.BoundaryFile)
	reader, err := openShapefile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, l.cfg.NameField)
	if nameIdx < 0 {
		return nil, eris.Wrapf(model.ErrAssetNotFound,
			"boundary dataset %s has no %q field", path, l.cfg.NameField)
	}

	members := make(map[string]*geom.MultiPolygon, len(ParentRegions))
	for reader.Next() {
		_, shape := reader.Shape()
		regionName := strings.TrimSpace(reader.Attribute(nameIdx))
		if !Recognized(regionName) {
			continue
		}
		mp := shapeToMultiPolygon(shape)
		if mp == nil {
			log.Debug("skipping degenerate boundary geometry", zap.String("name", regionName))
			continue
		}
		canonicalMember, _ := Canonical(regionName)
		if prev, ok := members[canonicalMember]; ok {
			members[canonicalMember] = Union(prev, mp)
		} else {
			members[canonicalMember] = mp
		}
	}

	sub, ok := members[canonical]
	if !ok {
		return nil, eris.Wrapf(model.ErrConfiguration,
			"region %q is not present in the administrative dataset %s", canonical, path)
	}

	parts := make([]*geom.MultiPolygon, 0, len(members))
	for _, mp := range members {
		parts = append(parts, mp)
	}
	border := Union(parts...)

	log.Info("region resolved",
		zap.String("year", year),
		zap.Int("border_members", len(members)),
		zap.Int("sub_region_polygons", sub.NumPolygons()),
	)

	return &Region{Name: canonical, Year: year, SubRegion: sub, Border: border}, nil
}

// LoadPoints loads the general and corrective point collections for the
// region's year, keeping only points inside the border geometry. The three
// collections load in parallel.
func (l *ShapefileLoader) LoadPoints(ctx context.Context, r *Region) (*PointSet, error) {
	var general, correctiveCrop, correctiveNonCrop []model.LabeledPoint

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		general, err = l.loadCollection(r, pointsFile("points", r.Year), model.SourceGeneral, nil)
		return err
	})
	g.Go(func() error {
		crop := model.ClassCrop
		var err error
		correctiveCrop, err = l.loadCollection(r, pointsFile("crop_points", r.Year), model.SourceCorrectiveCrop, &crop)
		return err
	})
	g.Go(func() error {
		nonCrop := model.ClassNonCrop
		var err error
		correctiveNonCrop, err = l.loadCollection(r, pointsFile("noncrop_points", r.Year), model.SourceCorrectiveNonCrop, &nonCrop)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("point collections loaded",
		zap.String("region", r.Name),
		zap.String("year", r.Year),
		zap.Int("general", len(general)),
		zap.Int("corrective_crop", len(correctiveCrop)),
		zap.Int("corrective_noncrop", len(correctiveNonCrop)),
	)

	return &PointSet{
		General:           general,
		CorrectiveCrop:    correctiveCrop,
		CorrectiveNonCrop: correctiveNonCrop,
	}, nil
}

// loadCollection reads one point shapefile. When forced is non-nil every
// point gets that label regardless of attributes; otherwise the label field
// is parsed. Points outside the border are discarded.
func (l *ShapefileLoader) loadCollection(r *Region, file string, source model.PointSource, forced *model.Class) ([]model.LabeledPoint, error) {
	path := filepath.Join(l.cfg.Root, file)
	reader, err := openShapefile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	labelIdx := -1
	if forced == nil {
		labelIdx = fieldIndex(reader, l.cfg.LabelField)
		if labelIdx < 0 {
			return nil, eris.Wrapf(model.ErrAssetNotFound,
				"point dataset %s has no %q field", path, l.cfg.LabelField)
		}
	}

	var points []model.LabeledPoint
	var outside, unparsed int
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok || pt == nil {
			continue
		}
		if !Contains(r.Border, pt.X, pt.Y) {
			outside++
			continue
		}

		label := model.ClassNonCrop
		if forced != nil {
			label = *forced
		} else {
			parsed, ok := parseLabel(reader.Attribute(labelIdx))
			if !ok {
				unparsed++
				continue
			}
			label = parsed
		}
		points = append(points, model.LabeledPoint{X: pt.X, Y: pt.Y, Label: label, Source: source})
	}

	if outside > 0 || unparsed > 0 {
		zap.L().Debug("points filtered during load",
			zap.String("file", file),
			zap.Int("outside_border", outside),
			zap.Int("unparsed_label", unparsed),
		)
	}
	return points, nil
}

func pointsFile(prefix, year string) string {
	return filepath.Join("points", fmt.Sprintf("%s_%s.shp", prefix, year))
}

func openShapefile(path string) (*shp.Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "shapefile %s: %v", path, err)
	}
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrAssetNotFound, "open shapefile %s: %v", path, err)
	}
	return reader, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if
// not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// parseLabel interprets a label attribute. Accepts numeric (0/1) and textual
// (crop/non-crop) encodings.
func parseLabel(raw string) (model.Class, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "crop", "cropland":
		return model.ClassCrop, true
	case "non-crop", "noncrop", "non_crop":
		return model.ClassNonCrop, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f >= 0.5 {
			return model.ClassCrop, true
		}
		return model.ClassNonCrop, true
	}
	return 0, false
}
