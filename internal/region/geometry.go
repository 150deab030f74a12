package region

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// shapeToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Returns nil for unsupported or degenerate shapes.
func shapeToMultiPolygon(s shp.Shape) *geom.MultiPolygon {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("region: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("region: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Union merges multipolygons into a single covering multipolygon. Parts are
// collected, not dissolved; the result is only used for containment tests.
func Union(parts ...*geom.MultiPolygon) *geom.MultiPolygon {
	out := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for _, mp := range parts {
		if mp == nil {
			continue
		}
		for i := 0; i < mp.NumPolygons(); i++ {
			if err := out.Push(mustClone(mp.Polygon(i))); err != nil {
				zap.L().Debug("region: skipping polygon in union", zap.Error(err))
			}
		}
	}
	return out
}

func mustClone(p *geom.Polygon) *geom.Polygon {
	clone := geom.NewPolygon(p.Layout())
	for i := 0; i < p.NumLinearRings(); i++ {
		r := p.LinearRing(i)
		flat := make([]float64, len(r.FlatCoords()))
		copy(flat, r.FlatCoords())
		if err := clone.Push(geom.NewLinearRingFlat(p.Layout(), flat)); err != nil {
			zap.L().Debug("region: skipping ring in clone", zap.Error(err))
		}
	}
	return clone
}

// Contains reports whether the point (x, y) falls inside the multipolygon.
// A point inside a hole ring is outside.
func Contains(mp *geom.MultiPolygon, x, y float64) bool {
	if mp == nil {
		return false
	}
	c := geom.Coord{x, y}
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), c) {
			return true
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of a multipolygon as minX, minY, maxX, maxY.
func Bounds(mp *geom.MultiPolygon) (minX, minY, maxX, maxY float64) {
	b := mp.Bounds()
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1)
}
