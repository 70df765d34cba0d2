package crs

import (
	"encoding/json"
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// TransformGeometry reprojects a GeoJSON geometry from fromSRID to toSRID.
// Used by the object-store backend (C6), which stores whole GeoJSON
// documents and has no SQL engine to do ST_Transform for it; the SQL
// backend (C5) instead pushes this down to PostGIS directly.
func (t *Transformer) TransformGeometry(raw json.RawMessage, fromSRID, toSRID int) (json.RawMessage, error) {
	if fromSRID == toSRID {
		return raw, nil
	}
	var g geojson.Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("crs: decode geometry: %w", err)
	}
	transformed, err := t.transformGeom(g.Geometry, fromSRID, toSRID)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(geojson.Geometry{Geometry: transformed})
	if err != nil {
		return nil, fmt.Errorf("crs: encode geometry: %w", err)
	}
	return out, nil
}

func (t *Transformer) transformGeom(g geom.Geometry, fromSRID, toSRID int) (geom.Geometry, error) {
	switch v := g.(type) {
	case geom.Point:
		x, y, z, err := t.TransformPoint(v.X(), v.Y(), 0, false, fromSRID, toSRID)
		if err != nil {
			return nil, err
		}
		_ = z
		return geom.Point{x, y}, nil
	case geom.MultiPoint:
		out := make(geom.MultiPoint, len(v))
		for i, p := range v {
			x, y, _, err := t.TransformPoint(p[0], p[1], 0, false, fromSRID, toSRID)
			if err != nil {
				return nil, err
			}
			out[i] = [2]float64{x, y}
		}
		return out, nil
	case geom.LineString:
		out, err := t.transformLine(v, fromSRID, toSRID)
		return geom.LineString(out), err
	case geom.MultiLineString:
		out := make(geom.MultiLineString, len(v))
		for i, l := range v {
			tl, err := t.transformLine(l, fromSRID, toSRID)
			if err != nil {
				return nil, err
			}
			out[i] = tl
		}
		return out, nil
	case geom.Polygon:
		out, err := t.transformRings(v, fromSRID, toSRID)
		return geom.Polygon(out), err
	case geom.MultiPolygon:
		out := make(geom.MultiPolygon, len(v))
		for i, p := range v {
			tp, err := t.transformRings(p, fromSRID, toSRID)
			if err != nil {
				return nil, err
			}
			out[i] = tp
		}
		return out, nil
	default:
		return nil, fmt.Errorf("crs: unsupported geometry type %T", g)
	}
}

func (t *Transformer) transformLine(line [][2]float64, fromSRID, toSRID int) ([][2]float64, error) {
	out := make([][2]float64, len(line))
	for i, p := range line {
		x, y, _, err := t.TransformPoint(p[0], p[1], 0, false, fromSRID, toSRID)
		if err != nil {
			return nil, err
		}
		out[i] = [2]float64{x, y}
	}
	return out, nil
}

func (t *Transformer) transformRings(rings [][][2]float64, fromSRID, toSRID int) ([][][2]float64, error) {
	out := make([][][2]float64, len(rings))
	for i, ring := range rings {
		tr, err := t.transformLine(ring, fromSRID, toSRID)
		if err != nil {
			return nil, err
		}
		out[i] = tr
	}
	return out, nil
}
