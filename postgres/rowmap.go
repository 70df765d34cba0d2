package postgres

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/PDOK/gokoala-ogc/domain"
)

// rowScanner is satisfied by both *sqlx.Row (single row) and *sqlx.Rows
// (cursor), letting ReadFeature and ListFeatures share one mapping
// function. Adapted from the teacher's column-name-driven
// domain.MapRowsToFeatures in ogc/features/domain/mapper.go, generalized
// from a numeric fid + sqlite blob geometry to a string id + PostGIS
// ST_AsGeoJSON jsonb geometry.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeature(row rowScanner, collection string) (*domain.Feature, error) {
	var (
		id         string
		properties []byte
		geometry   []byte
		links      []byte
		assets     []byte
		bbox       []byte
	)
	if err := row.Scan(&id, &properties, &geometry, &links, &assets, &bbox); err != nil {
		return nil, err
	}
	return buildFeature(id, collection, properties, geometry, links, assets, bbox)
}

func scanFeatureRows(rows *sqlx.Rows, collection string) (*domain.Feature, error) {
	return scanFeature(rows, collection)
}

func buildFeature(id, collection string, properties, geometry, links, assets, bbox []byte) (*domain.Feature, error) {
	f := &domain.Feature{
		ID:         id,
		Collection: collection,
		Type:       "Feature",
		Geometry:   geometry,
		Properties: map[string]interface{}{},
	}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &f.Properties); err != nil {
			return nil, err
		}
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &f.Links); err != nil {
			return nil, err
		}
	}
	if len(assets) > 0 {
		if err := json.Unmarshal(assets, &f.Assets); err != nil {
			return nil, err
		}
	}
	if len(bbox) > 0 {
		_ = json.Unmarshal(bbox, &f.Bbox)
	}
	return f, nil
}

// pqStringArray adapts a []string to the lib/pq array literal the driver
// expects for ANY(...)/unnest(...) parameters.
func pqStringArray(values []string) interface{} {
	return pq.Array(values)
}
