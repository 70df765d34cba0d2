package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-spatial/tegola"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// webMercatorSRID is the tile output projection: the MVT encoding step
// always projects to Web Mercator (EPSG:3857), whatever CRS the tile matrix
// set declares.
const webMercatorSRID = tegola.WebMercator

// mvtMarginRatio is the tile buffer used when building the query envelope,
// spec.md §4.4: "ST_TileEnvelope(z, x, y, margin ~= 64/4096)".
const mvtMarginRatio = 64.0 / 4096.0

// Tile produces a single MVT tile by aggregating ST_AsMVT over every
// requested collection and concatenating their layer blobs (spec.md §4.4,
// "Tile query"). MVT permits layer-level concatenation, so multiple
// collections become multiple layers in one response body.
func (db *DB) Tile(ctx context.Context, collections []string, tms *domain.TileMatrixSet, matrixID string, row, col int64) ([]byte, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	matrix, ok := tms.MatrixByID(matrixID)
	if !ok {
		return nil, ogcerr.Newf(ogcerr.BadRequest, "unknown tile matrix %q in set %q", matrixID, tms.ID)
	}
	zoom, err := parseZoom(matrix.ID)
	if err != nil {
		return nil, err
	}

	var body []byte
	for _, cid := range collections {
		layer, err := db.tileLayer(ctx, cid, zoom, col, row)
		if err != nil {
			return nil, err
		}
		body = append(body, layer...)
	}
	return body, nil
}

func (db *DB) tileLayer(ctx context.Context, collection string, zoom int, x, y int64) ([]byte, error) {
	table, err := itemsTable(collection)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`
		WITH bounds AS (
			SELECT ST_TileEnvelope($1, $2, $3, margin => $4) AS envelope
		),
		mvtgeom AS (
			SELECT ST_AsMVTGeom(
			         ST_Transform(i.geom, %d),
			         bounds.envelope
			       ) AS geom,
			       i.properties
			  FROM %s i, bounds
			 WHERE ST_Transform(i.geom, %d) && bounds.envelope
		)
		SELECT ST_AsMVT(mvtgeom.*, $5) FROM mvtgeom`, webMercatorSRID, table, webMercatorSRID)

	var out []byte
	err = db.conn.GetContext(ctx, &out, stmt, zoom, x, y, mvtMarginRatio, collection)
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "build tile layer", err)
	}
	return out, nil
}

func parseZoom(matrixID string) (int, error) {
	var z int
	if _, err := fmt.Sscanf(strings.TrimSpace(matrixID), "%d", &z); err != nil {
		return 0, ogcerr.Newf(ogcerr.BadRequest, "tile matrix id %q is not a zoom integer", matrixID)
	}
	return z, nil
}
