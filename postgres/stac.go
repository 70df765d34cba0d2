package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

const stacOutputSRID = 4326 // storage and advertised CRS for cross-collection STAC search

// Search builds a CTE over the requested (or all) collections' items
// tables and applies the same predicates as feature list/EDR (spec.md
// §4.4, "STAC cross-collection search").
func (db *DB) Search(ctx context.Context, q query.StacSearchQuery) (*domain.FeatureCollection, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	collections := q.Collections
	if len(collections) == 0 {
		all, err := db.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range all {
			collections = append(collections, c.ID)
		}
	}
	if len(collections) == 0 {
		return domain.NewFeatureCollection(nil, 0), nil
	}

	unionParts := make([]string, 0, len(collections))
	for _, cid := range collections {
		table, err := itemsTable(cid)
		if err != nil {
			return nil, err
		}
		unionParts = append(unionParts, fmt.Sprintf(`SELECT id, collection, properties, geom, links, assets, bbox FROM %s`, table))
	}
	cte := fmt.Sprintf(`WITH stac_items AS (%s)`, strings.Join(unionParts, " UNION ALL "))

	p := &predicateBuilder{}
	if q.Bbox != nil {
		p.add(`geom && ST_MakeEnvelope(?,?,?,?,4326)`, q.Bbox.Min[0], q.Bbox.Min[1], q.Bbox.Max[0], q.Bbox.Max[1])
	}
	datetimePredicate(p, q.Datetime)
	if len(q.IDs) > 0 {
		p.add(`id = ANY(?)`, pqStringArray(q.IDs))
	}
	if len(q.Intersects) > 0 {
		p.add(`ST_Intersects(geom, ST_SetSRID(ST_GeomFromGeoJSON(?), 4326))`, string(q.Intersects))
	}

	where := p.where()
	limit := q.Limit
	if limit == 0 || limit > 10_000 {
		limit = 100
	}
	stmt := fmt.Sprintf(`%s
		SELECT id, properties,
		       ST_AsGeoJSON(geom)::jsonb AS geometry,
		       links, assets, bbox
		  FROM stac_items
		 WHERE %s
		 ORDER BY id
		 LIMIT $%d OFFSET $%d`, cte, where, len(p.args)+1, len(p.args)+2)

	args := append(append([]interface{}{}, p.args...), limit, q.Offset)
	rows, err := db.conn.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "stac search", err)
	}
	defer rows.Close()

	features := make([]*domain.Feature, 0)
	for rows.Next() {
		f, err := scanFeatureRows(rows, "")
		if err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "scan stac row", err)
		}
		features = append(features, f)
	}
	return domain.NewFeatureCollection(features, int64(len(features))), nil
}
