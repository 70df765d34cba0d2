package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

// CreateFeature converts the incoming GeoJSON geometry to storage CRS at
// the SQL layer (spec.md §4.4, "Feature insert") and returns the assigned id.
func (db *DB) CreateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) (string, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return "", err
	}

	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}

	props, err := json.Marshal(f.Properties)
	if err != nil {
		return "", ogcerr.Wrap(ogcerr.Internal, "marshal properties", err)
	}
	links, err := json.Marshal(f.Links)
	if err != nil {
		return "", ogcerr.Wrap(ogcerr.Internal, "marshal links", err)
	}
	assets, err := json.Marshal(f.Assets)
	if err != nil {
		return "", ogcerr.Wrap(ogcerr.Internal, "marshal assets", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, collection, properties, geom, links, assets)
		VALUES ($1, $2, $3, ST_Transform(ST_GeomFromGeoJSON($4), $5), $6, $7)`, table)
	_, err = db.conn.ExecContext(ctx, stmt, id, collection, props, string(f.Geometry), inSRID, links, assets)
	if err != nil {
		return "", ogcerr.Wrap(ogcerr.Internal, "insert feature", err)
	}
	return id, nil
}

// ReadFeature transforms geom into the requested output CRS via
// ST_Transform and emits ST_AsGeoJSON(...)::jsonb (spec.md §4.4, "Feature read").
func (db *DB) ReadFeature(ctx context.Context, collection, id string, outSRID int) (*domain.Feature, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`
		SELECT id, properties,
		       ST_AsGeoJSON(ST_Transform(geom, $2))::jsonb AS geometry,
		       links, assets, bbox
		  FROM %s WHERE id = $1`, table)

	row := db.conn.QueryRowxContext(ctx, stmt, id, outSRID)
	f, err := scanFeature(row, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "read feature", err)
	}
	return f, nil
}

// UpdateFeature replaces a feature's properties/geometry in place
// (last-writer-wins, spec.md §5 "Ordering guarantees").
func (db *DB) UpdateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return err
	}
	props, err := json.Marshal(f.Properties)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal properties", err)
	}
	links, err := json.Marshal(f.Links)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal links", err)
	}
	assets, err := json.Marshal(f.Assets)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal assets", err)
	}

	stmt := fmt.Sprintf(`
		UPDATE %s SET properties=$2, geom=ST_Transform(ST_GeomFromGeoJSON($3), $4), links=$5, assets=$6
		 WHERE id=$1`, table)
	res, err := db.conn.ExecContext(ctx, stmt, f.ID, props, string(f.Geometry), inSRID, links, assets)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "update feature", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ogcerr.Newf(ogcerr.NotFound, "feature %q does not exist in collection %q", f.ID, collection)
	}
	return nil
}

// DeleteFeature removes a single feature by id.
func (db *DB) DeleteFeature(ctx context.Context, collection, id string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "delete feature", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ogcerr.Newf(ogcerr.NotFound, "feature %q does not exist in collection %q", id, collection)
	}
	return nil
}

// ListFeatures compiles the query into a predicated, paginated SELECT plus
// a parallel count(*) for number_matched (spec.md §4.4, "Feature list").
func (db *DB) ListFeatures(ctx context.Context, collection string, q query.FeatureListQuery, storageSRID, outSRID int) (*domain.FeatureCollection, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return nil, err
	}
	pred, err := db.compileFeatureListPredicates(q, storageSRID)
	if err != nil {
		return nil, err
	}

	where := pred.where()
	selectStmt := fmt.Sprintf(`
		SELECT id, properties,
		       ST_AsGeoJSON(ST_Transform(geom, $%d))::jsonb AS geometry,
		       links, assets, bbox
		  FROM %s
		 WHERE %s
		 ORDER BY id
		 LIMIT $%d OFFSET $%d`,
		len(pred.args)+1, table, where, len(pred.args)+2, len(pred.args)+3)

	args := append(append([]interface{}{}, pred.args...), outSRID, q.Limit, q.Offset)
	rows, err := db.conn.QueryxContext(ctx, selectStmt, args...)
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "list features", err)
	}
	defer rows.Close()

	features := make([]*domain.Feature, 0, q.Limit)
	for rows.Next() {
		f, err := scanFeatureRows(rows, collection)
		if err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "scan feature row", err)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "iterate feature rows", err)
	}

	countStmt := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table, where)
	var numberMatched int64
	if err := db.conn.GetContext(ctx, &numberMatched, countStmt, pred.args...); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "count features", err)
	}

	return domain.NewFeatureCollection(features, numberMatched), nil
}

// BulkInsertFeatures provides an UNNEST-based multi-row insert for external
// collaborators (data loaders), batched in chunks to bound transaction size
// (spec.md §4.4, "Bulk loader ... batched in chunks (<=10000 rows/batch)").
// Partial success is permitted: the caller observes how many chunks
// committed (spec.md §5, "Transaction boundaries").
func (db *DB) BulkInsertFeatures(ctx context.Context, collection string, features []*domain.Feature, inSRID int) (chunksCommitted int, err error) {
	table, err := itemsTable(collection)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(features); start += db.maxBatchSize {
		end := start + db.maxBatchSize
		if end > len(features) {
			end = len(features)
		}
		if err := db.insertChunk(ctx, table, collection, features[start:end], inSRID); err != nil {
			return chunksCommitted, fmt.Errorf("postgres: bulk insert chunk [%d:%d): %w", start, end, err)
		}
		chunksCommitted++
	}
	return chunksCommitted, nil
}

func (db *DB) insertChunk(ctx context.Context, table, collection string, chunk []*domain.Feature, inSRID int) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	ids := make([]string, len(chunk))
	props := make([]string, len(chunk))
	geoms := make([]string, len(chunk))
	for i, f := range chunk {
		id := f.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		p, err := json.Marshal(f.Properties)
		if err != nil {
			return ogcerr.Wrap(ogcerr.Internal, "marshal properties", err)
		}
		props[i] = string(p)
		geoms[i] = string(f.Geometry)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, collection, properties, geom)
		SELECT u.id, $2, u.props, ST_Transform(ST_GeomFromGeoJSON(u.g), $4)
		  FROM unnest($1::text[], $3::jsonb[], $5::text[]) AS u(id, props, g)`, table)

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "begin bulk insert transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt, pqStringArray(ids), collection, pqStringArray(props), inSRID, pqStringArray(geoms)); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "unnest insert", err)
	}
	return tx.Commit()
}
