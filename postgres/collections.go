package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// CreateCollection allocates the per-collection items table and its
// indexes, sets its storage SRID, and inserts the metadata document, all
// within one transaction (spec.md §4.4, "Per-collection table creation").
func (db *DB) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if !domain.ValidCollectionID(c.ID) {
		return ogcerr.Newf(ogcerr.BadRequest, "invalid collection id %q", c.ID)
	}
	storageCRS, err := crs.Parse(orDefault(c.StorageCRS, domain.DefaultCRSURI))
	if err != nil {
		return ogcerr.Wrap(ogcerr.BadRequest, "invalid storageCrs", err)
	}
	srid, err := crs.ToSRID(storageCRS)
	if err != nil {
		return ogcerr.Wrap(ogcerr.BadRequest, "storageCrs has no SRID mapping", err)
	}
	if !crs.Supports(c.CRS, c.StorageCRS) && len(c.CRS) > 0 {
		return ogcerr.New(ogcerr.BadRequest, "storage_crs must be a member of crs[]")
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(c.ID)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM meta.collections WHERE id=$1)`, c.ID); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "check collection exists", err)
	}
	if exists {
		return ogcerr.Newf(ogcerr.Conflict, "collection %q already exists", c.ID)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE %s (
			id          text PRIMARY KEY DEFAULT gen_random_uuid()::text,
			collection  text NOT NULL DEFAULT %s REFERENCES meta.collections(id),
			properties  jsonb,
			geom        geometry NOT NULL,
			links       jsonb NOT NULL DEFAULT '[]',
			assets      jsonb NOT NULL DEFAULT '{}',
			bbox        jsonb
		)`, table, quoteLiteral(c.ID))
	if _, err := tx.ExecContext(ctx, createTable); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "create items table", err)
	}

	idxBase := sanitizeIndexName(c.ID)
	indexStmts := []string{
		fmt.Sprintf(`CREATE INDEX %q ON %s (collection)`, idxBase+"_collection_idx", table),
		fmt.Sprintf(`CREATE INDEX %q ON %s USING GIN (properties)`, idxBase+"_properties_idx", table),
		fmt.Sprintf(`CREATE INDEX %q ON %s USING GIST (geom)`, idxBase+"_geom_idx", table),
	}
	for _, stmt := range indexStmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return ogcerr.Wrap(ogcerr.Internal, "create index", err)
		}
	}

	updateSRID := fmt.Sprintf(`SELECT UpdateGeometrySRID('items', %s, 'geom', $1)`, quoteLiteral(c.ID))
	if _, err := tx.ExecContext(ctx, updateSRID, srid); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "set geometry SRID", err)
	}

	doc, err := json.Marshal(c)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal collection", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta.collections (id, collection) VALUES ($1, $2)`, c.ID, doc); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "insert collection metadata", err)
	}

	if err := tx.Commit(); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "commit create collection", err)
	}
	return nil
}

// ReadCollection fetches the jsonb metadata document by id.
func (db *DB) ReadCollection(ctx context.Context, id string) (*domain.Collection, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var doc []byte
	err := db.conn.GetContext(ctx, &doc, `SELECT collection FROM meta.collections WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // "None"-equivalent per spec.md §4.3
	}
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "read collection", err)
	}
	var c domain.Collection
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "unmarshal collection", err)
	}
	return &c, nil
}

// UpdateCollection replaces the stored metadata document. It does not
// rewrite the data table: a changed storage_crs is rejected (spec.md §4.4,
// "it does not rewrite the data table -- changing storage_crs after
// creation is rejected"; SPEC_FULL.md Open Question 1 decision).
func (db *DB) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	existing, err := db.ReadCollection(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", c.ID)
	}
	if existing.StorageCRS != "" && c.StorageCRS != "" && existing.StorageCRS != c.StorageCRS {
		return ogcerr.New(ogcerr.BadRequest, "storage_crs is immutable after collection creation")
	}

	doc, err := json.Marshal(c)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal collection", err)
	}
	res, err := db.conn.ExecContext(ctx, `UPDATE meta.collections SET collection=$2 WHERE id=$1`, c.ID, doc)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "update collection", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", c.ID)
	}
	return nil
}

// DeleteCollection drops the items table and removes the meta row in one
// transaction (spec.md §4.4).
func (db *DB) DeleteCollection(ctx context.Context, id string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(id)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM meta.collections WHERE id=$1`, id)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "delete collection metadata", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", id)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "drop items table", err)
	}

	if err := tx.Commit(); err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "commit delete collection", err)
	}
	return nil
}

// ListCollections returns every collection's metadata document.
func (db *DB) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var docs [][]byte
	if err := db.conn.SelectContext(ctx, &docs, `SELECT collection FROM meta.collections ORDER BY id`); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "list collections", err)
	}
	result := make([]*domain.Collection, 0, len(docs))
	for _, doc := range docs {
		var c domain.Collection
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "unmarshal collection", err)
		}
		result = append(result, &c)
	}
	return result, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
