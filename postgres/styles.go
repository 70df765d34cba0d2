package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// ListStyles returns every stored stylesheet set.
func (db *DB) ListStyles(ctx context.Context) ([]*domain.Style, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var docs [][]byte
	if err := db.conn.SelectContext(ctx, &docs, `SELECT value FROM meta.styles ORDER BY id`); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "list styles", err)
	}
	result := make([]*domain.Style, 0, len(docs))
	for _, doc := range docs {
		var s domain.Style
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "unmarshal style", err)
		}
		result = append(result, &s)
	}
	return result, nil
}

// ReadStyle returns a single stylesheet set by id, or nil if it doesn't exist.
func (db *DB) ReadStyle(ctx context.Context, id string) (*domain.Style, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var doc []byte
	err := db.conn.GetContext(ctx, &doc, `SELECT value FROM meta.styles WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "read style", err)
	}
	var s domain.Style
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "unmarshal style", err)
	}
	return &s, nil
}
