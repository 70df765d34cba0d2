// Package driver defines the capability interfaces (spec.md §4.3,
// component C4) that the HTTP resource layer and process runtime depend
// on. Concrete implementations live in package postgres (C5, the SQL
// backend) and package objectstore (C6, the blob-store backend). The core
// never references a concrete database type directly (spec.md §9, "Do not
// expose a concrete database type from the core"), grounded on the
// ports/output pattern in jobrunner-ortus's internal/ports/output package.
package driver

import (
	"context"
	"io"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/query"
)

// CollectionTx manages collection metadata and its backing storage.
type CollectionTx interface {
	CreateCollection(ctx context.Context, c *domain.Collection) error
	ReadCollection(ctx context.Context, id string) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, c *domain.Collection) error
	DeleteCollection(ctx context.Context, id string) error
	ListCollections(ctx context.Context) ([]*domain.Collection, error)
}

// FeatureTx manages features within a collection. Read accepts an output
// CRS: "read crs selects output projection" (spec.md §4.3).
type FeatureTx interface {
	CreateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) (string, error)
	ReadFeature(ctx context.Context, collection, id string, outSRID int) (*domain.Feature, error)
	UpdateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) error
	DeleteFeature(ctx context.Context, collection, id string) error
	ListFeatures(ctx context.Context, collection string, q query.FeatureListQuery, storageSRID, outSRID int) (*domain.FeatureCollection, error)
}

// EdrQuerier answers Environmental Data Retrieval queries.
type EdrQuerier interface {
	QueryEDR(ctx context.Context, collection string, q query.EDRQuery, storageSRID int) (*domain.FeatureCollection, domain.CRS, error)
}

// StacSearch answers cross-collection STAC search.
type StacSearch interface {
	Search(ctx context.Context, q query.StacSearchQuery) (*domain.FeatureCollection, error)
}

// TileTx produces MVT tiles for one or more collections.
type TileTx interface {
	Tile(ctx context.Context, collections []string, tms *domain.TileMatrixSet, matrix string, row, col int64) ([]byte, error)
}

// StyleTx manages stored stylesheets.
type StyleTx interface {
	ListStyles(ctx context.Context) ([]*domain.Style, error)
	ReadStyle(ctx context.Context, id string) (*domain.Style, error)
}

// JobHandler manages the job lifecycle (spec.md §4.3, §4.7).
type JobHandler interface {
	Register(ctx context.Context, processID string, mode domain.ResponseMode) (*domain.Job, error)
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, message string, progress int) error
	Finish(ctx context.Context, jobID string, status domain.JobStatus, message string, links []domain.Link, results map[string]interface{}) error
	Status(ctx context.Context, jobID string) (*domain.Job, error)
	Dismiss(ctx context.Context, jobID string) (*domain.Job, error)
	StatusList(ctx context.Context, offset, limit int) ([]*domain.Job, error)
	Results(ctx context.Context, jobID string) (*domain.Job, error)
}

// BlobStore is the narrow Get/Put/Delete + byte-stream contract the object
// store backend (C6) is built from (spec.md §1, "only the Get/Put/Delete +
// byte-stream contract matters").
type BlobStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Backend bundles every driver contract a single storage backend
// implements; the SQL backend implements all of them, the object-store
// backend only CollectionTx/FeatureTx (spec.md §4.5 "Alternate
// implementation of CollectionTx/FeatureTx").
type Backend interface {
	CollectionTx
	FeatureTx
}
