// Package objectstore implements the object-store backend (spec.md §4.5,
// component C6): an alternate CollectionTx/FeatureTx implementation over a
// key-value blob store with a JSON-per-object layout. Grounded directly on
// jobrunner-ortus's internal/adapters/storage/s3.go (aws-sdk-go-v2 S3
// client construction, static-credential/custom-endpoint options), adapted
// from a GeoPackage-file mirror to whole-document JSON roundtrips.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

// Config configures the S3-compatible object store backend.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Store is the S3-backed implementation of driver.BlobStore plus
// driver.CollectionTx/FeatureTx over the key layout in spec.md §4.5:
// collections/{id}/collection.json, collections/{id}/items/{fid}.json.
type Store struct {
	client      *s3.Client
	bucket      string
	transformer *crs.Transformer
}

// New builds a Store, following the teacher-adjacent construction pattern
// from jobrunner-ortus's NewS3Storage (static credentials if provided,
// path-style addressing for non-AWS S3-compatible endpoints).
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	transformer, err := crs.NewTransformer()
	if err != nil {
		return nil, fmt.Errorf("objectstore: init crs transformer: %w", err)
	}
	return &Store{
		client:      s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:      cfg.Bucket,
		transformer: transformer,
	}, nil
}

// Get returns a reader for the given object.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, ogcerr.Newf(ogcerr.NotFound, "object %q does not exist", key)
		}
		return nil, ogcerr.Wrap(ogcerr.Internal, "get object", err)
	}
	return resp.Body, nil
}

// Put uploads body under key with the given content type.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "put object", err)
	}
	return nil
}

// Delete removes a single object.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "delete object", err)
	}
	return nil
}

// Exists checks for object presence via HeadObject.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, ogcerr.Wrap(ogcerr.Internal, "head object", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == 404
	}
	return false
}

func collectionKey(id string) string { return fmt.Sprintf("collections/%s/collection.json", id) }
func itemKey(collection, fid string) string {
	return fmt.Sprintf("collections/%s/items/%s.json", collection, fid)
}

// CreateCollection writes the collection document as a whole-object JSON roundtrip.
func (s *Store) CreateCollection(ctx context.Context, c *domain.Collection) error {
	exists, err := s.Exists(ctx, collectionKey(c.ID))
	if err != nil {
		return err
	}
	if exists {
		return ogcerr.Newf(ogcerr.Conflict, "collection %q already exists", c.ID)
	}
	return s.putJSON(ctx, collectionKey(c.ID), c)
}

// ReadCollection reads back the collection document.
func (s *Store) ReadCollection(ctx context.Context, id string) (*domain.Collection, error) {
	var c domain.Collection
	ok, err := s.getJSON(ctx, collectionKey(id), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

// UpdateCollection overwrites the collection document.
func (s *Store) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	existing, err := s.ReadCollection(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", c.ID)
	}
	return s.putJSON(ctx, collectionKey(c.ID), c)
}

// DeleteCollection removes the collection document only. Item documents
// under collections/{id}/items/ are not deleted: the Get/Put/Delete
// contract has no prefix-delete primitive.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	return s.Delete(ctx, collectionKey(id))
}

// ListCollections is unsupported on the object-store backend: listing
// requires enumerating keys by prefix, a capability the narrow
// Get/Put/Delete contract (spec.md §1) deliberately excludes.
func (s *Store) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	return nil, ogcerr.New(ogcerr.Unsupported, "list_collections is deliberately unsupported on the object-store backend")
}

// storageSRID resolves a collection's storage CRS to its SRID by reading
// its metadata document (the object store has no per-collection SQL schema
// to carry this, so it is looked up on every call instead).
func (s *Store) storageSRID(ctx context.Context, collection string) (int, error) {
	c, err := s.ReadCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", collection)
	}
	sc, err := crs.Parse(c.StorageCRS)
	if err != nil {
		return 0, ogcerr.Wrap(ogcerr.Internal, "collection has invalid storageCrs", err)
	}
	return crs.ToSRID(sc)
}

// CreateFeature writes collections/{id}/items/{fid}.json, converting the
// incoming geometry to the collection's storage CRS first (spec.md §3,
// Feature invariants: "on write, geometry is converted to storage CRS").
func (s *Store) CreateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) (string, error) {
	if f.ID == "" {
		return "", ogcerr.New(ogcerr.BadRequest, "feature id is required on the object-store backend")
	}
	storageSRID, err := s.storageSRID(ctx, collection)
	if err != nil {
		return "", err
	}
	if f.Geometry != nil {
		g, err := s.transformer.TransformGeometry(f.Geometry, inSRID, storageSRID)
		if err != nil {
			return "", ogcerr.Wrap(ogcerr.BadRequest, "transform geometry to storage crs", err)
		}
		f.Geometry = g
	}
	if err := s.putJSON(ctx, itemKey(collection, f.ID), f); err != nil {
		return "", err
	}
	return f.ID, nil
}

// ReadFeature reads back a single feature document and reprojects its
// geometry from the collection's storage CRS to outSRID (spec.md §4.3,
// "read crs selects output projection"); the SQL backend instead pushes
// this down to PostGIS's ST_Transform.
func (s *Store) ReadFeature(ctx context.Context, collection, id string, outSRID int) (*domain.Feature, error) {
	var f domain.Feature
	ok, err := s.getJSON(ctx, itemKey(collection, id), &f)
	if err != nil || !ok {
		return nil, err
	}
	storageSRID, err := s.storageSRID(ctx, collection)
	if err != nil {
		return nil, err
	}
	if f.Geometry != nil && outSRID != 0 {
		g, err := s.transformer.TransformGeometry(f.Geometry, storageSRID, outSRID)
		if err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "transform geometry to requested crs", err)
		}
		f.Geometry = g
	}
	return &f, nil
}

// UpdateFeature overwrites a feature document, converting the incoming
// geometry to the collection's storage CRS first, same as CreateFeature.
func (s *Store) UpdateFeature(ctx context.Context, collection string, f *domain.Feature, inSRID int) error {
	existing, err := s.ReadFeature(ctx, collection, f.ID, 0)
	if err != nil {
		return err
	}
	if existing == nil {
		return ogcerr.Newf(ogcerr.NotFound, "feature %q does not exist in collection %q", f.ID, collection)
	}
	storageSRID, err := s.storageSRID(ctx, collection)
	if err != nil {
		return err
	}
	if f.Geometry != nil {
		g, err := s.transformer.TransformGeometry(f.Geometry, inSRID, storageSRID)
		if err != nil {
			return ogcerr.Wrap(ogcerr.BadRequest, "transform geometry to storage crs", err)
		}
		f.Geometry = g
	}
	return s.putJSON(ctx, itemKey(collection, f.ID), f)
}

// DeleteFeature removes a feature document.
func (s *Store) DeleteFeature(ctx context.Context, collection, id string) error {
	return s.Delete(ctx, itemKey(collection, id))
}

// ListFeatures is deliberately unsupported (spec.md §4.5, "list_items is
// deliberately unsupported (returns Unimplemented)").
func (s *Store) ListFeatures(ctx context.Context, collection string, _ query.FeatureListQuery, _, _ int) (*domain.FeatureCollection, error) {
	return nil, ogcerr.New(ogcerr.Unsupported, "list_items is deliberately unsupported on the object-store backend")
}

func (s *Store) putJSON(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal object", err)
	}
	return s.Put(ctx, key, bytes.NewReader(body), "application/json")
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	r, err := s.Get(ctx, key)
	if err != nil {
		var oe *ogcerr.Error
		if errors.As(err, &oe) && oe.Kind == ogcerr.NotFound {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = r.Close() }()
	body, err := io.ReadAll(r)
	if err != nil {
		return false, ogcerr.Wrap(ogcerr.Internal, "read object", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, ogcerr.Wrap(ogcerr.Internal, "unmarshal object", err)
	}
	return true, nil
}
