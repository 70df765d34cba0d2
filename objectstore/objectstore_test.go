package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

func TestCollectionKey(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"roads", "collections/roads/collection.json"},
		{"buildings-2024", "collections/buildings-2024/collection.json"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := collectionKey(tt.id); got != tt.want {
				t.Errorf("collectionKey(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestItemKey(t *testing.T) {
	tests := []struct {
		collection, fid string
		want            string
	}{
		{"roads", "42", "collections/roads/items/42.json"},
		{"buildings", "a1b2", "collections/buildings/items/a1b2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := itemKey(tt.collection, tt.fid); got != tt.want {
				t.Errorf("itemKey(%q, %q) = %q, want %q", tt.collection, tt.fid, got, tt.want)
			}
		})
	}
}

func TestCreateFeatureRequiresID(t *testing.T) {
	s := &Store{}
	_, err := s.CreateFeature(context.Background(), "roads", &domain.Feature{}, 4326)
	if err == nil {
		t.Fatal("CreateFeature() with empty id should error")
	}
	var oe *ogcerr.Error
	if !errors.As(err, &oe) || oe.Kind != ogcerr.BadRequest {
		t.Errorf("CreateFeature() error kind = %v, want BadRequest", err)
	}
}

func TestListCollectionsUnsupported(t *testing.T) {
	s := &Store{}
	_, err := s.ListCollections(context.Background())
	assertUnsupported(t, err)
}

func TestListFeaturesUnsupported(t *testing.T) {
	s := &Store{}
	_, err := s.ListFeatures(context.Background(), "roads", query.FeatureListQuery{}, 4326, 4326)
	assertUnsupported(t, err)
}

func assertUnsupported(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an Unsupported error, got nil")
	}
	var oe *ogcerr.Error
	if !errors.As(err, &oe) || oe.Kind != ogcerr.Unsupported {
		t.Errorf("error kind = %v, want Unsupported", err)
	}
}
