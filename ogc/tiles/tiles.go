// Package tiles implements OGC API - Tiles routes (spec.md §4.6:
// "GET /tileMatrixSets", "GET /tileMatrixSets/{id}",
// "GET /tiles/{tms}/{z}/{x}/{y}",
// "GET /collections/{cid}/tiles/{tms}/{z}/{x}/{y}"), backed by
// driver.TileTx (C4) and the process-wide tileset registry (spec.md §5).
// Structured after ogc/collections.
package tiles

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-tiles-1/1.0/conf/core"

// Tiles implements the tile matrix set and tile-data routes.
type Tiles struct {
	engine      *engine.Engine
	collections driver.CollectionTx
	tx          driver.TileTx
	sets        map[string]*domain.TileMatrixSet
}

// NewTiles registers tile routes on router. sets is the immutable,
// process-wide tile matrix set registry built at startup (spec.md §5).
func NewTiles(e *engine.Engine, router chi.Router, collections driver.CollectionTx, tx driver.TileTx, sets map[string]*domain.TileMatrixSet) *Tiles {
	e.AddConformanceClasses(conformanceClass)
	e.AddLandingPageLinks(domain.Link{Href: "./tileMatrixSets", Rel: "http://www.opengis.net/def/rel/ogc/1.0/tiling-schemes", Type: "application/json", Title: "Tile matrix sets"})

	t := &Tiles{engine: e, collections: collections, tx: tx, sets: sets}
	router.Get("/tileMatrixSets", t.ListTileMatrixSets())
	router.Get("/tileMatrixSets/{tmsId}", t.ReadTileMatrixSet())
	router.Get("/tiles/{tmsId}/{z}/{x}/{y}", t.Tile(nil))
	router.Get("/collections/{cid}/tiles/{tmsId}/{z}/{x}/{y}", t.Tile(collectionFromPath))
	return t
}

func collectionFromPath(r *http.Request) []string {
	return []string{chi.URLParam(r, "cid")}
}

type tileMatrixSetsDoc struct {
	Links        []domain.Link           `json:"links"`
	TileMatrixSets []tileMatrixSetSummary `json:"tileMatrixSets"`
}

type tileMatrixSetSummary struct {
	ID    string        `json:"id"`
	Title string        `json:"title,omitempty"`
	Links []domain.Link `json:"links"`
}

func (t *Tiles) ListTileMatrixSets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := tileMatrixSetsDoc{
			Links: engine.ResolveLinks(r, nil),
		}
		for _, id := range sortedKeys(t.sets) {
			doc.TileMatrixSets = append(doc.TileMatrixSets, tileMatrixSetSummary{
				ID:    id,
				Title: t.sets[id].Title,
				Links: engine.ResolveLinks(r, []domain.Link{{Href: "./" + id, Rel: "self", Type: "application/json"}}),
			})
		}
		t.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, doc)
	}
}

func (t *Tiles) ReadTileMatrixSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "tmsId")
		tms, ok := t.sets[id]
		if !ok {
			t.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "tile matrix set %q does not exist", id))
			return
		}
		t.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, tms)
	}
}

// Tile serves a single MVT tile. collectionsFn resolves which collection(s)
// to aggregate into the tile's layers; nil means "every collection"
// (spec.md §4.4, the bare /tiles/{tms}/{z}/{x}/{y} route).
func (t *Tiles) Tile(collectionsFn func(*http.Request) []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmsID := chi.URLParam(r, "tmsId")
		tms, ok := t.sets[tmsID]
		if !ok {
			t.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "tile matrix set %q does not exist", tmsID))
			return
		}
		z := chi.URLParam(r, "z")
		x, err := strconv.ParseInt(chi.URLParam(r, "x"), 10, 64)
		if err != nil {
			t.engine.WriteError(w, r, ogcerr.New(ogcerr.BadRequest, "x must be an integer"))
			return
		}
		y, err := strconv.ParseInt(chi.URLParam(r, "y"), 10, 64)
		if err != nil {
			t.engine.WriteError(w, r, ogcerr.New(ogcerr.BadRequest, "y must be an integer"))
			return
		}

		var collections []string
		if collectionsFn != nil {
			collections = collectionsFn(r)
			coll, err := t.collections.ReadCollection(r.Context(), collections[0])
			if err != nil {
				t.engine.WriteError(w, r, err)
				return
			}
			if coll == nil {
				t.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", collections[0]))
				return
			}
		} else {
			all, err := t.collections.ListCollections(r.Context())
			if err != nil {
				t.engine.WriteError(w, r, err)
				return
			}
			for _, c := range all {
				collections = append(collections, c.ID)
			}
		}

		body, err := t.tx.Tile(r.Context(), collections, tms, z, y, x)
		if err != nil {
			t.engine.WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", t.engine.CN.MediaType(engine.FormatMVT))
		engine.SafeWrite(w.Write, body)
	}
}

func sortedKeys(m map[string]*domain.TileMatrixSet) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
