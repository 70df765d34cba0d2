// Package collections implements the OGC API Common Part 2 / Features
// collection-management routes (spec.md §4.6: "GET,POST /collections",
// "GET,PUT,DELETE /collections/{cid}"), driven by driver.CollectionTx (C4)
// and backed by the SQL or object-store implementation chosen at startup.
package collections

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-common-2/1.0/conf/collections"

// Collections implements the collection CRUD + listing routes.
type Collections struct {
	engine *engine.Engine
	tx     driver.CollectionTx
}

// NewCollections registers collection routes on router.
func NewCollections(e *engine.Engine, router chi.Router, tx driver.CollectionTx) *Collections {
	e.AddConformanceClasses(conformanceClass)
	e.AddLandingPageLinks(domain.Link{Href: "./collections", Rel: "data", Type: "application/json", Title: "Collections"})

	c := &Collections{engine: e, tx: tx}
	router.Get("/collections", c.List())
	router.Post("/collections", c.Create())
	router.Get("/collections/{cid}", c.Read())
	router.Put("/collections/{cid}", c.Update())
	router.Delete("/collections/{cid}", c.Delete())
	return c
}

type collectionsDoc struct {
	Links       []domain.Link        `json:"links"`
	Collections []*domain.Collection `json:"collections"`
}

func (c *Collections) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := c.tx.ListCollections(r.Context())
		if err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		for _, coll := range all {
			coll.Links = engine.ResolveLinks(r, append(coll.Links,
				domain.Link{Href: "./" + coll.ID, Rel: "self", Type: "application/json"}))
		}
		doc := collectionsDoc{
			Links:       engine.ResolveLinks(r, []domain.Link{{Href: ".", Rel: "self", Type: "application/json"}}),
			Collections: all,
		}
		c.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, doc)
	}
}

func (c *Collections) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			c.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		var coll domain.Collection
		if err := json.Unmarshal(body, &coll); err != nil {
			c.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid collection document", err))
			return
		}
		if !domain.ValidCollectionID(coll.ID) {
			c.engine.WriteError(w, r, ogcerr.Newf(ogcerr.BadRequest, "invalid collection id %q", coll.ID))
			return
		}
		if coll.StorageCRS == "" {
			coll.StorageCRS = domain.DefaultCRSURI
		}
		if len(coll.CRS) == 0 {
			coll.CRS = []string{domain.DefaultCRSURI}
		}
		if err := c.tx.CreateCollection(r.Context(), &coll); err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		w.Header().Set("Location", engine.RequestBaseURL(r).String()+"/collections/"+coll.ID)
		c.engine.WriteJSON(w, http.StatusCreated, engine.FormatJSON, &coll)
	}
}

func (c *Collections) Read() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cid")
		coll, err := c.tx.ReadCollection(r.Context(), id)
		if err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		if coll == nil {
			c.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", id))
			return
		}
		coll.Links = engine.ResolveLinks(r, append(coll.Links,
			domain.Link{Href: "..", Rel: "collection", Type: "application/json"},
			domain.Link{Href: "./items", Rel: "items", Type: c.engine.CN.MediaType(engine.FormatGeoJSON)}))
		c.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, coll)
	}
}

func (c *Collections) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cid")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			c.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		var coll domain.Collection
		if err := json.Unmarshal(body, &coll); err != nil {
			c.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid collection document", err))
			return
		}
		coll.ID = id
		if err := c.tx.UpdateCollection(r.Context(), &coll); err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Collections) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cid")
		if err := c.tx.DeleteCollection(r.Context(), id); err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
