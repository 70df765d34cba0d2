// Package features implements OGC API Features item routes (spec.md §4.6:
// "GET,POST /collections/{cid}/items", "GET,PUT,DELETE
// /collections/{cid}/items/{id}"). It parses request parameters via
// package query (C3), resolves CRS via package crs (C2), and delegates
// storage to driver.FeatureTx (C4). Replaces the teacher's GeoPackage-backed
// ogc/features/main.go: same per-family package shape (a struct holding
// *engine.Engine, one constructor wiring chi routes), generalized storage.
package features

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"

// Features implements the feature CRUD + list routes.
type Features struct {
	engine      *engine.Engine
	collections driver.CollectionTx
	items       driver.FeatureTx
}

// NewFeatures registers feature routes on router.
func NewFeatures(e *engine.Engine, router chi.Router, collections driver.CollectionTx, items driver.FeatureTx) *Features {
	e.AddConformanceClasses(conformanceClass)

	f := &Features{engine: e, collections: collections, items: items}
	router.Get("/collections/{cid}/items", f.List())
	router.Post("/collections/{cid}/items", f.Create())
	router.Get("/collections/{cid}/items/{id}", f.Read())
	router.Put("/collections/{cid}/items/{id}", f.Update())
	router.Delete("/collections/{cid}/items/{id}", f.Delete())
	return f
}

// loadCollection fetches the parent collection and its storage SRID,
// writing a 404 and returning ok=false if it does not exist.
func (f *Features) loadCollection(w http.ResponseWriter, r *http.Request, cid string) (coll *domain.Collection, storageSRID int, ok bool) {
	coll, err := f.collections.ReadCollection(r.Context(), cid)
	if err != nil {
		f.engine.WriteError(w, r, err)
		return nil, 0, false
	}
	if coll == nil {
		f.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", cid))
		return nil, 0, false
	}
	storageCRS, err := crs.Parse(coll.StorageCRS)
	if err != nil {
		f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.Internal, "collection has invalid storageCrs", err))
		return nil, 0, false
	}
	srid, err := crs.ToSRID(storageCRS)
	if err != nil {
		f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.Internal, "collection storageCrs has no SRID mapping", err))
		return nil, 0, false
	}
	return coll, srid, true
}

// knownProperties derives the collection's recognized property-filter
// names from its STAC `summaries` map (spec.md §4.2, "any otherwise-
// unrecognized parameter whose key is a property name in the collection's
// schema" -- summaries is the closest thing to a property schema this
// data model carries, per SPEC_FULL.md's STAC extension fields).
func knownProperties(coll *domain.Collection) map[string]bool {
	known := make(map[string]bool, len(coll.Summaries))
	for k := range coll.Summaries {
		known[k] = true
	}
	return known
}

func (f *Features) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		coll, storageSRID, ok := f.loadCollection(w, r, cid)
		if !ok {
			return
		}

		q, err := query.ParseFeatureListQuery(r.URL.Query(), knownProperties(coll), f.engine.Config.Limits.MaxLimit)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		if !crs.Supports(coll.CRS, crs.Format(q.CRS)) && q.CRS != domain.DefaultCRS {
			f.engine.WriteError(w, r, ogcerr.Newf(ogcerr.BadRequest, "collection %q does not support crs %q", cid, crs.Format(q.CRS)))
			return
		}
		outSRID, err := crs.ToSRID(q.CRS)
		if err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err))
			return
		}

		fc, err := f.items.ListFeatures(r.Context(), cid, q, storageSRID, outSRID)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		fc.Type = "FeatureCollection"
		fc.Links = engine.ResolveLinks(r, append(fc.Links,
			domain.Link{Href: "..", Rel: "collection", Type: "application/json"},
			engine.RootLink(r)))
		fc.Links = append(fc.Links, engine.PaginationLinks(r, q.Offset, q.Limit, *fc.NumberMatched)...)

		w.Header().Set("Content-Crs", crs.Format(q.CRS))
		f.engine.WriteJSON(w, http.StatusOK, engine.FormatGeoJSON, fc)
	}
}

func (f *Features) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		_, storageSRID, ok := f.loadCollection(w, r, cid)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		var feat domain.Feature
		if err := json.Unmarshal(body, &feat); err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid feature document", err))
			return
		}
		feat.Collection = cid

		inSRID, err := requestCRS(r, storageSRID)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}

		id, err := f.items.CreateFeature(r.Context(), cid, &feat, inSRID)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		w.Header().Set("Location", engine.RequestBaseURL(r).String()+"/collections/"+cid+"/items/"+id)
		w.WriteHeader(http.StatusCreated)
	}
}

func (f *Features) Read() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		id := chi.URLParam(r, "id")
		_, storageSRID, ok := f.loadCollection(w, r, cid)
		if !ok {
			return
		}

		outCRS := domain.DefaultCRS
		if v := r.URL.Query().Get("crs"); v != "" {
			parsed, err := crs.Parse(v)
			if err != nil {
				f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err))
				return
			}
			outCRS = parsed
		}
		outSRID, err := crs.ToSRID(outCRS)
		if err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err))
			return
		}

		feat, err := f.items.ReadFeature(r.Context(), cid, id, outSRID)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		if feat == nil {
			f.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "feature %q does not exist in collection %q", id, cid))
			return
		}
		feat.Type = "Feature"
		feat.Links = engine.ResolveLinks(r, append(feat.Links,
			domain.Link{Href: "../..", Rel: "collection", Type: "application/json"}))

		w.Header().Set("Content-Crs", crs.Format(outCRS))
		f.engine.WriteJSON(w, http.StatusOK, engine.FormatGeoJSON, feat)
	}
}

func (f *Features) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		id := chi.URLParam(r, "id")
		_, storageSRID, ok := f.loadCollection(w, r, cid)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		var feat domain.Feature
		if err := json.Unmarshal(body, &feat); err != nil {
			f.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid feature document", err))
			return
		}
		feat.ID = id
		feat.Collection = cid

		inSRID, err := requestCRS(r, storageSRID)
		if err != nil {
			f.engine.WriteError(w, r, err)
			return
		}

		if err := f.items.UpdateFeature(r.Context(), cid, &feat, inSRID); err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *Features) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		id := chi.URLParam(r, "id")
		if err := f.items.DeleteFeature(r.Context(), cid, id); err != nil {
			f.engine.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// requestCRS resolves the CRS a write body's geometry is expressed in: the
// `crs` query parameter if given, else the collection's storage CRS
// (spec.md §4.4, "geometry arrives as GeoJSON in the request CRS").
func requestCRS(r *http.Request, storageSRID int) (int, error) {
	v := r.URL.Query().Get("crs")
	if v == "" {
		return storageSRID, nil
	}
	parsed, err := crs.Parse(v)
	if err != nil {
		return 0, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err)
	}
	return crs.ToSRID(parsed)
}
