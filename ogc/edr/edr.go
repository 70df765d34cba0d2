// Package edr implements OGC API - Environmental Data Retrieval query
// routes (spec.md §4.6: "GET /collections/{cid}/{query_type}" for
// position/radius/area/cube/trajectory/corridor/locations), backed by
// driver.EdrQuerier (C4) and package query's EDR parsing (C3). Structured
// after ogc/collections, the query_type itself coming from the URL path
// rather than a parameter (spec.md §4.2).
package edr

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-edr-1/1.1/conf/core"

var queryTypes = []query.EDRQueryType{
	query.EDRPosition, query.EDRRadius, query.EDRArea, query.EDRCube,
	query.EDRTrajectory, query.EDRCorridor, query.EDRLocations,
}

// EDR implements the EDR query routes.
type EDR struct {
	engine      *engine.Engine
	collections driver.CollectionTx
	tx          driver.EdrQuerier
}

// NewEDR registers one route per EDR query type on router.
func NewEDR(e *engine.Engine, router chi.Router, collections driver.CollectionTx, tx driver.EdrQuerier) *EDR {
	e.AddConformanceClasses(conformanceClass)

	ed := &EDR{engine: e, collections: collections, tx: tx}
	for _, qt := range queryTypes {
		router.Get("/collections/{cid}/"+string(qt), ed.Query(qt))
	}
	return ed
}

func (ed *EDR) Query(queryType query.EDRQueryType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")

		coll, err := ed.collections.ReadCollection(r.Context(), cid)
		if err != nil {
			ed.engine.WriteError(w, r, err)
			return
		}
		if coll == nil {
			ed.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "collection %q does not exist", cid))
			return
		}
		storageCRS, err := crs.Parse(coll.StorageCRS)
		if err != nil {
			ed.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.Internal, "collection has invalid storageCrs", err))
			return
		}
		storageSRID, err := crs.ToSRID(storageCRS)
		if err != nil {
			ed.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.Internal, "collection storageCrs has no SRID mapping", err))
			return
		}

		q, err := query.ParseEDRQuery(queryType, r.URL.Query(), ed.engine.Config.Limits.MaxLimit)
		if err != nil {
			ed.engine.WriteError(w, r, err)
			return
		}

		fc, responseCRS, err := ed.tx.QueryEDR(r.Context(), cid, q, storageSRID)
		if err != nil {
			ed.engine.WriteError(w, r, err)
			return
		}
		fc.Type = "FeatureCollection"
		fc.Links = engine.ResolveLinks(r, append(fc.Links,
			domain.Link{Href: "..", Rel: "collection", Type: "application/json"},
			engine.RootLink(r)))

		w.Header().Set("Content-Crs", crs.Format(responseCRS))
		ed.engine.WriteJSON(w, http.StatusOK, engine.FormatGeoJSON, fc)
	}
}
