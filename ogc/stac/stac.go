// Package stac implements STAC cross-collection search (spec.md §4.6:
// "GET,POST /search"), backed by driver.StacSearch (C4) and package
// query's STAC parsing (C3). Structured after ogc/collections.
package stac

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

const conformanceClass = "https://api.stacspec.org/v1.0.0/item-search"

// Stac implements GET,POST /search.
type Stac struct {
	engine *engine.Engine
	tx     driver.StacSearch
}

// NewStac registers the search routes on router.
func NewStac(e *engine.Engine, router chi.Router, tx driver.StacSearch) *Stac {
	e.AddConformanceClasses(conformanceClass)
	e.AddLandingPageLinks(domain.Link{Href: "./search", Rel: "search", Type: "application/geo+json", Title: "STAC search"})

	s := &Stac{engine: e, tx: tx}
	router.Get("/search", s.SearchGet())
	router.Post("/search", s.SearchPost())
	return s
}

func (s *Stac) SearchGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := query.ParseStacSearchQuery(r.URL.Query(), s.engine.Config.Limits.MaxLimit)
		if err != nil {
			s.engine.WriteError(w, r, err)
			return
		}
		s.respond(w, r, q)
	}
}

func (s *Stac) SearchPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		q, err := query.ParseStacSearchBody(body, s.engine.Config.Limits.MaxLimit)
		if err != nil {
			s.engine.WriteError(w, r, err)
			return
		}
		s.respond(w, r, q)
	}
}

func (s *Stac) respond(w http.ResponseWriter, r *http.Request, q query.StacSearchQuery) {
	fc, err := s.tx.Search(r.Context(), q)
	if err != nil {
		s.engine.WriteError(w, r, err)
		return
	}
	fc.Type = "FeatureCollection"
	fc.Links = engine.ResolveLinks(r, append(fc.Links, engine.RootLink(r)))
	fc.Links = append(fc.Links, engine.PaginationLinks(r, q.Offset, q.Limit, *fc.NumberMatched)...)

	s.engine.WriteJSON(w, http.StatusOK, engine.FormatGeoJSON, fc)
}
