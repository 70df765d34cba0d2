// Package styles implements OGC API - Styles routes (spec.md §4.6:
// "GET /styles", "GET /styles/{id}"), backed by driver.StyleTx (C4).
// Replaces the teacher's static-config-driven ogc/styles/main.go (which
// rendered HTML template pages from engine.Config.OgcAPIStyles); this
// package keeps the same struct/constructor/handler shape but serves
// JSON documents persisted through StyleTx instead.
package styles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-styles-1/1.0/conf/core"

// Styles implements the style listing and retrieval routes.
type Styles struct {
	engine *engine.Engine
	tx     driver.StyleTx
}

// NewStyles registers style routes on router.
func NewStyles(e *engine.Engine, router chi.Router, tx driver.StyleTx) *Styles {
	e.AddConformanceClasses(conformanceClass)
	e.AddLandingPageLinks(domain.Link{Href: "./styles", Rel: "styles", Type: "application/json", Title: "Styles"})

	s := &Styles{engine: e, tx: tx}
	router.Get("/styles", s.List())
	router.Get("/styles/{id}", s.Read())
	return s
}

type stylesDoc struct {
	Links  []domain.Link   `json:"links"`
	Styles []*domain.Style `json:"styles"`
}

func (s *Styles) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.tx.ListStyles(r.Context())
		if err != nil {
			s.engine.WriteError(w, r, err)
			return
		}
		for _, style := range all {
			style.Links = engine.ResolveLinks(r, append(style.Links,
				domain.Link{Href: "./" + style.ID, Rel: "self", Type: "application/json"}))
		}
		doc := stylesDoc{
			Links:  engine.ResolveLinks(r, nil),
			Styles: all,
		}
		s.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, doc)
	}
}

func (s *Styles) Read() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		style, err := s.tx.ReadStyle(r.Context(), id)
		if err != nil {
			s.engine.WriteError(w, r, err)
			return
		}
		if style == nil {
			s.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "style %q does not exist", id))
			return
		}
		style.Links = engine.ResolveLinks(r, append(style.Links, engine.RootLink(r)))
		s.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, style)
	}
}
