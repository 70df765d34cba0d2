// Package common implements OGC API Common Part 1 (spec.md §4.6, routes
// "GET /", "GET /api", "GET /conformance"): the landing page, the bundled
// OpenAPI document, and the conformance-class list. Structured after the
// teacher's per-family ogc/styles package (a small struct holding *engine.Engine,
// one constructor wiring chi routes, one http.HandlerFunc method per route).
package common

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/engine"
)

// BaseConformanceClasses are always advertised; OGC API family members
// add their own via engine.AddConformanceClasses at wiring time.
var BaseConformanceClasses = []string{
	"http://www.opengis.net/spec/ogcapi-common-1/1.0/conf/core",
	"http://www.opengis.net/spec/ogcapi-common-2/1.0/conf/collections",
}

// Common implements the landing page, conformance and OpenAPI routes.
type Common struct {
	engine      *engine.Engine
	openAPIFile string
}

// NewCommon registers OGC API Common routes and returns the handler.
func NewCommon(e *engine.Engine, router chi.Router, openAPIFile string) *Common {
	e.AddConformanceClasses(BaseConformanceClasses...)

	c := &Common{engine: e, openAPIFile: openAPIFile}
	router.Get("/", c.LandingPage())
	router.Get("/api", c.OpenAPI())
	router.Get("/conformance", c.Conformance())
	return c
}

// landingPage is the JSON body of GET / (spec.md §3, a document built from
// Link[] plus title/description, not a standalone entity).
type landingPage struct {
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Links       []domain.Link `json:"links"`
}

func (c *Common) LandingPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links := append([]domain.Link{
			{Href: ".", Rel: "self", Type: "application/json", Title: "This document"},
			{Href: "./api", Rel: "service-desc", Type: c.engine.CN.MediaType(engine.FormatOpenAPI), Title: "OpenAPI document"},
			{Href: "./conformance", Rel: "conformance", Type: "application/json", Title: "Conformance classes"},
			{Href: "./collections", Rel: "data", Type: "application/json", Title: "Collections"},
		}, c.engine.LandingPageLinks()...)

		page := landingPage{
			Title:       c.engine.Config.Title,
			Description: c.engine.Config.Abstract,
			Links:       engine.ResolveLinks(r, links),
		}
		c.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, page)
	}
}

type conformanceDoc struct {
	ConformsTo []string `json:"conformsTo"`
}

func (c *Common) Conformance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, conformanceDoc{ConformsTo: c.engine.ConformanceClasses()})
	}
}

// OpenAPI serves the bundled OpenAPI document file as-is (spec.md §1,
// "the OpenAPI document itself" is out of scope -- this just streams the
// bundled YAML/JSON with the right media type, no validation).
func (c *Common) OpenAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.openAPIFile == "" {
			http.NotFound(w, r)
			return
		}
		body, err := os.ReadFile(c.openAPIFile)
		if err != nil {
			c.engine.WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", c.engine.CN.MediaType(engine.FormatOpenAPI))
		engine.SafeWrite(w.Write, body)
	}
}
