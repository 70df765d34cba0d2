package engine

import (
	"net/http"
	"strings"
)

// Format is a negotiated response representation. This system is
// JSON/GeoJSON only (spec.md §6, "Response envelope ... JSON by default");
// there is no HTML surface, unlike the teacher's templated pages.
type Format string

const (
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatProblem Format = "problem"
	FormatOpenAPI Format = "openapi"
	FormatMVT     Format = "mvt"
)

// ContentNegotiation maps formats to media types and negotiates a response
// format from the request's `f` query parameter or Accept header,
// generalized from the teacher's engine.ContentNegotiation (which
// negotiated HTML vs JSON vs a handful of style formats) down to this
// system's fixed small set of JSON-family media types.
type ContentNegotiation struct {
	mediaTypes map[Format]string
}

func newContentNegotiation() *ContentNegotiation {
	return &ContentNegotiation{
		mediaTypes: map[Format]string{
			FormatJSON:    "application/json",
			FormatGeoJSON: "application/geo+json",
			FormatProblem: "application/problem+json",
			FormatOpenAPI: "application/vnd.oai.openapi+json;version=3.0",
			FormatMVT:     "application/vnd.mapbox-vector-tile",
		},
	}
}

// MediaType returns the Content-Type value for a negotiated format.
func (cn *ContentNegotiation) MediaType(f Format) string {
	return cn.mediaTypes[f]
}

// NegotiateFormat picks GeoJSON when the `f` query parameter is "geojson",
// JSON when it is "json", otherwise GeoJSON only if the Accept header asks
// for geo+json and JSON in every other case; in this API, format is otherwise dictated by the resource kind
// (features negotiate geo+json, everything else plain json), spec.md §6.
func (cn *ContentNegotiation) NegotiateFormat(r *http.Request) Format {
	if v := r.URL.Query().Get("f"); v != "" {
		switch strings.ToLower(v) {
		case "geojson":
			return FormatGeoJSON
		case "json":
			return FormatJSON
		}
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "geo+json") {
		return FormatGeoJSON
	}
	return FormatJSON
}
