package query

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// StacSearchQuery is the validated, typed query object for GET/POST /search
// (spec.md §4.2, §4.4 "STAC cross-collection search").
type StacSearchQuery struct {
	Pagination
	Bbox        *domain.Bbox
	Datetime    *domain.DateTime
	Intersects  json.RawMessage
	IDs         []string
	Collections []string
}

// stacSearchBody is the POST /search JSON body shape.
type stacSearchBody struct {
	Limit       *int            `json:"limit"`
	Bbox        []float64       `json:"bbox"`
	Datetime    string          `json:"datetime"`
	Intersects  json.RawMessage `json:"intersects"`
	IDs         []string        `json:"ids"`
	Collections []string        `json:"collections"`
}

// ParseStacSearchQuery parses GET /search query parameters.
func ParseStacSearchQuery(params url.Values, maxLimit int) (StacSearchQuery, error) {
	q := StacSearchQuery{}
	pg, err := ParsePagination(params, maxLimit)
	if err != nil {
		return q, err
	}
	if params.Get("limit") == "" {
		pg.Limit = 100 // spec.md §4.4: STAC search default limit is 100
	}
	q.Pagination = pg

	if v := params.Get("bbox"); v != "" {
		bbox, err := parseBbox(v)
		if err != nil {
			return q, err
		}
		q.Bbox = &bbox
	}
	if v := params.Get("datetime"); v != "" {
		dt, err := domain.ParseDateTime(v)
		if err != nil {
			return q, ogcerr.Wrap(ogcerr.BadRequest, "invalid datetime", err)
		}
		q.Datetime = &dt
	}
	if v := params.Get("ids"); v != "" {
		q.IDs = strings.Split(v, ",")
	}
	if v := params.Get("collections"); v != "" {
		q.Collections = strings.Split(v, ",")
	}
	return q, nil
}

// ParseStacSearchBody parses the POST /search JSON body.
func ParseStacSearchBody(body []byte, maxLimit int) (StacSearchQuery, error) {
	var b stacSearchBody
	if err := json.Unmarshal(body, &b); err != nil {
		return StacSearchQuery{}, ogcerr.Wrap(ogcerr.BadRequest, "invalid search body", err)
	}
	q := StacSearchQuery{
		Pagination:  Pagination{Limit: 100, Offset: 0},
		Intersects:  b.Intersects,
		IDs:         b.IDs,
		Collections: b.Collections,
	}
	if b.Limit != nil {
		limit := *b.Limit
		if limit < 1 || limit > maxLimit {
			return q, ogcerr.New(ogcerr.BadRequest, "limit out of range")
		}
		q.Limit = limit
	}
	if len(b.Bbox) > 0 {
		switch len(b.Bbox) {
		case 4:
			q.Bbox = &domain.Bbox{Min: b.Bbox[0:2], Max: b.Bbox[2:4]}
		case 6:
			q.Bbox = &domain.Bbox{Min: b.Bbox[0:3], Max: b.Bbox[3:6]}
		default:
			return q, ogcerr.New(ogcerr.BadRequest, "bbox must have exactly 4 or 6 values")
		}
	}
	if b.Datetime != "" {
		dt, err := domain.ParseDateTime(b.Datetime)
		if err != nil {
			return q, ogcerr.Wrap(ogcerr.BadRequest, "invalid datetime", err)
		}
		q.Datetime = &dt
	}
	return q, nil
}
