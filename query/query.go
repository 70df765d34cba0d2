// Package query implements the query model (spec.md §4.2, component C3):
// parsing and validating request parameters into typed query objects
// consumed by the driver contracts in package driver.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

const (
	DefaultLimit = 10
	MaxLimit     = 10_000
)

// Pagination is shared by every query family (spec.md §4.2: "All share
// pagination (limit?, offset?)").
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset, clamping limit into [1, maxLimit].
func ParsePagination(params url.Values, maxLimit int) (Pagination, error) {
	p := Pagination{Limit: DefaultLimit, Offset: 0}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, ogcerr.New(ogcerr.BadRequest, "limit must be an integer")
		}
		if n < 1 {
			return p, ogcerr.New(ogcerr.BadRequest, "limit must be >= 1")
		}
		if n > maxLimit {
			n = maxLimit
		}
		p.Limit = n
	}
	if v := params.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, ogcerr.New(ogcerr.BadRequest, "offset must be a non-negative integer")
		}
		p.Offset = n
	}
	return p, nil
}

// FeatureListQuery is the validated, typed query object for
// GET /collections/{cid}/items (spec.md §4.2).
type FeatureListQuery struct {
	Pagination
	Bbox       *domain.Bbox
	BboxCRS    domain.CRS
	Datetime   *domain.DateTime
	CRS        domain.CRS
	Filter     string
	FilterLang string
	FilterCRS  domain.CRS
	Properties map[string]string // property-equality filters
}

var reservedFeatureParams = map[string]bool{
	"limit": true, "offset": true, "bbox": true, "bbox-crs": true,
	"datetime": true, "crs": true, "filter": true, "filter-lang": true,
	"filter-crs": true,
}

// ParseFeatureListQuery parses all parameters for a feature list request.
// knownProperties is the set of property names the collection's schema
// recognizes; any other unknown key is rejected with BadRequest (spec.md
// §4.2: "On any unknown parameter name that is not a valid property filter
// -> 400").
func ParseFeatureListQuery(params url.Values, knownProperties map[string]bool, maxLimit int) (FeatureListQuery, error) {
	q := FeatureListQuery{CRS: domain.DefaultCRS, BboxCRS: domain.DefaultCRS, FilterCRS: domain.DefaultCRS}

	pg, err := ParsePagination(params, maxLimit)
	if err != nil {
		return q, err
	}
	q.Pagination = pg

	if v := params.Get("bbox-crs"); v != "" {
		c, err := crs.Parse(v)
		if err != nil {
			return q, ogcerr.Wrap(ogcerr.BadRequest, "invalid bbox-crs", err)
		}
		q.BboxCRS = c
	}
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
	if v := params.Get("crs"); v != "" {
		c, err := crs.Parse(v)
		if err != nil {
			return q, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err)
		}
		q.CRS = c
	}
	if v := params.Get("filter-crs"); v != "" {
		c, err := crs.Parse(v)
		if err != nil {
			return q, ogcerr.Wrap(ogcerr.BadRequest, "invalid filter-crs", err)
		}
		q.FilterCRS = c
	}
	q.Filter = params.Get("filter")
	q.FilterLang = params.Get("filter-lang")
	if q.Filter != "" && q.FilterLang == "" {
		q.FilterLang = "cql-text"
	}
	if q.FilterLang != "" && q.FilterLang != "cql-text" && q.FilterLang != "cql-json" {
		return q, ogcerr.New(ogcerr.BadRequest, "filter-lang must be cql-text or cql-json")
	}

	q.Properties = make(map[string]string)
	for key, values := range params {
		if reservedFeatureParams[key] {
			continue
		}
		if !knownProperties[key] {
			return q, ogcerr.Newf(ogcerr.BadRequest, "unknown query parameter %q", key)
		}
		q.Properties[key] = values[0]
	}
	return q, nil
}

func parseBbox(v string) (domain.Bbox, error) {
	parts := strings.Split(v, ",")
	nums := make([]float64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bbox{}, ogcerr.Newf(ogcerr.BadRequest, "bbox value %q is not numeric", p)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 4:
		return domain.NewBbox2D(nums[0], nums[1], nums[2], nums[3]), nil
	case 6:
		return domain.NewBbox3D(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]), nil
	default:
		return domain.Bbox{}, ogcerr.New(ogcerr.BadRequest, "bbox must have exactly 4 or 6 comma-separated values")
	}
}

// SortedPropertyKeys is a small helper for deterministic SQL generation/tests.
func (q FeatureListQuery) SortedPropertyKeys() []string {
	keys := make([]string, 0, len(q.Properties))
	for k := range q.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
