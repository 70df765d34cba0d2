package postgres

import (
	"fmt"
	"strings"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

// predicateBuilder accumulates WHERE clauses and their positional bind
// parameters ($1, $2, ...) so the same compiled predicate set can be
// embedded into both the row-fetching SELECT and its parallel
// SELECT count(*) (spec.md §4.4, "A parallel SELECT count(*) with
// identical predicates yields number_matched").
type predicateBuilder struct {
	clauses []string
	args    []interface{}
}

func (p *predicateBuilder) add(clause string, args ...interface{}) {
	// renumber placeholders in clause ("?") to the builder's running $n offset
	for _, a := range args {
		p.args = append(p.args, a)
	}
	n := len(p.args) - len(args)
	var sb strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			i++
			continue
		}
		sb.WriteRune(r)
	}
	p.clauses = append(p.clauses, sb.String())
}

func (p *predicateBuilder) where() string {
	if len(p.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(p.clauses, " AND ")
}

// bboxPredicate builds the bbox intersection predicate (spec.md §4.4):
// geom && ST_Transform(ST_MakeEnvelope(x1,y1,x2,y2,bbox_srid), storage_srid)
func (t *DB) bboxPredicate(p *predicateBuilder, bbox *domain.Bbox, bboxCRS domain.CRS, storageSRID int) error {
	if bbox == nil {
		return nil
	}
	bboxSRID, err := crs.ToSRID(bboxCRS)
	if err != nil {
		return ogcerr.Wrap(ogcerr.BadRequest, "invalid bbox-crs", err)
	}
	// 3D form uses only the horizontal axes for the envelope test (spec.md §4.4).
	minX, minY := bbox.Min[0], bbox.Min[1]
	maxX, maxY := bbox.Max[0], bbox.Max[1]
	p.add(`geom && ST_Transform(ST_MakeEnvelope(?,?,?,?,?), ?)`, minX, minY, maxX, maxY, bboxSRID, storageSRID)
	return nil
}

// datetimePredicate builds the datetime predicate (spec.md §4.4): compares
// properties->>'datetime' when present, else overlaps (start_datetime,
// end_datetime). A bound whose property is absent does not exclude the
// feature, so a feature with none of the three properties always matches.
func datetimePredicate(p *predicateBuilder, dt *domain.DateTime) {
	if dt == nil {
		return
	}
	const (
		start = `COALESCE((properties->>'datetime')::timestamptz, (properties->>'start_datetime')::timestamptz)`
		end   = `COALESCE((properties->>'datetime')::timestamptz, (properties->>'end_datetime')::timestamptz)`
	)
	switch {
	case !dt.IsInterval:
		p.add(`(`+start+` <= ? AND `+end+` >= ?) IS NOT FALSE`, dt.Instant, dt.Instant)
	case dt.FromOpen:
		p.add(`(`+start+` <= ?) IS NOT FALSE`, dt.To)
	case dt.ToOpen:
		p.add(`(`+end+` >= ?) IS NOT FALSE`, dt.From)
	default:
		p.add(`(`+start+` <= ? AND `+end+` >= ?) IS NOT FALSE`, dt.To, dt.From)
	}
}

// propertyPredicates builds one jsonb-containment predicate per
// property-equality filter (spec.md §4.4): properties @> jsonb_build_object('k', v).
func propertyPredicates(p *predicateBuilder, props map[string]string) {
	for _, key := range sortedKeys(props) {
		p.add(`properties @> jsonb_build_object(?::text, ?::text)`, key, props[key])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// stable, deterministic SQL text makes tests and logs reproducible
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// compileFeatureListPredicates builds the full predicate set for
// query.FeatureListQuery, used by ListFeatures. The STAC search and EDR
// compilers build their own predicates and share only datetimePredicate.
func (db *DB) compileFeatureListPredicates(q query.FeatureListQuery, storageSRID int) (*predicateBuilder, error) {
	p := &predicateBuilder{}
	if err := db.bboxPredicate(p, q.Bbox, q.BboxCRS, storageSRID); err != nil {
		return nil, err
	}
	datetimePredicate(p, q.Datetime)
	propertyPredicates(p, q.Properties)
	return p, nil
}
