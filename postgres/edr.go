package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/PDOK/gokoala-ogc/crs"
	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/query"
)

// QueryEDR compiles an EDR query_type + WKT coords into the predicate table
// from spec.md §4.4 ("EDR query compilation") and returns matching features
// with their selected-property projection applied.
func (db *DB) QueryEDR(ctx context.Context, collection string, q query.EDRQuery, storageSRID int) (*domain.FeatureCollection, domain.CRS, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	table, err := itemsTable(collection)
	if err != nil {
		return nil, domain.CRS{}, err
	}
	inSRID, err := crs.ToSRID(q.CRS)
	if err != nil {
		return nil, domain.CRS{}, ogcerr.Wrap(ogcerr.BadRequest, "invalid crs", err)
	}
	is3D := strings.Contains(strings.ToUpper(q.Coords), "Z") || q.Z != ""

	p := &predicateBuilder{}
	if err := db.edrPredicate(p, q, inSRID, storageSRID, is3D); err != nil {
		return nil, domain.CRS{}, err
	}
	datetimePredicate(p, q.Datetime)

	where := p.where()
	stmt := fmt.Sprintf(`
		SELECT id, properties,
		       ST_AsGeoJSON(ST_Transform(geom, $%d))::jsonb AS geometry,
		       links, assets, bbox
		  FROM %s
		 WHERE %s
		 ORDER BY id
		 LIMIT $%d OFFSET $%d`,
		len(p.args)+1, table, where, len(p.args)+2, len(p.args)+3)

	args := append(append([]interface{}{}, p.args...), storageSRID, q.Limit, q.Offset)
	rows, err := db.conn.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, domain.CRS{}, ogcerr.Wrap(ogcerr.Internal, "query edr", err)
	}
	defer rows.Close()

	features := make([]*domain.Feature, 0)
	for rows.Next() {
		f, err := scanFeatureRows(rows, collection)
		if err != nil {
			return nil, domain.CRS{}, ogcerr.Wrap(ogcerr.Internal, "scan edr row", err)
		}
		projectProperties(f, q.ParameterName)
		features = append(features, f)
	}

	responseCRS := crs.FromSRID(storageSRID)
	return domain.NewFeatureCollection(features, int64(len(features))), responseCRS, nil
}

// edrPredicate implements the query_type -> predicate table of spec.md §4.4.
func (db *DB) edrPredicate(p *predicateBuilder, q query.EDRQuery, inSRID, storageSRID int, is3D bool) error {
	ewkt := fmt.Sprintf("SRID=%d;%s", inSRID, q.Coords)
	switch q.QueryType {
	case query.EDRPosition, query.EDRArea, query.EDRTrajectory, query.EDRCorridor, query.EDRLocations:
		if is3D {
			p.add(`ST_3DIntersects(geom, ST_Transform(ST_GeomFromEWKT(?), ?))`, ewkt, storageSRID)
		} else {
			p.add(`ST_Intersects(geom, ST_Transform(ST_GeomFromEWKT(?), ?))`, ewkt, storageSRID)
		}
	case query.EDRRadius:
		if is3D {
			p.add(`ST_3DDWithin(geom, ST_Transform(ST_GeomFromEWKT(?), ?), ?)`, ewkt, storageSRID, q.WithinMeters)
		} else {
			p.add(`ST_DWithin(geom::geography, ST_Transform(ST_GeomFromEWKT(?), ?)::geography, ?, false)`, ewkt, storageSRID, q.WithinMeters)
		}
	case query.EDRCube:
		bbox, err := parseCubeCoords(q.Coords)
		if err != nil {
			return err
		}
		if bbox.Is3D() {
			p.add(`ST_3DIntersects(geom, ST_Transform(ST_MakeEnvelope(?,?,?,?,?), ?))`,
				bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1], inSRID, storageSRID)
		} else {
			p.add(`ST_Intersects(geom, ST_Transform(ST_MakeEnvelope(?,?,?,?,?), ?))`,
				bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1], inSRID, storageSRID)
		}
	default:
		return ogcerr.Newf(ogcerr.BadRequest, "unsupported EDR query type %q", q.QueryType)
	}
	return nil
}

// parseCubeCoords parses EDR's cube coords (4 or 6 comma-separated numbers,
// spec.md §4.4 "cube (4 nums)" / "cube (6 nums)").
func parseCubeCoords(coords string) (domain.Bbox, error) {
	parts := strings.Split(strings.Trim(coords, "() "), ",")
	nums := make([]float64, len(parts))
	for i, pstr := range parts {
		var n float64
		if _, err := fmt.Sscanf(strings.TrimSpace(pstr), "%g", &n); err != nil {
			return domain.Bbox{}, ogcerr.Newf(ogcerr.BadRequest, "invalid cube coordinate %q", pstr)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 4:
		return domain.NewBbox2D(nums[0], nums[1], nums[2], nums[3]), nil
	case 6:
		return domain.NewBbox3D(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]), nil
	default:
		return domain.Bbox{}, ogcerr.New(ogcerr.BadRequest, "cube coords must have 4 or 6 values")
	}
}

// projectProperties rebuilds properties to contain only the requested
// parameter-name keys (spec.md §4.4, "Selected property projection").
func projectProperties(f *domain.Feature, parameterNames []string) {
	if len(parameterNames) == 0 {
		return
	}
	wanted := make(map[string]bool, len(parameterNames))
	for _, n := range parameterNames {
		wanted[n] = true
	}
	projected := make(map[string]interface{}, len(parameterNames))
	for k, v := range f.Properties {
		if wanted[k] {
			projected[k] = v
		}
	}
	f.Properties = projected
}
