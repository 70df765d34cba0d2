package crs

import (
	"fmt"
	"sync"

	proj "github.com/michiho/go-proj/v10"

	"github.com/PDOK/gokoala-ogc/domain"
)

// Transformer caches PROJ transform pipelines by (from, to) SRID pair. A
// single PROJ context is reused across transforms the way the teacher
// reuses a single sqlx connection pool: construct once at startup, share by
// reference, never per-request.
type Transformer struct {
	mu     sync.Mutex
	ctx    *proj.Context
	pjByPair map[[2]int]*proj.PJ
}

// NewTransformer builds a Transformer backed by a fresh PROJ context.
func NewTransformer() (*Transformer, error) {
	ctx := proj.NewContext()
	return &Transformer{ctx: ctx, pjByPair: make(map[[2]int]*proj.PJ)}, nil
}

func (t *Transformer) pipeline(fromSRID, toSRID int) (*proj.PJ, error) {
	if fromSRID == toSRID {
		return nil, nil //nolint:nilnil // identity transform, caller no-ops
	}
	key := [2]int{fromSRID, toSRID}

	t.mu.Lock()
	defer t.mu.Unlock()
	if pj, ok := t.pjByPair[key]; ok {
		return pj, nil
	}
	pj, err := t.ctx.NewCRSToCRS(fmt.Sprintf("EPSG:%d", fromSRID), fmt.Sprintf("EPSG:%d", toSRID), nil)
	if err != nil {
		return nil, fmt.Errorf("crs: failed to build transform pipeline EPSG:%d -> EPSG:%d: %w", fromSRID, toSRID, err)
	}
	norm, err := pj.NormalizeForVisualization()
	if err != nil {
		return nil, fmt.Errorf("crs: failed to normalize transform pipeline: %w", err)
	}
	t.pjByPair[key] = norm
	return norm, nil
}

// TransformBbox reprojects a bbox from fromSRID to toSRID. Identity
// transform is a no-op, per the CRS round-trip testable property (spec.md
// §8). Reprojecting an axis-aligned box corner-to-corner can only grow the
// envelope (never shrink it), which is why all four/eight corners are
// transformed and re-enveloped rather than just the two diagonal corners.
func (t *Transformer) TransformBbox(b domain.Bbox, fromSRID, toSRID int) (domain.Bbox, error) {
	pj, err := t.pipeline(fromSRID, toSRID)
	if err != nil {
		return domain.Bbox{}, err
	}
	if pj == nil {
		return b, nil
	}

	corners := bboxCorners(b)
	transformed := make([]proj.Coord, 0, len(corners))
	for _, c := range corners {
		out, err := pj.Forward(c)
		if err != nil {
			return domain.Bbox{}, fmt.Errorf("crs: transform bbox corner: %w", err)
		}
		transformed = append(transformed, out)
	}
	return envelope(transformed, b.Is3D()), nil
}

// TransformPoint reprojects a single coordinate, used by TransformGeometry
// in geometry.go.
func (t *Transformer) TransformPoint(x, y, z float64, is3D bool, fromSRID, toSRID int) (float64, float64, float64, error) {
	pj, err := t.pipeline(fromSRID, toSRID)
	if err != nil {
		return 0, 0, 0, err
	}
	if pj == nil {
		return x, y, z, nil
	}
	out, err := pj.Forward(proj.Coord{X: x, Y: y, Z: z})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("crs: transform point: %w", err)
	}
	if !is3D {
		out.Z = 0
	}
	return out.X, out.Y, out.Z, nil
}

func bboxCorners(b domain.Bbox) []proj.Coord {
	if !b.Is3D() {
		return []proj.Coord{
			{X: b.Min[0], Y: b.Min[1]},
			{X: b.Min[0], Y: b.Max[1]},
			{X: b.Max[0], Y: b.Min[1]},
			{X: b.Max[0], Y: b.Max[1]},
		}
	}
	out := make([]proj.Coord, 0, 8)
	for _, x := range []float64{b.Min[0], b.Max[0]} {
		for _, y := range []float64{b.Min[1], b.Max[1]} {
			for _, z := range []float64{b.Min[2], b.Max[2]} {
				out = append(out, proj.Coord{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func envelope(coords []proj.Coord, is3D bool) domain.Bbox {
	minX, minY, minZ := coords[0].X, coords[0].Y, coords[0].Z
	maxX, maxY, maxZ := coords[0].X, coords[0].Y, coords[0].Z
	for _, c := range coords[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Z < minZ {
			minZ = c.Z
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y > maxY {
			maxY = c.Y
		}
		if c.Z > maxZ {
			maxZ = c.Z
		}
	}
	if is3D {
		return domain.NewBbox3D(minX, minY, minZ, maxX, maxY, maxZ)
	}
	return domain.NewBbox2D(minX, minY, maxX, maxY)
}
