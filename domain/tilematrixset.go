package domain

// CornerOfOrigin is the corner of a tile matrix's point of origin.
type CornerOfOrigin string

const (
	TopLeft    CornerOfOrigin = "topLeft"
	BottomLeft CornerOfOrigin = "bottomLeft"
)

// TileMatrix describes one zoom level of a TileMatrixSet.
type TileMatrix struct {
	ID               string         `json:"id"`
	ScaleDenominator float64        `json:"scaleDenominator"`
	CellSize         float64        `json:"cellSize"`
	PointOfOrigin    [2]float64     `json:"pointOfOrigin"`
	TileWidth        int            `json:"tileWidth"`
	TileHeight       int            `json:"tileHeight"`
	MatrixWidth      int64          `json:"matrixWidth"`
	MatrixHeight     int64          `json:"matrixHeight"`
	CornerOfOrigin   CornerOfOrigin `json:"cornerOfOrigin,omitempty"`
}

// TileMatrixSet is immutable configuration data loaded at startup from
// bundled JSON (spec.md §3, Entities/Tile matrix set; §5, "Tile matrix sets
// ... are loaded once at startup into immutable, process-wide maps").
type TileMatrixSet struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	CRS         string       `json:"crs"`
	OrderedAxes []string     `json:"orderedAxes,omitempty"`
	BoundingBox *Bbox        `json:"boundingBox,omitempty"`
	TileMatrices []TileMatrix `json:"tileMatrices"`
}

// MatrixByID looks up a single zoom level by its id (e.g. "0".."22").
func (tms *TileMatrixSet) MatrixByID(id string) (TileMatrix, bool) {
	for _, m := range tms.TileMatrices {
		if m.ID == id {
			return m, true
		}
	}
	return TileMatrix{}, false
}
