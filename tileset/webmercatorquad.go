// Package tileset loads TileMatrixSet configuration at startup into an
// immutable, process-wide registry (spec.md §5, "Tile matrix sets ... are
// loaded once at startup into immutable, process-wide maps; lookups
// require no synchronization").
package tileset

import (
	"strconv"

	"github.com/go-spatial/tegola"

	"github.com/PDOK/gokoala-ogc/domain"
)

// webMercatorExtent is the half-width, in meters, of the EPSG:3857
// projection of the full WGS84 lon/lat extent -- the standard origin for
// every WebMercatorQuad tile matrix.
const webMercatorExtent = 20037508.342789244

// baseResolution is meters-per-pixel at zoom 0 for a single 256x256 tile
// spanning the full WebMercator extent.
const baseResolution = 2 * webMercatorExtent / 256

// NewWebMercatorQuad builds the bundled default tile matrix set, the grid
// every major web map client assumes (spec.md §3, Entities/Tile matrix
// set), using go-spatial/tegola's WebMercator SRID constant for the
// advertised CRS rather than a bare literal (grounded on other_examples'
// atlasdatatech-tegola postgis provider, which imports the same
// tegola.WebMercator constant for its default SRID).
func NewWebMercatorQuad(maxZoom int) *domain.TileMatrixSet {
	tms := &domain.TileMatrixSet{
		ID:          "WebMercatorQuad",
		Title:       "Google Maps Compatible for the World",
		CRS:         "http://www.opengis.net/def/crs/EPSG/0/" + strconv.Itoa(tegola.WebMercator),
		OrderedAxes: []string{"E", "N"},
	}
	for z := 0; z <= maxZoom; z++ {
		matrixDim := int64(1) << uint(z)
		cellSize := baseResolution / float64(matrixDim)
		tms.TileMatrices = append(tms.TileMatrices, domain.TileMatrix{
			ID:               strconv.Itoa(z),
			ScaleDenominator: cellSize / 0.00028, // OGC's standardized pixel size, 0.28mm
			CellSize:         cellSize,
			PointOfOrigin:    [2]float64{-webMercatorExtent, webMercatorExtent},
			TileWidth:        256,
			TileHeight:       256,
			MatrixWidth:      matrixDim,
			MatrixHeight:     matrixDim,
			CornerOfOrigin:   domain.TopLeft,
		})
	}
	return tms
}

// Registry builds the process-wide tile matrix set map served at startup
// (spec.md §5, "loaded once at startup into immutable, process-wide maps").
// WebMercatorQuad is the only bundled set; additional sets would be added
// here the same way.
func Registry(maxZoom int) map[string]*domain.TileMatrixSet {
	webMercatorQuad := NewWebMercatorQuad(maxZoom)
	return map[string]*domain.TileMatrixSet{
		webMercatorQuad.ID: webMercatorQuad,
	}
}
