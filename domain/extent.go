package domain

// Extent bounds a collection spatially and temporally.
type Extent struct {
	Spatial  *SpatialExtent  `json:"spatial,omitempty"`
	Temporal *TemporalExtent `json:"temporal,omitempty"`
}

type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
	CRS  string      `json:"crs,omitempty"`
}

type TemporalExtent struct {
	Interval [][2]*string `json:"interval"`
	TRS      string       `json:"trs,omitempty"`
}
