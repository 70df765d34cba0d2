package domain

import "encoding/json"

// Feature is a spatial item belonging to exactly one collection (spec.md
// §3, Entities/Feature).
type Feature struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"-"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
	Bbox       []float64              `json:"bbox,omitempty"`
	Assets     map[string]Asset       `json:"assets,omitempty"`
	Links      []Link                 `json:"links,omitempty"`
}

// FeatureCollection is a page of Features plus pagination metadata (spec.md
// §4.6, Pagination).
type FeatureCollection struct {
	Type            string    `json:"type"`
	Features        []*Feature `json:"features"`
	Links           []Link    `json:"links,omitempty"`
	TimeStamp       string    `json:"timeStamp,omitempty"`
	NumberMatched   *int64    `json:"numberMatched,omitempty"`
	NumberReturned  int       `json:"numberReturned"`
}

// NewFeatureCollection wraps features with derived pagination counters.
func NewFeatureCollection(features []*Feature, numberMatched int64) *FeatureCollection {
	return &FeatureCollection{
		Type:           "FeatureCollection",
		Features:       features,
		NumberMatched:  &numberMatched,
		NumberReturned: len(features),
	}
}
