package domain

import "fmt"

// CRS identifies a coordinate reference system by (authority, version, code).
// Two CRSes are equal iff authority and code match; version is informational
// (spec.md §3, Entities/CRS).
type CRS struct {
	Authority string // "OGC" or "EPSG"
	Version   string // e.g. "1.3", "0"
	Code      string // e.g. "CRS84", "3857"
}

// Equal compares authority and code only, per spec.
func (c CRS) Equal(other CRS) bool {
	return c.Authority == other.Authority && c.Code == other.Code
}

func (c CRS) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Authority, c.Version, c.Code)
}

// DefaultCRS is OGC:CRS84, the default request/response CRS for OGC API
// Features and the default storage CRS when a collection doesn't pin one.
var DefaultCRS = CRS{Authority: "OGC", Version: "1.3", Code: "CRS84"}

// DefaultCRSURI is the canonical URI form of DefaultCRS.
const DefaultCRSURI = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
