// Package crs implements the CRS engine (spec.md §4.1, component C2):
// parsing/formatting CRS identifiers, SRID mapping, 2D/3D classification,
// and geometry/bbox transforms via PROJ (github.com/michiho/go-proj/v10).
//
// The identifier grammar and SRID table are small, closed lookup tables;
// implementing them with the standard library (regexp + a map) rather than
// pulling in a dependency is the right call here — nothing in the pack
// wraps CRS-URI/URN parsing itself, only the PROJ transform beneath it.
package crs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PDOK/gokoala-ogc/domain"
)

var (
	uriPattern = regexp.MustCompile(`^https?://www\.opengis\.net/def/crs/([^/]+)/([^/]*)/([^/]+)$`)
	urnPattern = regexp.MustCompile(`^urn:ogc:def:crs:([^:]+):([^:]*):([^:]+)$`)
)

// ParseError reports a malformed or unrecognized CRS identifier.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("crs: %s: %q", e.Reason, e.Input)
}

func malformed(input string) error {
	return &ParseError{Input: input, Reason: "malformed identifier"}
}

// bareShorthands maps the OGC CRS84/CRS84h bare shorthand forms (as used in
// e.g. a collection's storage_crs field, spec.md §8 scenario 1:
// `storage_crs:"CRS84"`) to their full CRS, the inverse of FromSRID's
// 4326/4979 cases.
var bareShorthands = map[string]domain.CRS{
	"CRS84":  {Authority: "OGC", Version: "1.3", Code: "CRS84"},
	"CRS84H": {Authority: "OGC", Version: "0", Code: "CRS84h"},
}

// Parse accepts both URI (http://www.opengis.net/def/crs/{auth}/{ver}/{code})
// and URN (urn:ogc:def:crs:{auth}:{ver}:{code}) forms, plus the bare
// shorthand forms "CRS84"/"CRS84h" and "{authority}:{code}" (e.g. "EPSG:3857").
func Parse(text string) (domain.CRS, error) {
	text = strings.TrimSpace(text)
	if m := uriPattern.FindStringSubmatch(text); m != nil {
		return domain.CRS{Authority: strings.ToUpper(m[1]), Version: m[2], Code: m[3]}, nil
	}
	if m := urnPattern.FindStringSubmatch(text); m != nil {
		return domain.CRS{Authority: strings.ToUpper(m[1]), Version: m[2], Code: m[3]}, nil
	}
	// bare shorthand forms used in config/tests, e.g. "CRS84" or "EPSG:3857"
	if !strings.Contains(text, "/") && !strings.Contains(text, ":") {
		if c, ok := bareShorthands[strings.ToUpper(text)]; ok {
			return c, nil
		}
		return domain.CRS{}, malformed(text)
	}
	if strings.Contains(text, ":") && !strings.HasPrefix(text, "urn:") {
		parts := strings.SplitN(text, ":", 2)
		return domain.CRS{Authority: strings.ToUpper(parts[0]), Code: parts[1]}, nil
	}
	return domain.CRS{}, malformed(text)
}

// Supports reports whether candidate (in any of Parse's accepted forms) is
// equivalent, per CRS.Equal, to one of the shorthand/URI forms in supported
// (e.g. a Collection's CRS[] list). Both sides are normalized through Parse
// so "EPSG:3857" and "http://www.opengis.net/def/crs/EPSG/0/3857" are
// recognized as the same member regardless of which form either side uses.
func Supports(supported []string, candidate string) bool {
	c, err := Parse(candidate)
	if err != nil {
		return false
	}
	for _, s := range supported {
		sc, err := Parse(s)
		if err != nil {
			continue
		}
		if sc.Equal(c) {
			return true
		}
	}
	return false
}

// Format renders the canonical URI form of a CRS.
func Format(c domain.CRS) string {
	version := c.Version
	if version == "" {
		version = "0"
	}
	return fmt.Sprintf("http://www.opengis.net/def/crs/%s/%s/%s", c.Authority, version, c.Code)
}

// UnknownAuthorityError is returned by ToSRID for an authority outside {OGC, EPSG}.
type UnknownAuthorityError struct{ Authority string }

func (e *UnknownAuthorityError) Error() string { return fmt.Sprintf("crs: unknown authority %q", e.Authority) }

// UntransformableCodeError is returned by ToSRID for a code with no known SRID mapping.
type UntransformableCodeError struct{ Code string }

func (e *UntransformableCodeError) Error() string {
	return fmt.Sprintf("crs: no SRID mapping for code %q", e.Code)
}

// ToSRID maps a CRS to its PostGIS SRID: CRS84->4326, CRS84h->4979,
// EPSG/*/n->n (spec.md §4.1).
func ToSRID(c domain.CRS) (int, error) {
	switch strings.ToUpper(c.Authority) {
	case "OGC":
		switch strings.ToUpper(c.Code) {
		case "CRS84":
			return 4326, nil
		case "CRS84H":
			return 4979, nil
		default:
			return 0, &UntransformableCodeError{Code: c.Code}
		}
	case "EPSG":
		var n int
		if _, err := fmt.Sscanf(c.Code, "%d", &n); err != nil {
			return 0, &UntransformableCodeError{Code: c.Code}
		}
		return n, nil
	default:
		return 0, &UnknownAuthorityError{Authority: c.Authority}
	}
}

// FromSRID builds the canonical CRS for a SRID, the inverse of ToSRID:
// OGC CRS84/CRS84h for 4326/4979, EPSG/0/n for any other n.
func FromSRID(srid int) domain.CRS {
	switch srid {
	case 4326:
		return domain.CRS{Authority: "OGC", Version: "1.3", Code: "CRS84"}
	case 4979:
		return domain.CRS{Authority: "OGC", Version: "0", Code: "CRS84h"}
	default:
		return domain.CRS{Authority: "EPSG", Version: "0", Code: fmt.Sprintf("%d", srid)}
	}
}

// Is3D reports whether a CRS carries a vertical axis.
func Is3D(c domain.CRS) bool {
	srid, err := ToSRID(c)
	if err != nil {
		return false
	}
	return srid == 4979
}
