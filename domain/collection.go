package domain

import "regexp"

// collectionIDPattern is the SQL-injection boundary: collection ids are
// interpolated into table names (items."{id}") and must be validated
// against this whitelist before they ever reach the SQL backend (spec.md
// §4.4, "Critical SQL-injection boundary").
var collectionIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,62}$`)

// ValidCollectionID reports whether id is safe to use as a table name
// fragment: letters, digits, underscore, hyphen, starting with a letter.
func ValidCollectionID(id string) bool {
	return collectionIDPattern.MatchString(id)
}

// Collection is metadata for a named set of features (spec.md §3, Entities/Collection).
type Collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Extent      *Extent  `json:"extent,omitempty"`
	ItemType    string   `json:"itemType,omitempty"`
	CRS         []string `json:"crs,omitempty"`
	StorageCRS  string   `json:"storageCrs,omitempty"`
	Links       []Link   `json:"links,omitempty"`

	// STAC extension fields (supplemented from original_source/ogcapi-types,
	// see SPEC_FULL.md "Supplemented features").
	License    string                 `json:"license,omitempty"`
	Providers  []Provider             `json:"providers,omitempty"`
	Assets     map[string]Asset       `json:"assets,omitempty"`
	Summaries  map[string]interface{} `json:"summaries,omitempty"`
}

type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type Asset struct {
	Href        string   `json:"href"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}
