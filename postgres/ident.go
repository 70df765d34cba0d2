package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// itemsTable returns the quoted, schema-qualified table name for a
// collection. It checks collectionID against domain.ValidCollectionID on
// every call and returns BadRequest for an id that fails, so no unvalidated
// id reaches a table name; it does not consult meta.collections.
func itemsTable(collectionID string) (string, error) {
	if !domain.ValidCollectionID(collectionID) {
		return "", ogcerr.Newf(ogcerr.BadRequest, "invalid collection id %q", collectionID)
	}
	return fmt.Sprintf(`items.%q`, collectionID), nil
}

// quoteLiteral renders a validated collection id as a SQL string literal,
// used for the few statements (DEFAULT clause, UpdateGeometrySRID target)
// where a bind parameter isn't syntactically valid.
func quoteLiteral(s string) string {
	return pq.QuoteLiteral(s)
}

// sanitizeIndexName derives a valid, collision-resistant index name prefix
// from a collection id (hyphens aren't valid in unquoted identifiers, but
// quoted identifiers accept them; this keeps index names readable).
func sanitizeIndexName(collectionID string) string {
	return strings.ReplaceAll(collectionID, "-", "_")
}
