package engine

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PDOK/gokoala-ogc/domain"
)

// ResolveLinks rewrites any path-relative href in links to an absolute URL
// resolved against self (spec.md §4.6, "Link hrefs that are path-relative
// are resolved against the self link's URL"), and inserts or replaces the
// "self" link. The self path is taken as a directory, so "./items" under
// /collections/foo resolves to /collections/foo/items. Returns a new slice;
// links itself is not modified.
func ResolveLinks(r *http.Request, links []domain.Link) []domain.Link {
	self := SelfURL(r)
	base := RequestBaseURL(r)
	base.Path = strings.TrimSuffix(r.URL.Path, "/") + "/"

	resolved := make([]domain.Link, len(links))
	for i, l := range links {
		if u, err := url.Parse(l.Href); err == nil && !u.IsAbs() {
			l.Href = base.ResolveReference(u).String()
		}
		resolved[i] = l
	}
	return domain.UpsertLinks(resolved, domain.Link{Href: self, Rel: "self", Type: "application/json"})
}

// RootLink builds the "root" / "home" hypermedia link to the landing page.
func RootLink(r *http.Request) domain.Link {
	base := RequestBaseURL(r)
	return domain.Link{Href: base.String() + "/", Rel: "root", Type: "application/json", Title: "Landing page"}
}

// PaginationLinks builds "next"/"prev" links for an offset/limit paginated
// list response (spec.md §4.6, "Pagination"): next when
// offset+limit<numberMatched, prev when offset>=limit. The offset query
// parameter is the only pagination cursor (spec.md §4.6).
func PaginationLinks(r *http.Request, offset, limit int, numberMatched int64) []domain.Link {
	var links []domain.Link
	if int64(offset+limit) < numberMatched {
		links = append(links, domain.Link{
			Href: withOffset(r, offset+limit),
			Rel:  "next",
			Type: "application/json",
		})
	}
	if offset >= limit {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		links = append(links, domain.Link{
			Href: withOffset(r, prevOffset),
			Rel:  "prev",
			Type: "application/json",
		})
	}
	return links
}

func withOffset(r *http.Request, offset int) string {
	base := RequestBaseURL(r)
	u := *r.URL
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return fmt.Sprintf("%s%s", base.String(), u.String())
}
