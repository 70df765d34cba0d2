package domain

import (
	"strings"
	"time"
)

// DateTime is either a single RFC 3339 instant or a `from/to` interval where
// either endpoint may be open ("..").
type DateTime struct {
	Instant *time.Time
	From    *time.Time // nil + FromOpen == true means open start
	To      *time.Time
	FromOpen bool
	ToOpen   bool
	IsInterval bool
}

// ParseDateTime parses the `datetime` query parameter per spec.md §4.2.
func ParseDateTime(s string) (DateTime, error) {
	if !strings.Contains(s, "/") {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return DateTime{}, err
		}
		return DateTime{Instant: &t}, nil
	}

	parts := strings.SplitN(s, "/", 2)
	from, fromOpen, err := parseEndpoint(parts[0])
	if err != nil {
		return DateTime{}, err
	}
	to, toOpen, err := parseEndpoint(parts[1])
	if err != nil {
		return DateTime{}, err
	}
	if fromOpen && toOpen {
		return DateTime{}, errBothEndpointsOpen
	}
	return DateTime{From: from, FromOpen: fromOpen, To: to, ToOpen: toOpen, IsInterval: true}, nil
}

func parseEndpoint(s string) (*time.Time, bool, error) {
	if s == ".." {
		return nil, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false, err
	}
	return &t, false, nil
}

// String renders the datetime back to its wire form using "/" for intervals.
func (d DateTime) String() string {
	if !d.IsInterval {
		if d.Instant == nil {
			return ""
		}
		return d.Instant.Format(time.RFC3339)
	}
	from := ".."
	if !d.FromOpen && d.From != nil {
		from = d.From.Format(time.RFC3339)
	}
	to := ".."
	if !d.ToOpen && d.To != nil {
		to = d.To.Format(time.RFC3339)
	}
	return from + "/" + to
}

type datetimeError string

func (e datetimeError) Error() string { return string(e) }

const errBothEndpointsOpen = datetimeError("datetime: both interval endpoints cannot be open")
