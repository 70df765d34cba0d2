package query

import (
	"net/url"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		maxLimit   int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"defaults", "", 100, DefaultLimit, 0, false},
		{"explicit limit and offset", "limit=5&offset=20", 100, 5, 20, false},
		{"limit clamps to max", "limit=99999", 100, 100, 0, false},
		{"limit below one", "limit=0", 100, 0, 0, true},
		{"non-numeric limit", "limit=abc", 100, 0, 0, true},
		{"negative offset", "offset=-1", 100, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			got, err := ParsePagination(params, tt.maxLimit)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePagination(%q) expected error, got nil", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePagination(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Errorf("ParsePagination(%q) = %+v, want limit=%d offset=%d", tt.raw, got, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestParseFeatureListQueryUnknownParam(t *testing.T) {
	params, _ := url.ParseQuery("bogus=1")
	_, err := ParseFeatureListQuery(params, map[string]bool{"name": true}, 100)
	if err == nil {
		t.Fatal("ParseFeatureListQuery() with unknown parameter should error")
	}
}

func TestParseFeatureListQueryKnownProperty(t *testing.T) {
	params, _ := url.ParseQuery("name=bridge&bbox=1,2,3,4")
	q, err := ParseFeatureListQuery(params, map[string]bool{"name": true}, 100)
	if err != nil {
		t.Fatalf("ParseFeatureListQuery() unexpected error: %v", err)
	}
	if q.Properties["name"] != "bridge" {
		t.Errorf("Properties[name] = %q, want bridge", q.Properties["name"])
	}
	if q.Bbox == nil {
		t.Fatal("Bbox should be set")
	}
}

func TestParseFeatureListQueryBadBbox(t *testing.T) {
	params, _ := url.ParseQuery("bbox=1,2,3")
	_, err := ParseFeatureListQuery(params, nil, 100)
	if err == nil {
		t.Fatal("ParseFeatureListQuery() with a 3-value bbox should error")
	}
}

func TestParseFeatureListQueryBadFilterLang(t *testing.T) {
	params, _ := url.ParseQuery("filter=name='x'&filter-lang=sql")
	_, err := ParseFeatureListQuery(params, nil, 100)
	if err == nil {
		t.Fatal("ParseFeatureListQuery() with an unsupported filter-lang should error")
	}
}

func TestSortedPropertyKeys(t *testing.T) {
	q := FeatureListQuery{Properties: map[string]string{"b": "2", "a": "1", "c": "3"}}
	got := q.SortedPropertyKeys()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("SortedPropertyKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedPropertyKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
