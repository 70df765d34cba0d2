package crs

import (
	"testing"

	"github.com/PDOK/gokoala-ogc/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.CRS
		wantErr bool
	}{
		{"uri", "http://www.opengis.net/def/crs/EPSG/0/28992", domain.CRS{Authority: "EPSG", Version: "0", Code: "28992"}, false},
		{"urn", "urn:ogc:def:crs:OGC:1.3:CRS84", domain.CRS{Authority: "OGC", Version: "1.3", Code: "CRS84"}, false},
		{"shorthand", "EPSG:3857", domain.CRS{Authority: "EPSG", Code: "3857"}, false},
		{"bare crs84", "CRS84", domain.CRS{Authority: "OGC", Version: "1.3", Code: "CRS84"}, false},
		{"bare crs84h lowercase", "crs84h", domain.CRS{Authority: "OGC", Version: "0", Code: "CRS84h"}, false},
		{"bare garbage", "notacrs", domain.CRS{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format(domain.CRS{Authority: "EPSG", Code: "28992"})
	want := "http://www.opengis.net/def/crs/EPSG/0/28992"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestToSRID(t *testing.T) {
	tests := []struct {
		name    string
		crs     domain.CRS
		want    int
		wantErr bool
	}{
		{"crs84", domain.CRS{Authority: "OGC", Code: "CRS84"}, 4326, false},
		{"crs84h", domain.CRS{Authority: "OGC", Code: "CRS84h"}, 4979, false},
		{"epsg", domain.CRS{Authority: "EPSG", Code: "28992"}, 28992, false},
		{"unknown authority", domain.CRS{Authority: "ESRI", Code: "1"}, 0, true},
		{"unknown ogc code", domain.CRS{Authority: "OGC", Code: "bogus"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSRID(tt.crs)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToSRID(%+v) expected error, got nil", tt.crs)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToSRID(%+v) unexpected error: %v", tt.crs, err)
			}
			if got != tt.want {
				t.Errorf("ToSRID(%+v) = %d, want %d", tt.crs, got, tt.want)
			}
		})
	}
}

func TestFromSRIDRoundTrip(t *testing.T) {
	for _, srid := range []int{4326, 4979, 3857, 28992} {
		c := FromSRID(srid)
		got, err := ToSRID(c)
		if err != nil {
			t.Fatalf("ToSRID(FromSRID(%d)) unexpected error: %v", srid, err)
		}
		if got != srid {
			t.Errorf("ToSRID(FromSRID(%d)) = %d, want %d", srid, got, srid)
		}
	}
}

func TestSupports(t *testing.T) {
	supported := []string{"http://www.opengis.net/def/crs/OGC/1.3/CRS84", "EPSG:3857"}
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"bare shorthand matches uri form", "CRS84", true},
		{"uri matches shorthand-equivalent entry", "http://www.opengis.net/def/crs/EPSG/0/3857", true},
		{"not a member", "EPSG:28992", false},
		{"unparseable candidate", "notacrs", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Supports(supported, tt.candidate); got != tt.want {
				t.Errorf("Supports(%v, %q) = %v, want %v", supported, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIs3D(t *testing.T) {
	if !Is3D(domain.CRS{Authority: "OGC", Code: "CRS84h"}) {
		t.Error("Is3D(CRS84h) = false, want true")
	}
	if Is3D(domain.CRS{Authority: "OGC", Code: "CRS84"}) {
		t.Error("Is3D(CRS84) = true, want false")
	}
}
