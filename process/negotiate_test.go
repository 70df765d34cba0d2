package process

import "testing"

func TestParsePrefer(t *testing.T) {
	tests := []struct {
		header string
		want   Preference
	}{
		{"respond-async", Preference{RespondAsync: true}},
		{"respond-sync", Preference{RespondSync: true}},
		{"respond-async, wait=10", Preference{RespondAsync: true}},
		{"", Preference{}},
		{"handling=strict", Preference{}},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := ParsePrefer(tt.header); got != tt.want {
				t.Errorf("ParsePrefer(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name                   string
		pref                   Preference
		offersSync, offersAsync bool
		wantMode               Mode
		wantApplied            bool
	}{
		{"both offered, no preference defaults sync", Preference{}, true, true, ModeSync, false},
		{"both offered, prefers async", Preference{RespondAsync: true}, true, true, ModeAsync, true},
		{"both offered, prefers sync", Preference{RespondSync: true}, true, true, ModeSync, true},
		{"only sync offered, prefers async is overridden", Preference{RespondAsync: true}, true, false, ModeSync, false},
		{"only async offered, prefers sync is overridden", Preference{RespondSync: true}, false, true, ModeAsync, false},
		{"only sync offered, no preference", Preference{}, true, false, ModeSync, false},
		{"only async offered, no preference", Preference{}, false, true, ModeAsync, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, applied := Negotiate(tt.pref, tt.offersSync, tt.offersAsync)
			if mode != tt.wantMode || applied != tt.wantApplied {
				t.Errorf("Negotiate() = (%v, %v), want (%v, %v)", mode, applied, tt.wantMode, tt.wantApplied)
			}
		})
	}
}
