package ui

import (
	"testing"

	"github.com/TimelordUK/logpane/internal/source"
)

func TestParseSliceRange(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    source.LoadOptions
		wantErr bool
	}{
		{"empty", "", source.LoadOptions{}, false},
		{"bounded", "1000-5000", source.LoadOptions{StartLine: 1000, EndLine: 5000}, false},
		{"to_end", "100-$", source.LoadOptions{StartLine: 100, EndLine: 0}, false},
		{"missing_dash", "1000", source.LoadOptions{}, true},
		{"bad_start", "x-5", source.LoadOptions{}, true},
		{"bad_end", "5-x", source.LoadOptions{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSliceRange(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseSliceRange(%q) succeeded, want error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSliceRange(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("parseSliceRange(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	bindings := []string{"j", "down"}
	if !matches("j", bindings) || !matches("down", bindings) {
		t.Fatalf("bound key not matched")
	}
	if matches("k", bindings) {
		t.Fatalf("unbound key matched")
	}
}
