package render

import (
	"testing"

	"github.com/TimelordUK/logpane/internal/store"
)

func TestHeaderBadge(t *testing.T) {
	cases := []struct {
		name  string
		group *store.Group
		want  string
	}{
		{"nil_group", nil, ""},
		{
			"preview_with_hidden",
			&store.Group{Collapse: store.Preview, FrameCount: 7, AppFrames: 5, PreviewCount: 3, DupCount: 1},
			" (+4 more)",
		},
		{
			"preview_all_shown",
			&store.Group{Collapse: store.Preview, FrameCount: 2, AppFrames: 2, PreviewCount: 3, DupCount: 1},
			"",
		},
		{
			"collapsed",
			&store.Group{Collapse: store.Collapsed, FrameCount: 5, DupCount: 1},
			" (4 more frames)",
		},
		{
			"collapsed_single_frame",
			&store.Group{Collapse: store.Collapsed, FrameCount: 1, DupCount: 1},
			"",
		},
		{
			"expanded_no_suffix",
			&store.Group{Collapse: store.Expanded, FrameCount: 5, AppFrames: 5, DupCount: 1},
			"",
		},
		{
			"duplicate_traces",
			&store.Group{Collapse: store.Expanded, FrameCount: 3, AppFrames: 3, DupCount: 4},
			" (×4)",
		},
		{
			"collapsed_with_duplicates",
			&store.Group{Collapse: store.Collapsed, FrameCount: 3, DupCount: 2},
			" (2 more frames, ×2)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HeaderBadge(tc.group); got != tc.want {
				t.Fatalf("HeaderBadge = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLooksLikeJSON(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`{"level":"info","msg":"up"}`, true},
		{`  [1, 2, 3]  `, true},
		{`[INFO] not json`, false},
		{`plain text`, false},
		{`{unclosed`, false},
		{``, false},
	}
	for _, tc := range cases {
		if got := looksLikeJSON(tc.in); got != tc.want {
			t.Fatalf("looksLikeJSON(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestHighlightOnlyTouchesJSON(t *testing.T) {
	s := NewSyntaxHighlighter()

	if _, ok := s.Highlight("plain log line"); ok {
		t.Fatalf("highlighter applied to non-JSON payload")
	}
	out, ok := s.Highlight(`{"a": 1}`)
	if !ok {
		t.Fatalf("highlighter skipped a JSON payload")
	}
	if out == "" {
		t.Fatalf("highlighted output empty")
	}
}
