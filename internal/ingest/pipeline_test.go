package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/TimelordUK/logpane/internal/filter"
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/pkg/classify"
)

func newPipeline(t *testing.T, maxLines int) (*Pipeline, *store.Store, *filter.Engine) {
	t.Helper()
	st := store.New(maxLines)
	heights := filter.New(st, 1)
	classifier := classify.NewPatternClassifier(classify.PatternConfig{})
	return New(st, heights, classifier, Options{}), st, heights
}

func kinds(st *store.Store) []store.Kind {
	out := make([]store.Kind, 0, st.Len())
	for _, r := range st.Records() {
		out = append(out, r.Kind)
	}
	return out
}

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func TestRepeatCompression(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("Connection lost", false, "stderr", at(0))
	p.Append("Connection lost", false, "stderr", at(500))
	p.Append("Connection lost", false, "stderr", at(4000))

	got := kinds(st)
	want := []store.Kind{store.KindLine, store.KindRepeat, store.KindLine}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d is %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}

	notice := st.At(1)
	if notice.Repeat != 2 {
		t.Fatalf("repeat count %d, want 2", notice.Repeat)
	}
	if !strings.HasPrefix(notice.Payload, "Repeated log #2 (Connection lost") {
		t.Fatalf("notification payload %q", notice.Payload)
	}
}

func TestRepeatNotificationUpdatesInPlace(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	for i := 0; i < 4; i++ {
		p.Append("tick", false, "stdout", at(i*100))
	}

	if st.Len() != 2 {
		t.Fatalf("store has %d records, want Line + one updated notification", st.Len())
	}
	notice := st.At(1)
	if notice.Kind != store.KindRepeat || notice.Repeat != 4 {
		t.Fatalf("notification = %v repeat %d, want repeat 4", notice.Kind, notice.Repeat)
	}
	if !strings.Contains(notice.Payload, "#4") {
		t.Fatalf("notification payload %q, want #4", notice.Payload)
	}
}

func TestRepeatRequiresSameLevel(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("[INFO] busy", false, "stdout", at(0))
	p.Append("[WARN] busy", false, "stdout", at(100))

	if st.Len() != 2 || st.At(1).Kind != store.KindLine {
		t.Fatalf("different levels must not fold: %v", kinds(st))
	}
}

func TestStackGroupingContiguity(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("session start", true, "stdout", at(0))
	for i := 0; i < 5; i++ {
		p.Append("    at foo (app.js:10:1)", false, "stderr", at(100+i))
	}
	p.Append("recovered", false, "stdout", at(200))

	got := kinds(st)
	want := []store.Kind{
		store.KindMarker,
		store.KindStackHeader,
		store.KindStackFrame, store.KindStackFrame, store.KindStackFrame,
		store.KindStackFrame, store.KindStackFrame,
		store.KindLine,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d is %v, want %v", i, got[i], want[i])
		}
	}

	header := st.At(1)
	g := st.Group(header.GroupID)
	if g == nil || g.FrameCount != 5 {
		t.Fatalf("group frameCount = %v, want 5", g)
	}
	if g.Collapse != store.Preview {
		t.Fatalf("new group starts in %v, want preview", g.Collapse)
	}
	for i := 2; i <= 6; i++ {
		if st.At(i).GroupID != header.GroupID {
			t.Fatalf("frame %d not in header's group", i)
		}
	}
}

func TestMarkerClosesOpenGroup(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("    at foo (app.js:1:1)", false, "stderr", at(0))
	p.Append("checkpoint", true, "stdout", at(10))
	p.Append("    at bar (app.js:2:2)", false, "stderr", at(20))

	header1, header2 := st.At(0), st.At(3)
	if header1.Kind != store.KindStackHeader || header2.Kind != store.KindStackHeader {
		t.Fatalf("expected two separate groups around the marker: %v", kinds(st))
	}
	if header1.GroupID == header2.GroupID {
		t.Fatalf("marker did not close the open group")
	}
}

func TestConsecutiveTraceDedup(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	trace := func(ts int) {
		p.Append("Error: boom", false, "stderr", at(ts))
		p.Append("    at foo (app.js:1:1)", false, "stderr", at(ts+1))
		p.Append("    at bar (app.js:2:2)", false, "stderr", at(ts+2))
	}

	trace(0)
	trace(100)
	p.Append("recovered", false, "stdout", at(10000))

	// Second trace folds into the first group's dupCount; its message line
	// folds into a repeat notification.
	headerCount := 0
	var g *store.Group
	for _, r := range st.Records() {
		if r.Kind == store.KindStackHeader {
			headerCount++
			g = st.Group(r.GroupID)
		}
	}
	if headerCount != 1 {
		t.Fatalf("found %d headers, want 1 (records: %v)", headerCount, kinds(st))
	}
	if g == nil || g.DupCount != 2 {
		t.Fatalf("dupCount = %v, want 2", g)
	}
	if g.FrameCount != 2 {
		t.Fatalf("frameCount = %d, want 2", g.FrameCount)
	}
}

func TestDifferentTracesDoNotFold(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("Error: boom", false, "stderr", at(0))
	p.Append("    at foo (app.js:1:1)", false, "stderr", at(1))
	p.Append("Error: boom again", false, "stderr", at(10))
	p.Append("    at baz (app.js:9:9)", false, "stderr", at(11))
	p.Append("done", false, "stdout", at(20))

	headerCount := 0
	for _, r := range st.Records() {
		if r.Kind == store.KindStackHeader {
			headerCount++
		}
	}
	if headerCount != 2 {
		t.Fatalf("found %d headers, want 2", headerCount)
	}
}

func TestSeparatorDetection(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"equals_rule", "================", true},
		{"boxed_title", "==== results ====", false}, // 10 of 17 chars match, under the 60% bar
		{"box_drawing", "────────────", true},
		{"mixed_rule", "-=-=-=-=-=-=", false}, // '-' is not in the glyph set
		{"prose", "all systems nominal", false},
		{"empty", "", false},
		{"hash_rule_with_spaces", "## ## ## ## ##", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSeparatorLine(tc.in); got != tc.want {
				t.Fatalf("isSeparatorLine(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEmptyTextDegradesToPlainLine(t *testing.T) {
	p, st, _ := newPipeline(t, 100)

	p.Append("", false, "stdout", at(0))
	if st.Len() != 1 || st.At(0).Kind != store.KindLine {
		t.Fatalf("empty text should become a plain line: %v", kinds(st))
	}
}

func TestEvictionResetsOpenGroup(t *testing.T) {
	p, st, _ := newPipeline(t, 4)

	// msg + 4 frames overflows a 4-record store far enough to evict the
	// in-progress group's header.
	p.Append("Error: boom", false, "stderr", at(0))
	firstFrameGroup := -1
	for i := 0; i < 4; i++ {
		p.Append("    at foo (app.js:1:1)", false, "stderr", at(10+i))
		if firstFrameGroup == -1 {
			firstFrameGroup = st.Last().GroupID
		}
	}
	if st.Group(firstFrameGroup) != nil {
		t.Fatalf("expected the original header to have been evicted")
	}

	// The open-group pointer was reset, so the next frame starts a fresh
	// group instead of extending a dangling one.
	p.Append("    at tail (app.js:2:2)", false, "stderr", at(100))
	last := st.Last()
	if last.Kind != store.KindStackFrame {
		t.Fatalf("last record = %v, want frame", last.Kind)
	}
	if last.GroupID == firstFrameGroup {
		t.Fatalf("frame extended a truncated group")
	}
	g := st.Group(last.GroupID)
	if g == nil || g.FrameCount != 1 {
		t.Fatalf("new group = %+v, want a live group with one frame", g)
	}
}
