package filter_test

import (
	"testing"
	"time"

	"github.com/TimelordUK/logpane/internal/filter"
	"github.com/TimelordUK/logpane/internal/ingest"
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/pkg/classify"
)

func fixture(t *testing.T) (*store.Store, *filter.Engine, *ingest.Pipeline) {
	t.Helper()
	st := store.New(1000)
	e := filter.New(st, 1)
	classifier := classify.NewPatternClassifier(classify.PatternConfig{})
	p := ingest.New(st, e, classifier, ingest.Options{})
	return st, e, p
}

func ts(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func sumHeights(st *store.Store) int {
	total := 0
	for _, r := range st.Records() {
		total += r.Height
	}
	return total
}

// appendTrace ingests one message plus app and framework frames
func appendTrace(p *ingest.Pipeline, app, framework int, base int) {
	p.Append("Error: exploded", false, "stderr", ts(base))
	for i := 0; i < app; i++ {
		p.Append("    at handler (app.js:10:1)", false, "stderr", ts(base+1+i))
	}
	for i := 0; i < framework; i++ {
		p.Append("    at run (node_modules/lib/index.js:5:5)", false, "stderr", ts(base+100+i))
	}
	p.Append("end of trace", false, "stderr", ts(base+10000))
}

func TestFlagSuppressionEquivalence(t *testing.T) {
	// For every flag: setting it zeroes the height, clearing restores it.
	st, e, p := fixture(t)
	p.Append("[INFO] hello", false, "stdout", ts(0))
	e.Recalculate()

	r := st.At(0)
	flags := []store.Flags{
		store.FlagCategory, store.FlagExclusion, store.FlagLevel,
		store.FlagSource, store.FlagClass, store.FlagSearch,
		store.FlagTransient, store.FlagScope,
	}
	for _, flag := range flags {
		e.SetFlag(r.Seq, flag, true)
		e.Recalculate()
		if r.Height != 0 {
			t.Fatalf("flag %b set but height = %d", flag, r.Height)
		}
		if st.TotalHeight() != sumHeights(st) {
			t.Fatalf("sum invariant broken with flag %b", flag)
		}

		e.SetFlag(r.Seq, flag, false)
		e.Recalculate()
		if r.Height != 1 {
			t.Fatalf("flag %b cleared but height = %d", flag, r.Height)
		}
	}
}

func TestTotalHeightInvariant(t *testing.T) {
	st, e, p := fixture(t)
	appendTrace(p, 5, 2, 0)
	p.Append("plain", false, "stdout", ts(20000))
	e.Recalculate()

	if st.TotalHeight() != sumHeights(st) {
		t.Fatalf("totalHeight %d != sum %d", st.TotalHeight(), sumHeights(st))
	}

	// Still holds through filters, collapse changes and app-only mode.
	e.Search("at")
	e.ToggleCollapse(0)
	e.SetAppOnly(true)
	e.Recalculate()
	if st.TotalHeight() != sumHeights(st) {
		t.Fatalf("totalHeight %d != sum %d after mutations", st.TotalHeight(), sumHeights(st))
	}
}

func TestPrimeKeepsTotalInStep(t *testing.T) {
	// Incremental priming at append time must agree with a full pass.
	st, e, p := fixture(t)
	appendTrace(p, 3, 1, 0)
	p.Append("tail line", false, "stdout", ts(30000))

	primed := st.TotalHeight()
	e.Recalculate()
	if st.TotalHeight() != primed {
		t.Fatalf("primed total %d, recalculated %d", primed, st.TotalHeight())
	}
}

func TestPreviewMath(t *testing.T) {
	// 5 app frames + 2 framework, previewCount 3: exactly 3 frames shown,
	// header badge reports +4 more.
	st, e, p := fixture(t)
	appendTrace(p, 5, 2, 0)
	e.Recalculate()

	var g *store.Group
	visibleFrames := 0
	for _, r := range st.Records() {
		if r.Kind == store.KindStackHeader {
			g = st.Group(r.GroupID)
			if r.Height != 1 {
				t.Fatalf("header height = %d, want 1", r.Height)
			}
		}
		if r.Kind == store.KindStackFrame && r.Height > 0 {
			visibleFrames++
			if r.IsFramework {
				t.Fatalf("framework frame visible in preview")
			}
		}
	}
	if visibleFrames != 3 {
		t.Fatalf("preview shows %d frames, want 3", visibleFrames)
	}
	if g == nil {
		t.Fatalf("no group found")
	}
	if g.Collapse != store.Preview {
		t.Fatalf("collapse state %v, want preview", g.Collapse)
	}
	if hidden := g.PreviewHidden(); hidden != 4 {
		t.Fatalf("preview hidden = %d, want 4", hidden)
	}
}

func TestCollapseCycling(t *testing.T) {
	st, e, p := fixture(t)
	appendTrace(p, 5, 2, 0)
	e.Recalculate()

	countVisible := func() int {
		n := 0
		for _, r := range st.Records() {
			if r.Kind == store.KindStackFrame && r.Height > 0 {
				n++
			}
		}
		return n
	}

	// Preview -> Expanded: every frame visible.
	e.ToggleCollapse(0)
	e.Recalculate()
	if got := countVisible(); got != 7 {
		t.Fatalf("expanded shows %d frames, want 7", got)
	}

	// App-only hides framework frames while expanded.
	e.SetAppOnly(true)
	e.Recalculate()
	if got := countVisible(); got != 5 {
		t.Fatalf("expanded app-only shows %d frames, want 5", got)
	}
	e.SetAppOnly(false)

	// Expanded -> Collapsed: header only.
	e.ToggleCollapse(0)
	e.Recalculate()
	if got := countVisible(); got != 0 {
		t.Fatalf("collapsed shows %d frames, want 0", got)
	}

	// Collapsed -> Preview.
	e.ToggleCollapse(0)
	e.Recalculate()
	if got := countVisible(); got != 3 {
		t.Fatalf("preview shows %d frames, want 3", got)
	}
}

func TestInvalidReferencesAreNoOps(t *testing.T) {
	_, e, p := fixture(t)
	p.Append("hello", false, "stdout", ts(0))

	// Races between eviction and UI actions are expected; neither call
	// may panic or change anything.
	e.SetFlag(9999, store.FlagSearch, true)
	e.ToggleCollapse(42)
	e.Recalculate()
}

func TestBulkAppliers(t *testing.T) {
	cases := []struct {
		name    string
		apply   func(e *filter.Engine)
		clear   func(e *filter.Engine)
		visible int // plain lines visible after apply
	}{
		{
			name:    "level_floor",
			apply:   func(e *filter.Engine) { e.FilterLevel(classify.LevelWarn) },
			clear:   func(e *filter.Engine) { e.FilterLevel(classify.LevelUnknown) },
			visible: 3, // warn, error + the unleveled separator
		},
		{
			name:    "search",
			apply:   func(e *filter.Engine) { e.Search("request") },
			clear:   func(e *filter.Engine) { e.Search("") },
			visible: 2,
		},
		{
			name:    "category",
			apply:   func(e *filter.Engine) { e.FilterCategory("stderr") },
			clear:   func(e *filter.Engine) { e.FilterCategory("") },
			visible: 1,
		},
		{
			name:    "exclusion",
			apply:   func(e *filter.Engine) { e.Exclude("request") },
			clear:   func(e *filter.Engine) { e.Exclude("") },
			visible: 3,
		},
		{
			name:    "separators",
			apply:   func(e *filter.Engine) { e.HideSeparators(true) },
			clear:   func(e *filter.Engine) { e.HideSeparators(false) },
			visible: 4,
		},
		{
			name:    "transient",
			apply:   func(e *filter.Engine) { e.SuppressTransient([]string{"ECONNRESET"}) },
			clear:   func(e *filter.Engine) { e.SuppressTransient(nil) },
			visible: 4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, e, p := fixture(t)
			p.Append("[INFO] request started", false, "stdout", ts(0))
			p.Append("[WARN] request slow", false, "stdout", ts(5000))
			p.Append("[ERROR] ECONNRESET", false, "stderr", ts(10000))
			p.Append("================", false, "stdout", ts(15000))
			p.Append("[DEBUG] idle", false, "stdout", ts(20000))

			tc.apply(e)
			e.Recalculate()
			visible := 0
			for _, r := range st.Records() {
				if r.Height > 0 {
					visible++
				}
			}
			if visible != tc.visible {
				t.Fatalf("%d records visible, want %d", visible, tc.visible)
			}

			tc.clear(e)
			e.Recalculate()
			if got := sumHeights(st); got != 5 {
				t.Fatalf("clearing left %d visible, want 5", got)
			}
		})
	}
}

func TestPrimeAppliesActivePredicates(t *testing.T) {
	st, e, p := fixture(t)
	e.Search("keep")

	p.Append("keep me", false, "stdout", ts(0))
	p.Append("drop me", false, "stdout", ts(100))

	if st.At(0).Height != 1 {
		t.Fatalf("matching record suppressed at prime time")
	}
	if st.At(1).Height != 0 || !st.At(1).Suppressed() {
		t.Fatalf("non-matching record not suppressed at prime time")
	}
}

func TestScopeFrom(t *testing.T) {
	st, e, p := fixture(t)
	p.Append("old one", false, "stdout", ts(0))
	p.Append("old two", false, "stdout", ts(5000))
	p.Append("fresh", false, "stdout", ts(10000))

	e.ScopeFrom(st.At(2).Seq)
	e.Recalculate()
	if st.TotalHeight() != 1 {
		t.Fatalf("scope left %d visible, want 1", st.TotalHeight())
	}

	e.ScopeFrom(0)
	e.Recalculate()
	if st.TotalHeight() != 3 {
		t.Fatalf("clearing scope left %d visible, want 3", st.TotalHeight())
	}
}
