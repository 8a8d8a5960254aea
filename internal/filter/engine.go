package filter

import (
	"strings"

	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/pkg/classify"
)

// Predicate decides whether a record should carry a given suppression flag
type Predicate func(*store.Record) bool

// Engine owns suppression flags and record heights. It is the only code
// that assigns Height: once per new record (Prime) and authoritatively for
// the whole store (Recalculate). Callers batch flag and collapse changes,
// then run Recalculate before the next render.
type Engine struct {
	store     *store.Store
	rowHeight int
	appOnly   bool

	// active predicates, re-applied to records as they arrive
	predicates map[store.Flags]Predicate
}

// New creates a height engine over a store
func New(st *store.Store, rowHeight int) *Engine {
	if rowHeight < 1 {
		rowHeight = 1
	}
	return &Engine{
		store:      st,
		rowHeight:  rowHeight,
		predicates: make(map[store.Flags]Predicate),
	}
}

// RowHeight returns the height of one visible row
func (e *Engine) RowHeight() int {
	return e.rowHeight
}

// SetFlag sets or clears one suppression flag on one record. Heights are
// untouched until Recalculate. Unknown sequence numbers are a no-op: the
// record may have raced with eviction.
func (e *Engine) SetFlag(seq uint64, flag store.Flags, on bool) {
	r := e.store.BySeq(seq)
	if r == nil {
		return
	}
	if on {
		r.Flags |= flag
	} else {
		r.Flags &^= flag
	}
}

// SetAppOnly toggles app-only mode: framework frames of expanded groups
// are hidden while it is active. Takes effect at the next Recalculate.
func (e *Engine) SetAppOnly(on bool) {
	e.appOnly = on
}

// AppOnly reports whether app-only mode is active
func (e *Engine) AppOnly() bool {
	return e.appOnly
}

// ToggleCollapse cycles a group Preview -> Expanded -> Collapsed -> Preview.
// Unknown group ids are a no-op. Takes effect at the next Recalculate.
func (e *Engine) ToggleCollapse(groupID int) {
	g := e.store.Group(groupID)
	if g == nil {
		return
	}
	g.Collapse = g.Collapse.Cycle()
}

// Apply installs (or, with a nil predicate, removes) the predicate behind
// one flag and re-flags every live record accordingly. New records are
// flagged on arrival. Heights are untouched until Recalculate.
func (e *Engine) Apply(flag store.Flags, pred Predicate) {
	if pred == nil {
		delete(e.predicates, flag)
	} else {
		e.predicates[flag] = pred
	}
	for _, r := range e.store.Records() {
		if pred != nil && pred(r) {
			r.Flags |= flag
		} else {
			r.Flags &^= flag
		}
	}
}

// FilterLevel suppresses records below the given severity. Records with no
// detected level always pass. LevelUnknown clears the filter.
func (e *Engine) FilterLevel(min classify.Level) {
	if min == classify.LevelUnknown {
		e.Apply(store.FlagLevel, nil)
		return
	}
	e.Apply(store.FlagLevel, func(r *store.Record) bool {
		return r.Level != classify.LevelUnknown && r.Level < min
	})
}

// Search suppresses records whose plain text does not contain term
// (case-insensitive). An empty term clears the filter.
func (e *Engine) Search(term string) {
	if term == "" {
		e.Apply(store.FlagSearch, nil)
		return
	}
	needle := strings.ToLower(term)
	e.Apply(store.FlagSearch, func(r *store.Record) bool {
		return !strings.Contains(strings.ToLower(r.Plain), needle)
	})
}

// FilterCategory shows only one stream category, "" clears
func (e *Engine) FilterCategory(category string) {
	if category == "" {
		e.Apply(store.FlagCategory, nil)
		return
	}
	e.Apply(store.FlagCategory, func(r *store.Record) bool {
		return r.Category != category
	})
}

// Exclude suppresses records containing term, "" clears
func (e *Engine) Exclude(term string) {
	if term == "" {
		e.Apply(store.FlagExclusion, nil)
		return
	}
	needle := strings.ToLower(term)
	e.Apply(store.FlagExclusion, func(r *store.Record) bool {
		return strings.Contains(strings.ToLower(r.Plain), needle)
	})
}

// FilterSource shows only records carrying the given source tag, "" clears
func (e *Engine) FilterSource(tag string) {
	if tag == "" {
		e.Apply(store.FlagSource, nil)
		return
	}
	e.Apply(store.FlagSource, func(r *store.Record) bool {
		return r.SourceTag != tag
	})
}

// HideSeparators suppresses drawing/separator lines
func (e *Engine) HideSeparators(hide bool) {
	if !hide {
		e.Apply(store.FlagClass, nil)
		return
	}
	e.Apply(store.FlagClass, func(r *store.Record) bool {
		return r.IsSeparator
	})
}

// SuppressTransient hides error-level lines matching any of the given
// substrings (connection resets, timeouts and the like). Nil clears.
func (e *Engine) SuppressTransient(patterns []string) {
	if len(patterns) == 0 {
		e.Apply(store.FlagTransient, nil)
		return
	}
	e.Apply(store.FlagTransient, func(r *store.Record) bool {
		if r.Level < classify.LevelError {
			return false
		}
		for _, p := range patterns {
			if strings.Contains(r.Plain, p) {
				return true
			}
		}
		return false
	})
}

// ScopeFrom suppresses records older than the given sequence number,
// scoping the view to everything after a chosen point. Zero clears.
func (e *Engine) ScopeFrom(seq uint64) {
	if seq == 0 {
		e.Apply(store.FlagScope, nil)
		return
	}
	e.Apply(store.FlagScope, func(r *store.Record) bool {
		return r.Seq < seq
	})
}

// Prime flags a newly appended record with the active predicates and gives
// it its initial height, keeping the store's total in step. The record
// must be the store's tail.
func (e *Engine) Prime(r *store.Record) {
	for flag, pred := range e.predicates {
		if pred(r) {
			r.Flags |= flag
		}
	}

	h := 0
	if !r.Suppressed() {
		// A just-appended frame is the last of its group, so its ordinal
		// among app frames is AppFrames-1.
		g := e.store.Group(r.GroupID)
		ordinal := 0
		if g != nil && r.Kind == store.KindStackFrame && !r.IsFramework {
			ordinal = g.AppFrames - 1
		}
		h = e.recordHeight(r, g, ordinal)
	}
	r.Height = h
	e.store.AddHeight(h)
}

// Recalculate is the authoritative height pass: it walks every record in
// sequence order, applies the suppression and collapse policies, and
// rebuilds totalHeight exactly.
func (e *Engine) Recalculate() {
	total := 0
	appSeen := 0
	currentGroup := store.NoGroup

	for _, r := range e.store.Records() {
		if r.GroupID != currentGroup {
			currentGroup = r.GroupID
			appSeen = 0
		}

		ordinal := 0
		if r.Kind == store.KindStackFrame && !r.IsFramework {
			ordinal = appSeen
			appSeen++
		}

		h := 0
		if !r.Suppressed() {
			h = e.recordHeight(r, e.store.Group(r.GroupID), ordinal)
		}
		r.Height = h
		total += h
	}

	e.store.SetTotalHeight(total)
}

// recordHeight applies the per-kind policy for an unsuppressed record.
// ordinal is the record's position among the group's app frames.
func (e *Engine) recordHeight(r *store.Record, g *store.Group, ordinal int) int {
	if r.Kind != store.KindStackFrame {
		return e.rowHeight
	}
	if g == nil {
		// Header evicted out from under the frame: degrade to a plain row.
		return e.rowHeight
	}

	switch g.Collapse {
	case store.Collapsed:
		return 0
	case store.Expanded:
		if e.appOnly && r.IsFramework {
			return 0
		}
		return e.rowHeight
	default: // Preview
		if r.IsFramework || ordinal >= g.PreviewCount {
			return 0
		}
		return e.rowHeight
	}
}
