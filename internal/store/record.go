package store

import (
	"time"

	"github.com/TimelordUK/logpane/pkg/classify"
)

// Kind identifies what a record is, which decides how it is grouped,
// measured and rendered.
type Kind int

const (
	KindLine Kind = iota
	KindMarker
	KindStackHeader
	KindStackFrame
	KindRepeat
)

// String returns the kind name for status lines and test failures
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindMarker:
		return "marker"
	case KindStackHeader:
		return "stack-header"
	case KindStackFrame:
		return "stack-frame"
	case KindRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Flags is the set of independent suppression predicates on a record.
// Any bit set means the record is invisible; the bits never interact.
type Flags uint16

const (
	FlagCategory Flags = 1 << iota
	FlagExclusion
	FlagLevel
	FlagSource
	FlagClass
	FlagSearch
	FlagTransient
	FlagScope
)

// NoGroup marks records that are not part of a stack group
const NoGroup = -1

// Record is one entry in the Line Store. Height is derived state: only the
// height engine assigns it (and the store itself subtracts it on eviction).
type Record struct {
	Seq      uint64
	Kind     Kind
	Payload  string // renderable content
	Plain    string // plain text used for matching
	Category string // stream label, e.g. stdout/stderr
	Time     time.Time
	Level    classify.Level

	GroupID     int // NoGroup unless part of a stack group
	IsFramework bool
	IsSeparator bool
	SourceTag   string

	Repeat int // duplicate count, KindRepeat only

	Flags  Flags
	Height int
}

// Suppressed reports whether any suppression flag is set
func (r *Record) Suppressed() bool {
	return r.Flags != 0
}

// CollapseState is the display state of a stack group
type CollapseState int

const (
	// Preview shows the first previewCount app frames, framework frames hidden
	Preview CollapseState = iota
	// Expanded shows every frame (framework frames subject to app-only mode)
	Expanded
	// Collapsed shows only the header
	Collapsed
)

// Cycle advances to the next state in the fixed user-facing order
// Preview -> Expanded -> Collapsed -> Preview.
func (s CollapseState) Cycle() CollapseState {
	switch s {
	case Preview:
		return Expanded
	case Expanded:
		return Collapsed
	default:
		return Preview
	}
}

// String returns the state name
func (s CollapseState) String() string {
	switch s {
	case Preview:
		return "preview"
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Group is the view over one StackHeader and its contiguous StackFrames.
type Group struct {
	ID           int
	HeaderSeq    uint64
	Collapse     CollapseState
	FrameCount   int // all frames
	AppFrames    int // non-framework frames
	PreviewCount int // app frames shown while in Preview
	DupCount     int // identical consecutive traces folded into this one

	Signature uint64 // hash of frame text, for consecutive-trace dedup
}

// PreviewHidden returns N for the "+N more" preview badge: hidden app
// frames plus every framework frame.
func (g *Group) PreviewHidden() int {
	hidden := g.AppFrames - g.PreviewCount
	if hidden < 0 {
		hidden = 0
	}
	return hidden + (g.FrameCount - g.AppFrames)
}
