package view

import (
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/pkg/classify"
)

// Row is one visible row descriptor: everything a presentation layer needs,
// with no reference back into the live store.
type Row struct {
	Seq         uint64
	Kind        store.Kind
	Payload     string
	Level       classify.Level
	Category    string
	GroupID     int
	IsFramework bool
	IsSeparator bool
	SourceTag   string
	Repeat      int
}

// Frame is the output of one render pass: the materialized rows plus the
// spacers that keep the scrollable container at totalHeight.
type Frame struct {
	Rows       []Row
	TopSpacer  int
	BotSpacer  int
	StartIndex int
	EndIndex   int
}

// Viewport computes the minimal contiguous record range to materialize for
// a scroll position, with overscan and a hysteresis guard against
// re-materializing on small scroll deltas.
//
// It knows nothing about filters or grouping; it only reads the heights
// the height engine left behind.
type Viewport struct {
	store        *store.Store
	rowHeight    int
	overscanRows int

	scrollOffset int
	viewportSize int

	lastStart int
	lastEnd   int
	lastFrame *Frame

	materializations int
}

// NewViewport creates a viewport over a store
func NewViewport(st *store.Store, rowHeight, overscanRows int) *Viewport {
	if rowHeight < 1 {
		rowHeight = 1
	}
	if overscanRows < 0 {
		overscanRows = 0
	}
	return &Viewport{
		store:        st,
		rowHeight:    rowHeight,
		overscanRows: overscanRows,
		lastStart:    -1,
		lastEnd:      -1,
	}
}

// SetViewport updates scroll position and viewport size (both in height
// units). Negative offsets clamp to zero.
func (v *Viewport) SetViewport(scrollOffset, size int) {
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if size < 0 {
		size = 0
	}
	v.scrollOffset = scrollOffset
	v.viewportSize = size
}

// ScrollOffset returns the current scroll position
func (v *Viewport) ScrollOffset() int {
	return v.scrollOffset
}

// ViewportSize returns the current viewport size
func (v *Viewport) ViewportSize() int {
	return v.viewportSize
}

// MaxScroll returns the largest useful scroll offset
func (v *Viewport) MaxScroll() int {
	max := v.store.TotalHeight() - v.viewportSize
	if max < 0 {
		max = 0
	}
	return max
}

// Materializations counts how many times a frame was actually rebuilt,
// as opposed to served from the hysteresis cache.
func (v *Viewport) Materializations() int {
	return v.materializations
}

// Invalidate drops the cached frame so the next render rebuilds it
func (v *Viewport) Invalidate() {
	v.lastStart = -1
	v.lastEnd = -1
	v.lastFrame = nil
}

// Render computes the frame for the current scroll position. Unless force
// is set, a request whose start and end indices both land within half the
// overscan of the previous materialization returns the previous frame
// unchanged: the materialized window already covers the view.
func (v *Viewport) Render(force bool) *Frame {
	topTarget := v.scrollOffset - v.overscanRows*v.rowHeight
	if topTarget < 0 {
		topTarget = 0
	}
	bottomTarget := v.scrollOffset + v.viewportSize + v.overscanRows*v.rowHeight

	records := v.store.Records()

	// Forward scan to the first record whose extent crosses topTarget.
	startIndex := 0
	startOffset := 0
	for startIndex < len(records) && startOffset+records[startIndex].Height <= topTarget {
		startOffset += records[startIndex].Height
		startIndex++
	}

	// Continue until the accumulated height covers bottomTarget. Zero-height
	// records are scanned over but never bound the range.
	endIndex := startIndex - 1
	acc := startOffset
	for i := startIndex; i < len(records); i++ {
		acc += records[i].Height
		endIndex = i
		if acc > bottomTarget {
			break
		}
	}

	if !force && v.lastFrame != nil &&
		abs(startIndex-v.lastStart) < v.overscanRows/2 &&
		abs(endIndex-v.lastEnd) < v.overscanRows/2 {
		return v.lastFrame
	}

	frame := &Frame{
		TopSpacer:  startOffset,
		BotSpacer:  v.store.TotalHeight() - acc,
		StartIndex: startIndex,
		EndIndex:   endIndex,
	}
	for i := startIndex; i <= endIndex && i < len(records); i++ {
		r := records[i]
		if r.Height == 0 {
			continue
		}
		frame.Rows = append(frame.Rows, Row{
			Seq:         r.Seq,
			Kind:        r.Kind,
			Payload:     r.Payload,
			Level:       r.Level,
			Category:    r.Category,
			GroupID:     r.GroupID,
			IsFramework: r.IsFramework,
			IsSeparator: r.IsSeparator,
			SourceTag:   r.SourceTag,
			Repeat:      r.Repeat,
		})
	}

	v.lastStart = startIndex
	v.lastEnd = endIndex
	v.lastFrame = frame
	v.materializations++
	return frame
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
