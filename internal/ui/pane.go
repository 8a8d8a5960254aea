package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/TimelordUK/logpane/internal/config"
	"github.com/TimelordUK/logpane/internal/filter"
	"github.com/TimelordUK/logpane/internal/ingest"
	"github.com/TimelordUK/logpane/internal/render"
	"github.com/TimelordUK/logpane/internal/source"
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/internal/tail"
	"github.com/TimelordUK/logpane/internal/view"
	"github.com/TimelordUK/logpane/pkg/classify"
)

// Pane owns one complete engine instance: store, pipeline, height engine,
// viewport and renderer. A second display surface gets its own Pane; the
// store is never shared because flags and heights are per-surface state.
type Pane struct {
	cfg *config.Config

	store    *store.Store
	heights  *filter.Engine
	pipeline *ingest.Pipeline
	viewport *view.Viewport
	renderer *render.RowRenderer
	loader   *source.Loader

	file   *source.File
	tailer *tail.Tailer

	filename  string
	following bool

	levelFloor classify.Level
	appOnly    bool
	searchTerm string

	frame  *view.Frame
	width  int
	height int
	cursor int // row index within the current frame
}

// NewPane creates a pane with a fresh engine
func NewPane(cfg *config.Config) *Pane {
	p := &Pane{
		cfg:      cfg,
		renderer: render.NewRowRenderer(cfg),
		loader:   source.NewLoader(),
		width:    80,
		height:   24,
	}
	p.resetEngine()
	return p
}

// resetEngine rebuilds the store-owning components, e.g. for a new load
func (p *Pane) resetEngine() {
	classifier := classify.NewPatternClassifier(classify.PatternConfig{
		TracePatterns:     p.cfg.LogLevels.TracePatterns,
		DebugPatterns:     p.cfg.LogLevels.DebugPatterns,
		InfoPatterns:      p.cfg.LogLevels.InfoPatterns,
		WarnPatterns:      p.cfg.LogLevels.WarnPatterns,
		ErrorPatterns:     p.cfg.LogLevels.ErrorPatterns,
		FatalPatterns:     p.cfg.LogLevels.FatalPatterns,
		FrameworkPatterns: p.cfg.Framework.FramePatterns,
	})

	p.store = store.New(p.cfg.Engine.MaxLines)
	p.heights = filter.New(p.store, p.cfg.Engine.RowHeight)
	p.pipeline = ingest.New(p.store, p.heights, classifier, ingest.Options{
		RepeatWindow:  p.cfg.Engine.RepeatWindow(),
		PreviewFrames: p.cfg.Engine.PreviewFrames,
	})
	p.viewport = view.NewViewport(p.store, p.cfg.Engine.RowHeight, p.cfg.Engine.OverscanRows)
	p.viewport.SetViewport(0, p.height*p.cfg.Engine.RowHeight)
	p.frame = nil
	p.cursor = 0
	p.appOnly = false
	p.levelFloor = classify.LevelUnknown
	p.searchTerm = ""
}

// AppendBatch ingests a batch of captured lines, then runs the one
// recalculate + forced render the engine expects per flush.
func (p *Pane) AppendBatch(lines []string, category string) {
	now := time.Now()
	for _, text := range lines {
		p.pipeline.Append(text, false, category, now)
	}
	p.refresh()
}

// AddMarker appends a user marker line
func (p *Pane) AddMarker(label string) {
	p.pipeline.Append(label, true, "marker", time.Now())
	p.refresh()
}

// refresh is the post-mutation sequence: recalculate heights, keep the
// scroll position valid, re-render with the hysteresis guard bypassed.
func (p *Pane) refresh() {
	p.heights.Recalculate()
	if p.following {
		p.viewport.SetViewport(p.viewport.MaxScroll(), p.height*p.cfg.Engine.RowHeight)
	} else if p.viewport.ScrollOffset() > p.viewport.MaxScroll() {
		p.viewport.SetViewport(p.viewport.MaxScroll(), p.height*p.cfg.Engine.RowHeight)
	}
	p.frame = p.viewport.Render(true)
	p.clampCursor()
}

// SetSize updates the pane dimensions
func (p *Pane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.SetViewport(p.viewport.ScrollOffset(), height*p.cfg.Engine.RowHeight)
	p.frame = p.viewport.Render(true)
	p.clampCursor()
}

// Scroll moves the viewport by delta rows (negative is up)
func (p *Pane) Scroll(delta int) {
	offset := p.viewport.ScrollOffset() + delta*p.cfg.Engine.RowHeight
	if offset > p.viewport.MaxScroll() {
		offset = p.viewport.MaxScroll()
	}
	if offset < 0 {
		offset = 0
	}
	p.following = false
	p.viewport.SetViewport(offset, p.height*p.cfg.Engine.RowHeight)
	p.frame = p.viewport.Render(false)
	p.clampCursor()
}

// PageDown scrolls one page down
func (p *Pane) PageDown() { p.Scroll(p.height - 1) }

// PageUp scrolls one page up
func (p *Pane) PageUp() { p.Scroll(-(p.height - 1)) }

// GotoTop scrolls to the beginning
func (p *Pane) GotoTop() {
	p.following = false
	p.viewport.SetViewport(0, p.height*p.cfg.Engine.RowHeight)
	p.frame = p.viewport.Render(false)
	p.cursor = 0
}

// GotoBottom scrolls to the end
func (p *Pane) GotoBottom() {
	p.viewport.SetViewport(p.viewport.MaxScroll(), p.height*p.cfg.Engine.RowHeight)
	p.frame = p.viewport.Render(false)
	p.clampCursor()
}

// CursorUp moves the selection up one visible row
func (p *Pane) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
	} else {
		p.Scroll(-1)
	}
}

// CursorDown moves the selection down one visible row
func (p *Pane) CursorDown() {
	if p.frame != nil && p.cursor < len(p.frame.Rows)-1 {
		p.cursor++
	} else {
		p.Scroll(1)
	}
}

func (p *Pane) clampCursor() {
	if p.frame == nil || len(p.frame.Rows) == 0 {
		p.cursor = 0
		return
	}
	if p.cursor >= len(p.frame.Rows) {
		p.cursor = len(p.frame.Rows) - 1
	}
}

// ToggleCollapseAtCursor cycles the collapse state of the stack group
// under the cursor. Rows outside a group are a no-op.
func (p *Pane) ToggleCollapseAtCursor() {
	if p.frame == nil || p.cursor >= len(p.frame.Rows) {
		return
	}
	row := p.frame.Rows[p.cursor]
	if row.GroupID == store.NoGroup {
		return
	}
	p.heights.ToggleCollapse(row.GroupID)
	p.refresh()
}

// CycleLevelFloor steps the severity floor all -> warn -> error -> all
func (p *Pane) CycleLevelFloor() {
	switch p.levelFloor {
	case classify.LevelUnknown:
		p.levelFloor = classify.LevelWarn
	case classify.LevelWarn:
		p.levelFloor = classify.LevelError
	default:
		p.levelFloor = classify.LevelUnknown
	}
	p.heights.FilterLevel(p.levelFloor)
	p.refresh()
}

// ToggleAppOnly flips app-only mode for expanded stack groups
func (p *Pane) ToggleAppOnly() {
	p.appOnly = !p.appOnly
	p.heights.SetAppOnly(p.appOnly)
	p.refresh()
}

// SetSearch applies (or with "" clears) the search filter
func (p *Pane) SetSearch(term string) {
	p.searchTerm = term
	p.heights.Search(term)
	p.refresh()
}

// ToggleFollow switches follow mode
func (p *Pane) ToggleFollow() {
	p.following = !p.following
	if p.following {
		p.GotoBottom()
	}
}

// Following reports whether follow mode is on
func (p *Pane) Following() bool {
	return p.following
}

// OpenFile attaches a file for follow mode without replaying its history
func (p *Pane) OpenFile(path string) error {
	f, err := source.Open(path)
	if err != nil {
		return err
	}
	p.closeFile()
	p.file = f
	p.filename = path
	p.tailer = tail.New(f, p.cfg.Engine.TailPoll(), func(lines []string) {
		p.AppendBatch(lines, "stdout")
	})
	return nil
}

// PollTail runs one tail poll cycle; the TUI drives it from its own timer
func (p *Pane) PollTail() {
	if p.tailer == nil {
		return
	}
	p.tailer.Poll()
}

// BeginLoad starts a new load generation and returns its token
func (p *Pane) BeginLoad() uint64 {
	return p.loader.Begin()
}

// ReadLoad performs the blocking read for a generation token
func (p *Pane) ReadLoad(path string, gen uint64, opts source.LoadOptions) (*source.Result, error) {
	return p.loader.Read(path, gen, opts)
}

// ApplyLoad replays a completed load into a fresh engine. Stale
// generations are discarded: a slow load must not clobber a newer one.
func (p *Pane) ApplyLoad(res *source.Result) {
	if res == nil || p.loader.Stale(res.Gen) {
		return
	}
	p.resetEngine()
	p.filename = res.Path
	for _, line := range res.Lines {
		p.pipeline.Append(line.Text, false, "stdout", line.Time)
	}
	p.refresh()
}

func (p *Pane) closeFile() {
	if p.tailer != nil {
		p.tailer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

// Close releases the pane's file resources
func (p *Pane) Close() {
	p.closeFile()
}

// TotalHeight exposes the scroll container size
func (p *Pane) TotalHeight() int {
	return p.store.TotalHeight()
}

// Filename returns the attached file name, "" for a live-only pane
func (p *Pane) Filename() string {
	return p.filename
}

// StatusLine summarizes the pane state for the status bar
func (p *Pane) StatusLine() string {
	parts := []string{fmt.Sprintf("%d lines", p.store.Len())}
	if p.levelFloor != classify.LevelUnknown {
		parts = append(parts, "level≥"+p.levelFloor.String())
	}
	if p.searchTerm != "" {
		parts = append(parts, fmt.Sprintf("search=%q", p.searchTerm))
	}
	if p.appOnly {
		parts = append(parts, "app-only")
	}
	if p.following {
		parts = append(parts, "follow")
	}
	return strings.Join(parts, " | ")
}

// View paints the visible slice of the current frame. The frame includes
// overscan rows; the pane skips down to the scroll position and emits one
// terminal line per visible row.
func (p *Pane) View() string {
	if p.frame == nil {
		p.frame = p.viewport.Render(true)
	}

	rowHeight := p.cfg.Engine.RowHeight
	skip := (p.viewport.ScrollOffset() - p.frame.TopSpacer) / rowHeight
	if skip < 0 {
		skip = 0
	}

	var b strings.Builder
	shown := 0
	for i := skip; i < len(p.frame.Rows) && shown < p.height; i++ {
		if shown > 0 {
			b.WriteString("\n")
		}
		row := p.frame.Rows[i]

		var group *store.Group
		if row.Kind == store.KindStackHeader {
			group = p.store.Group(row.GroupID)
		}
		line := p.renderer.Render(row, group)
		if i == p.cursor {
			line = "> " + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		shown++
	}

	for ; shown < p.height; shown++ {
		if shown > 0 {
			b.WriteString("\n")
		}
		b.WriteString("~")
	}

	return b.String()
}
