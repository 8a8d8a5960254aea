package ingest

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/TimelordUK/logpane/internal/filter"
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/pkg/classify"
)

const (
	// repeatHashChars bounds how much of a line feeds the repeat hash
	repeatHashChars = 200
	// repeatPreviewChars bounds the original-text preview in a notification
	repeatPreviewChars = 85

	// DefaultRepeatWindow is the gap under which a duplicate line is folded
	DefaultRepeatWindow = 3000 * time.Millisecond
	// DefaultPreviewFrames is how many app frames a previewed trace shows
	DefaultPreviewFrames = 3
)

// separatorGlyphs are the drawing characters that make a line a separator
const separatorGlyphs = `=+*_#~|/\<>[]{}()^v`

// Options tunes the pipeline
type Options struct {
	RepeatWindow  time.Duration
	PreviewFrames int
}

// repeatTracker is the windowed detector of consecutive duplicate lines
type repeatTracker struct {
	lastHash  uint64
	lastTime  time.Time
	count     int
	noticeSeq uint64 // live RepeatNotification to update, 0 if none
	preview   string // truncated original text for the notification payload
}

// Pipeline turns incoming classified lines into Line Store records: plain
// lines, markers, stack-trace groups, or repeat notifications. It owns all
// rolling grouping state, so independent store instances never interfere.
type Pipeline struct {
	store      *store.Store
	heights    *filter.Engine
	classifier classify.Classifier

	repeatWindow  time.Duration
	previewFrames int

	open        *store.Group // in-progress stack group, nil if none
	nextGroupID int

	repeat repeatTracker

	// consecutive-trace dedup state. Two traces count as consecutive when
	// at most one record (the trace's own repeated message line) sits
	// between them; a marker always breaks the chain.
	lastClosed   *store.Group
	sinceClose   int  // records pushed outside a group since last close
	openAdjacent bool // open group is consecutive with lastClosed
}

// New creates a pipeline feeding the given store. The classifier may be
// nil, in which case every line is an unclassified plain line.
func New(st *store.Store, heights *filter.Engine, classifier classify.Classifier, opts Options) *Pipeline {
	if opts.RepeatWindow <= 0 {
		opts.RepeatWindow = DefaultRepeatWindow
	}
	if opts.PreviewFrames <= 0 {
		opts.PreviewFrames = DefaultPreviewFrames
	}
	return &Pipeline{
		store:         st,
		heights:       heights,
		classifier:    classifier,
		repeatWindow:  opts.RepeatWindow,
		previewFrames: opts.PreviewFrames,
	}
}

// Append ingests one captured line. Timestamps must be non-decreasing
// within a stream. Malformed or empty text is never rejected; it degrades
// to a plain line.
func (p *Pipeline) Append(text string, isMarker bool, category string, ts time.Time) {
	var res classify.Result
	if p.classifier != nil {
		res = p.classifier.Classify(text)
	}

	plain := strings.TrimRight(text, "\r\n")

	if isMarker {
		p.closeGroup()
		p.resetRepeat()
		p.lastClosed = nil
		p.push(&store.Record{
			Kind:     store.KindMarker,
			Payload:  text,
			Plain:    plain,
			Category: category,
			Time:     ts,
			GroupID:  store.NoGroup,
		})
		return
	}

	if res.IsStackFrame {
		if p.open == nil {
			p.openGroup(category, ts)
		}
		p.appendFrame(plain, text, category, ts, res.IsFramework)
		return
	}

	p.closeGroup()

	hash := repeatHash(res.Level, plain)
	if p.repeat.count > 0 && hash == p.repeat.lastHash && ts.Sub(p.repeat.lastTime) < p.repeatWindow {
		p.repeat.count++
		p.repeat.lastTime = ts
		p.noteRepeat(res.Level, category, ts)
		return
	}

	p.repeat = repeatTracker{
		lastHash: hash,
		lastTime: ts,
		count:    1,
		preview:  truncate(plain, repeatPreviewChars),
	}
	p.push(&store.Record{
		Kind:        store.KindLine,
		Payload:     text,
		Plain:       plain,
		Category:    category,
		Time:        ts,
		Level:       res.Level,
		GroupID:     store.NoGroup,
		IsSeparator: isSeparatorLine(plain),
		SourceTag:   res.SourceTag,
	})
}

// noteRepeat updates the live repeat notification, or appends one if it
// does not exist yet (or was evicted).
func (p *Pipeline) noteRepeat(level classify.Level, category string, ts time.Time) {
	payload := fmt.Sprintf("Repeated log #%d (%s)", p.repeat.count, p.repeat.preview)

	if p.repeat.noticeSeq != 0 {
		if notice := p.store.BySeq(p.repeat.noticeSeq); notice != nil {
			notice.Payload = payload
			notice.Plain = payload
			notice.Repeat = p.repeat.count
			notice.Time = ts
			return
		}
	}

	rec := &store.Record{
		Kind:     store.KindRepeat,
		Payload:  payload,
		Plain:    payload,
		Category: category,
		Time:     ts,
		Level:    level,
		GroupID:  store.NoGroup,
		Repeat:   p.repeat.count,
	}
	p.push(rec)
	p.repeat.noticeSeq = rec.Seq
}

func (p *Pipeline) resetRepeat() {
	p.repeat = repeatTracker{}
}

// openGroup starts a stack group: header first, frames follow
func (p *Pipeline) openGroup(category string, ts time.Time) {
	g := &store.Group{
		ID:           p.nextGroupID,
		Collapse:     store.Preview,
		PreviewCount: p.previewFrames,
		DupCount:     1,
	}
	p.nextGroupID++

	p.openAdjacent = p.lastClosed != nil && p.sinceClose <= 1

	p.store.AddGroup(g)
	header := &store.Record{
		Kind:     store.KindStackHeader,
		Payload:  "Stack trace",
		Plain:    "Stack trace",
		Category: category,
		Time:     ts,
		GroupID:  g.ID,
	}
	p.push(header)
	g.HeaderSeq = header.Seq
	p.open = g
}

func (p *Pipeline) appendFrame(plain, text, category string, ts time.Time, framework bool) {
	g := p.open
	g.FrameCount++
	if !framework {
		g.AppFrames++
	}
	g.Signature = mixHash(g.Signature, plain)

	p.push(&store.Record{
		Kind:        store.KindStackFrame,
		Payload:     text,
		Plain:       plain,
		Category:    category,
		Time:        ts,
		GroupID:     g.ID,
		IsFramework: framework,
	})
}

// closeGroup finalizes the in-progress group. A group identical to the
// immediately preceding one is folded away: its records are dropped and
// the earlier header's dupCount is bumped instead.
func (p *Pipeline) closeGroup() {
	if p.open == nil {
		return
	}
	g := p.open
	p.open = nil

	if p.openAdjacent && p.lastClosed != nil &&
		p.store.Group(p.lastClosed.ID) != nil &&
		g.Signature == p.lastClosed.Signature &&
		g.FrameCount == p.lastClosed.FrameCount {
		p.store.DropTail(g.FrameCount + 1)
		p.lastClosed.DupCount++
		p.sinceClose = 0
		return
	}

	p.lastClosed = g
	p.sinceClose = 0
}

// push appends one record, primes its flags and height, and runs eviction.
// Eviction that swallows the open group's header resets the open pointer.
func (p *Pipeline) push(r *store.Record) {
	p.store.Append(r)
	if p.open == nil {
		p.sinceClose++
	}
	p.heights.Prime(r)

	if evicted := p.store.EvictOverflow(); len(evicted) > 0 {
		if p.open != nil && p.store.Group(p.open.ID) == nil {
			p.open = nil
		}
	}
}

// repeatHash keys the duplicate-line window on level plus a text prefix
func repeatHash(level classify.Level, plain string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d::", level)
	h.Write([]byte(truncate(plain, repeatHashChars)))
	return h.Sum64()
}

// mixHash folds one frame into a group signature
func mixHash(sig uint64, frame string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%x|", sig)
	h.Write([]byte(frame))
	return h.Sum64()
}

// isSeparatorLine reports whether at least 60% of the trimmed characters
// are drawing glyphs (interior spaces count as matching).
func isSeparatorLine(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	total, match := 0, 0
	for _, r := range t {
		total++
		if r == ' ' || strings.ContainsRune(separatorGlyphs, r) || (r >= 0x2500 && r <= 0x257F) {
			match++
		}
	}
	return match*100 >= total*60
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
