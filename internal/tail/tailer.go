package tail

import (
	"context"
	"sync"
	"time"

	"github.com/TimelordUK/logpane/internal/source"
)

// FlushFunc receives one batch of newly appended lines. The engine expects
// many appends followed by one recalculate and one render, so the tailer
// hands over whole poll intervals worth of lines at a time.
type FlushFunc func(lines []string)

// Tailer follows a growing log file, batching new lines per poll tick.
type Tailer struct {
	file     *source.File
	position int // next line to hand over
	interval time.Duration
	flush    FlushFunc

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a tailer over an open file. The position starts at EOF:
// only lines appended after creation are delivered.
func New(f *source.File, interval time.Duration, flush FlushFunc) *Tailer {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tailer{
		file:     f,
		position: f.LineCount(),
		interval: interval,
		flush:    flush,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the polling loop; call in a goroutine
func (t *Tailer) Run() {
	t.wg.Add(1)
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.poll()
		}
	}
}

// Poll runs one poll cycle synchronously, for callers driving their own
// tick (the TUI polls on its own timer rather than running the loop).
func (t *Tailer) Poll() {
	t.poll()
}

func (t *Tailer) poll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	newLines, err := t.file.Refresh()
	if err != nil || newLines == 0 {
		return
	}

	count := t.file.LineCount()
	batch := make([]string, 0, count-t.position)
	for i := t.position; i < count; i++ {
		text, err := t.file.Line(i)
		if err != nil {
			break
		}
		batch = append(batch, text)
	}
	t.position = count

	if len(batch) > 0 && t.flush != nil {
		t.flush(batch)
	}
}

// Stop halts the loop and waits for it to exit
func (t *Tailer) Stop() {
	t.cancel()
	t.wg.Wait()
}
