package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/logpane/internal/config"
	"github.com/TimelordUK/logpane/internal/store"
	"github.com/TimelordUK/logpane/internal/view"
	"github.com/TimelordUK/logpane/pkg/classify"
)

// Renderer turns visible row descriptors into styled terminal strings
type Renderer interface {
	Render(row view.Row, group *store.Group) string
}

// RowRenderer styles rows by kind and level from the configured theme
type RowRenderer struct {
	levelStyles map[classify.Level]lipgloss.Style
	marker      lipgloss.Style
	header      lipgloss.Style
	frame       lipgloss.Style
	framework   lipgloss.Style
	repeat      lipgloss.Style
	separator   lipgloss.Style
	sourceTag   lipgloss.Style

	syntax *SyntaxHighlighter
}

// NewRowRenderer creates a renderer from config
func NewRowRenderer(cfg *config.Config) *RowRenderer {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	r := &RowRenderer{
		levelStyles: map[classify.Level]lipgloss.Style{
			classify.LevelUnknown: lipgloss.NewStyle(),
			classify.LevelTrace:   fg(cfg.Theme.Levels.Trace),
			classify.LevelDebug:   fg(cfg.Theme.Levels.Debug),
			classify.LevelInfo:    fg(cfg.Theme.Levels.Info),
			classify.LevelWarn:    fg(cfg.Theme.Levels.Warn),
			classify.LevelError:   fg(cfg.Theme.Levels.Error),
			classify.LevelFatal:   fg(cfg.Theme.Levels.Fatal),
		},
		marker:    fg(cfg.Theme.Marker).Bold(true),
		header:    fg(cfg.Theme.StackHeader).Bold(true),
		frame:     fg(cfg.Theme.StackFrame),
		framework: fg(cfg.Theme.Framework),
		repeat:    fg(cfg.Theme.Repeat).Italic(true),
		separator: fg(cfg.Theme.Separator),
		sourceTag: fg(cfg.Theme.SourceTag),
	}
	if cfg.Display.HighlightJSON {
		r.syntax = NewSyntaxHighlighter()
	}
	return r
}

// Render styles one row. The group is the row's stack group when the row
// is a header (for badges), nil otherwise.
func (r *RowRenderer) Render(row view.Row, group *store.Group) string {
	switch row.Kind {
	case store.KindMarker:
		return r.marker.Render("── " + row.Payload + " ──")
	case store.KindStackHeader:
		return r.header.Render(row.Payload + HeaderBadge(group))
	case store.KindStackFrame:
		if row.IsFramework {
			return r.framework.Render(row.Payload)
		}
		return r.frame.Render(row.Payload)
	case store.KindRepeat:
		return r.repeat.Render(row.Payload)
	default:
		if row.IsSeparator {
			return r.separator.Render(row.Payload)
		}
		if r.syntax != nil {
			if highlighted, ok := r.syntax.Highlight(row.Payload); ok {
				return highlighted
			}
		}
		return r.levelStyles[row.Level].Render(row.Payload)
	}
}

// HeaderBadge builds the suffix for a stack header: the collapse-state
// badge plus the duplicate-trace count.
func HeaderBadge(g *store.Group) string {
	if g == nil {
		return ""
	}

	var parts []string
	switch g.Collapse {
	case store.Collapsed:
		if g.FrameCount > 1 {
			parts = append(parts, fmt.Sprintf("%d more frames", g.FrameCount-1))
		}
	case store.Preview:
		if hidden := g.PreviewHidden(); hidden > 0 {
			parts = append(parts, fmt.Sprintf("+%d more", hidden))
		}
	}
	if g.DupCount > 1 {
		parts = append(parts, fmt.Sprintf("×%d", g.DupCount))
	}

	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
