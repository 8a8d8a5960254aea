package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/logpane/internal/config"
	"github.com/TimelordUK/logpane/internal/source"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

type tickMsg time.Time

type loadedMsg struct {
	res *source.Result
	err error
}

// ModelOptions configures the application model
type ModelOptions struct {
	Filepath   string
	SliceRange string // e.g. "1000-5000", "100-$"
	Follow     bool
}

// Model is the main application model
type Model struct {
	pane        *Pane
	cfg         *config.Config
	searchInput textinput.Model

	mode   Mode
	width  int
	height int

	statusStyle lipgloss.Style
	err         error
}

// NewModelWithOptions creates the application model
func NewModelWithOptions(opts ModelOptions) (*Model, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pane := NewPane(cfg)

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256

	m := &Model{
		pane:        pane,
		cfg:         cfg,
		searchInput: ti,
		statusStyle: lipgloss.NewStyle().
			Background(lipgloss.Color(cfg.Theme.StatusBar)).
			Foreground(lipgloss.Color(cfg.Theme.StatusBarText)),
	}

	if opts.Filepath != "" {
		loadOpts, err := parseSliceRange(opts.SliceRange)
		if err != nil {
			return nil, err
		}
		if err := pane.OpenFile(opts.Filepath); err != nil {
			return nil, err
		}
		gen := pane.BeginLoad()
		res, err := pane.ReadLoad(opts.Filepath, gen, loadOpts)
		if err != nil {
			return nil, err
		}
		pane.ApplyLoad(res)
	}
	if opts.Follow {
		pane.ToggleFollow()
	}

	return m, nil
}

// Close releases resources
func (m *Model) Close() {
	m.pane.Close()
}

// Init starts the follow-mode ticker
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.Engine.TailPoll(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Load switches the pane to a different file asynchronously. A stale
// completion (the user switched again before it finished) is discarded
// by ApplyLoad.
func (m *Model) Load(path string, opts source.LoadOptions) tea.Cmd {
	gen := m.pane.BeginLoad()
	return func() tea.Msg {
		res, err := m.pane.ReadLoad(path, gen, opts)
		return loadedMsg{res: res, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pane.SetSize(msg.Width, msg.Height-2) // status + input rows
		return m, nil

	case tickMsg:
		m.pane.PollTail()
		return m, m.tick()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pane.ApplyLoad(msg.res)
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeSearch {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	keys := m.cfg.Keybindings

	switch {
	case matches(key, keys.Quit):
		return m, tea.Quit
	case matches(key, keys.ScrollDown):
		m.pane.CursorDown()
	case matches(key, keys.ScrollUp):
		m.pane.CursorUp()
	case matches(key, keys.PageDown):
		m.pane.PageDown()
	case matches(key, keys.PageUp):
		m.pane.PageUp()
	case matches(key, keys.Top):
		m.pane.GotoTop()
	case matches(key, keys.Bottom):
		m.pane.GotoBottom()
	case matches(key, keys.Follow):
		m.pane.ToggleFollow()
	case matches(key, keys.Collapse):
		m.pane.ToggleCollapseAtCursor()
	case matches(key, keys.LevelFilter):
		m.pane.CycleLevelFloor()
	case matches(key, keys.AppOnly):
		m.pane.ToggleAppOnly()
	case matches(key, keys.Search):
		m.mode = ModeSearch
		m.searchInput.SetValue(m.pane.searchTerm)
		m.searchInput.Focus()
		return m, textinput.Blink
	case key == "m":
		m.pane.AddMarker(time.Now().Format("15:04:05"))
	}

	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.pane.SetSearch(m.searchInput.Value())
		m.mode = ModeNormal
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.mode = ModeNormal
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// View renders the application
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.pane.View())
	b.WriteString("\n")

	status := m.pane.Filename()
	if status == "" {
		status = "(live)"
	}
	status += "  " + m.pane.StatusLine()
	if m.err != nil {
		status += "  error: " + m.err.Error()
	}
	b.WriteString(m.statusStyle.Width(m.width).Render(status))
	b.WriteString("\n")

	if m.mode == ModeSearch {
		b.WriteString("/" + m.searchInput.View())
	}

	return b.String()
}

func matches(key string, bindings []string) bool {
	for _, b := range bindings {
		if key == b {
			return true
		}
	}
	return false
}

// parseSliceRange parses "1000-5000" or "100-$" into load options
func parseSliceRange(s string) (source.LoadOptions, error) {
	if s == "" {
		return source.LoadOptions{}, nil
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return source.LoadOptions{}, fmt.Errorf("invalid slice range: %s", s)
	}

	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return source.LoadOptions{}, fmt.Errorf("invalid slice start: %s", parts[0])
	}

	end := 0 // end of file
	if parts[1] != "$" {
		end, err = strconv.Atoi(parts[1])
		if err != nil {
			return source.LoadOptions{}, fmt.Errorf("invalid slice end: %s", parts[1])
		}
	}

	return source.LoadOptions{StartLine: start, EndLine: end}, nil
}
