package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Engine      EngineConfig     `toml:"engine"`
	Theme       ThemeConfig      `toml:"theme"`
	LogLevels   LogLevelConfig   `toml:"log_levels"`
	Framework   FrameworkConfig  `toml:"framework"`
	Keybindings KeybindingConfig `toml:"keybindings"`
	Display     DisplayConfig    `toml:"display"`
}

// EngineConfig tunes the viewport engine
type EngineConfig struct {
	MaxLines       int `toml:"max_lines"`        // store size before head eviction
	RowHeight      int `toml:"row_height"`       // height units per visible row
	OverscanRows   int `toml:"overscan_rows"`    // extra rows rendered past the viewport
	RepeatWindowMs int `toml:"repeat_window_ms"` // duplicate-line fold window
	PreviewFrames  int `toml:"preview_frames"`   // app frames shown in a previewed trace
	TailPollMs     int `toml:"tail_poll_ms"`     // follow-mode poll/flush interval
}

// RepeatWindow returns the repeat window as a duration
func (e EngineConfig) RepeatWindow() time.Duration {
	return time.Duration(e.RepeatWindowMs) * time.Millisecond
}

// TailPoll returns the follow-mode poll interval as a duration
func (e EngineConfig) TailPoll() time.Duration {
	return time.Duration(e.TailPollMs) * time.Millisecond
}

// ThemeConfig defines color schemes
type ThemeConfig struct {
	Name          string         `toml:"name"`
	StatusBar     string         `toml:"status_bar"`
	StatusBarText string         `toml:"status_bar_text"`
	Marker        string         `toml:"marker"`
	StackHeader   string         `toml:"stack_header"`
	StackFrame    string         `toml:"stack_frame"`
	Framework     string         `toml:"framework"`
	Repeat        string         `toml:"repeat"`
	Separator     string         `toml:"separator"`
	SourceTag     string         `toml:"source_tag"`
	Levels        LogLevelColors `toml:"levels"`
}

// LogLevelColors defines colors for each log level
type LogLevelColors struct {
	Trace string `toml:"trace"`
	Debug string `toml:"debug"`
	Info  string `toml:"info"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
	Fatal string `toml:"fatal"`
}

// LogLevelConfig defines log level detection patterns
type LogLevelConfig struct {
	TracePatterns []string `toml:"trace_patterns"`
	DebugPatterns []string `toml:"debug_patterns"`
	InfoPatterns  []string `toml:"info_patterns"`
	WarnPatterns  []string `toml:"warn_patterns"`
	ErrorPatterns []string `toml:"error_patterns"`
	FatalPatterns []string `toml:"fatal_patterns"`
}

// FrameworkConfig defines framework-origin frame patterns and the
// transient-error patterns the suppression filter matches.
type FrameworkConfig struct {
	FramePatterns     []string `toml:"frame_patterns"`
	TransientPatterns []string `toml:"transient_patterns"`
}

// KeybindingConfig allows customizing keybindings
type KeybindingConfig struct {
	Quit        []string `toml:"quit"`
	ScrollUp    []string `toml:"scroll_up"`
	ScrollDown  []string `toml:"scroll_down"`
	PageUp      []string `toml:"page_up"`
	PageDown    []string `toml:"page_down"`
	Top         []string `toml:"top"`
	Bottom      []string `toml:"bottom"`
	Search      []string `toml:"search"`
	Follow      []string `toml:"follow"`
	Collapse    []string `toml:"collapse"`
	LevelFilter []string `toml:"level_filter"`
	AppOnly     []string `toml:"app_only"`
}

// DisplayConfig holds display options
type DisplayConfig struct {
	ShowTimestamps bool `toml:"show_timestamps"`
	ShowCategory   bool `toml:"show_category"`
	HighlightJSON  bool `toml:"highlight_json"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxLines:       50000,
			RowHeight:      1,
			OverscanRows:   20,
			RepeatWindowMs: 3000,
			PreviewFrames:  3,
			TailPollMs:     250,
		},
		Theme: ThemeConfig{
			Name:          "subtle",
			StatusBar:     "236",
			StatusBarText: "252",
			Marker:        "39", // blue
			StackHeader:   "203",
			StackFrame:    "246",
			Framework:     "240",
			Repeat:        "178",
			Separator:     "238",
			SourceTag:     "109",
			Levels: LogLevelColors{
				Trace: "240",
				Debug: "244",
				Info:  "250",
				Warn:  "214",
				Error: "167",
				Fatal: "196",
			},
		},
		LogLevels: LogLevelConfig{
			TracePatterns: []string{"[TRC]", "[TRACE]", "TRACE"},
			DebugPatterns: []string{"[DBG]", "[DEBUG]", "DEBUG"},
			InfoPatterns:  []string{"[INF]", "[INFO]", "INFO"},
			WarnPatterns:  []string{"[WRN]", "[WARN]", "[WARNING]", "WARN", "WARNING"},
			ErrorPatterns: []string{"[ERR]", "[ERROR]", "ERROR"},
			FatalPatterns: []string{"[FTL]", "[FATAL]", "FATAL", "CRITICAL"},
		},
		Framework: FrameworkConfig{
			FramePatterns: []string{
				"node_modules/",
				"node:internal",
				"(internal/",
				"webpack/runtime",
				"zone.js",
			},
			TransientPatterns: []string{
				"ECONNRESET",
				"ETIMEDOUT",
				"EPIPE",
				"socket hang up",
			},
		},
		Keybindings: KeybindingConfig{
			Quit:        []string{"q", "ctrl+c"},
			ScrollUp:    []string{"k", "up"},
			ScrollDown:  []string{"j", "down"},
			PageUp:      []string{"b", "pgup", "ctrl+u"},
			PageDown:    []string{"f", "pgdown", "ctrl+d", " "},
			Top:         []string{"g", "home"},
			Bottom:      []string{"G", "end"},
			Search:      []string{"/"},
			Follow:      []string{"F"},
			Collapse:    []string{"enter", "c"},
			LevelFilter: []string{"L"},
			AppOnly:     []string{"a"},
		},
		Display: DisplayConfig{
			ShowTimestamps: false,
			ShowCategory:   false,
			HighlightJSON:  true,
		},
	}
}

// Load loads config from file, falling back to defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := getConfigPath()
	if configPath == "" {
		return nil
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "logpane", "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "logpane", "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}
