package classify

import (
	"regexp"
	"strings"
)

// frameRe matches the stack-frame shape: leading indentation then an
// "at "-style prefix ("at foo (bar.js:1:2)", "at /srv/app/x.js:3").
var frameRe = regexp.MustCompile(`^\s+at\s+\S`)

// sourceTagRe captures a leading bracketed tag such as "[http] GET /".
var sourceTagRe = regexp.MustCompile(`^\s*\[([a-z][a-z0-9._-]*)\]`)

// PatternConfig holds the substring patterns the default classifier matches.
// Zero-value fields fall back to the built-in defaults.
type PatternConfig struct {
	TracePatterns     []string
	DebugPatterns     []string
	InfoPatterns      []string
	WarnPatterns      []string
	ErrorPatterns     []string
	FatalPatterns     []string
	FrameworkPatterns []string
}

// DefaultPatterns returns the built-in detection patterns
func DefaultPatterns() PatternConfig {
	return PatternConfig{
		TracePatterns: []string{"[TRC]", "[TRACE]", "TRACE"},
		DebugPatterns: []string{"[DBG]", "[DEBUG]", "DEBUG"},
		InfoPatterns:  []string{"[INF]", "[INFO]", "INFO"},
		WarnPatterns:  []string{"[WRN]", "[WARN]", "[WARNING]", "WARN", "WARNING"},
		ErrorPatterns: []string{"[ERR]", "[ERROR]", "ERROR"},
		FatalPatterns: []string{"[FTL]", "[FATAL]", "FATAL", "CRITICAL"},
		FrameworkPatterns: []string{
			"node_modules/",
			"node:internal",
			"(internal/",
			"webpack/runtime",
			"zone.js",
		},
	}
}

// PatternClassifier is the default Classifier: substring patterns for
// severity, a shape regexp for stack frames, and substring patterns for
// framework-origin frames.
type PatternClassifier struct {
	levels    map[Level][]string
	framework []string
}

// NewPatternClassifier creates a classifier from pattern config
func NewPatternClassifier(cfg PatternConfig) *PatternClassifier {
	def := DefaultPatterns()
	pick := func(v, fallback []string) []string {
		if len(v) > 0 {
			return v
		}
		return fallback
	}
	return &PatternClassifier{
		levels: map[Level][]string{
			LevelTrace: pick(cfg.TracePatterns, def.TracePatterns),
			LevelDebug: pick(cfg.DebugPatterns, def.DebugPatterns),
			LevelInfo:  pick(cfg.InfoPatterns, def.InfoPatterns),
			LevelWarn:  pick(cfg.WarnPatterns, def.WarnPatterns),
			LevelError: pick(cfg.ErrorPatterns, def.ErrorPatterns),
			LevelFatal: pick(cfg.FatalPatterns, def.FatalPatterns),
		},
		framework: pick(cfg.FrameworkPatterns, def.FrameworkPatterns),
	}
}

// Classify resolves the attributes of one line
func (c *PatternClassifier) Classify(text string) Result {
	if frameRe.MatchString(text) {
		return Result{
			Level:        LevelUnknown,
			IsStackFrame: true,
			IsFramework:  c.isFramework(text),
		}
	}

	res := Result{Level: c.DetectLevel(text)}
	if m := sourceTagRe.FindStringSubmatch(text); m != nil {
		res.SourceTag = m[1]
	}
	return res
}

// DetectLevel returns the severity for a line, most severe pattern first
func (c *PatternClassifier) DetectLevel(text string) Level {
	for _, level := range []Level{LevelFatal, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace} {
		for _, pattern := range c.levels[level] {
			if strings.Contains(text, pattern) {
				return level
			}
		}
	}
	return LevelUnknown
}

func (c *PatternClassifier) isFramework(text string) bool {
	for _, pattern := range c.framework {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}
