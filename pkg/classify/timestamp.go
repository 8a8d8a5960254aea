package classify

import (
	"regexp"
	"time"
)

// TimestampParser extracts capture times from historical log lines so a
// replayed file keeps its original timing for repeat detection.
type TimestampParser struct {
	patterns []timestampPattern
}

type timestampPattern struct {
	regex  *regexp.Regexp
	layout string
}

// NewTimestampParser creates a parser for the common formats
func NewTimestampParser() *TimestampParser {
	return &TimestampParser{
		patterns: []timestampPattern{
			// 2024-01-15T10:30:45.123Z / +00:00
			{
				regex:  regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{3})?(?:Z|[+-]\d{2}:\d{2})?)`),
				layout: time.RFC3339,
			},
			// 2024-01-15 10:30:45.123, with or without millis, bracketed or not
			{
				regex:  regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{3})?)`),
				layout: "2006-01-02 15:04:05.000",
			},
			// 10:30:45.123 at line start (assume today)
			{
				regex:  regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d{3})?)`),
				layout: "15:04:05.000",
			},
		},
	}
}

// Parse attempts to extract a timestamp from a log line, nil if none found
func (p *TimestampParser) Parse(line string) *time.Time {
	for _, pattern := range p.patterns {
		matches := pattern.regex.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}

		timeStr := matches[1]
		layouts := []string{pattern.layout}
		switch pattern.layout {
		case "2006-01-02 15:04:05.000":
			layouts = append(layouts, "2006-01-02 15:04:05")
		case "15:04:05.000":
			layouts = append(layouts, "15:04:05")
		}

		for _, layout := range layouts {
			t, err := time.Parse(layout, timeStr)
			if err != nil {
				continue
			}
			// Time-only formats get today's date
			if layout == "15:04:05" || layout == "15:04:05.000" {
				now := time.Now()
				t = time.Date(now.Year(), now.Month(), now.Day(),
					t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
			}
			return &t
		}
	}

	return nil
}
