package classify

// Level is a log severity level. The engine treats it as opaque; only the
// classifier and the level filter assign meaning to the ordering.
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the short display form of a level
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRC"
	case LevelDebug:
		return "DBG"
	case LevelInfo:
		return "INF"
	case LevelWarn:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelFatal:
		return "FTL"
	default:
		return "---"
	}
}

// Result is everything the engine wants to know about one line of text.
type Result struct {
	Level        Level
	IsStackFrame bool
	IsFramework  bool   // meaningful only when IsStackFrame
	SourceTag    string // e.g. the "http" in "[http] GET /", "" if none
}

// Classifier resolves per-line attributes before a line enters the pipeline.
// Implementations must be pure with respect to the engine: no observable
// side effects, same text in, same result out.
type Classifier interface {
	Classify(text string) Result
}
