package config

import (
	"path/filepath"
)

// Field is one configuration entry: its key, factory default, and a short
// description surfaced by documentation.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Default holds every registered configuration field, keyed by name.
var Default = make(map[string]Field)

// EnvExposed lists keys bound to XGRAB_* environment variables.
var EnvExposed []string

func register(f Field) {
	Default[f.Key] = f
	EnvExposed = append(EnvExposed, f.Key)
}

func init() {
	register(Field{OutputTemplate, "{author}_{id}.{ext}",
		"output name template; supports {author}, {id}, {date}, {text}, {kind}, {ext}"})

	register(Field{BrowserHeadless, true,
		"run the browser without a visible window"})
	register(Field{BrowserTimeout, 30,
		"page navigation timeout in seconds"})
	register(Field{BrowserSettle, 2000,
		"post-navigation hydration delay in milliseconds"})
	register(Field{BrowserUserAgent, "",
		"override the browser user agent (empty = Chrome default)"})

	register(Field{MediaHost, "video.twimg.com",
		"media CDN host candidates must belong to"})
	register(Field{ProbeTimeout, 5,
		"per-candidate HEAD probe timeout in seconds"})
	register(Field{ProbeFloor, 100 * 1024,
		"minimum plausible video size in bytes; smaller probes are treated as decoys"})
	register(Field{CollectInterval, 250,
		"candidate poll interval in milliseconds"})
	register(Field{CollectWindow, 8000,
		"candidate collection ceiling in milliseconds"})

	register(Field{TransferFFmpeg, "ffmpeg",
		"ffmpeg binary used for playlist conversion"})
	register(Field{TransferConvertTimeout, 120,
		"absolute playlist conversion timeout in seconds"})
	register(Field{TransferStallTimeout, 30,
		"conversion no-progress timeout in seconds"})

	register(Field{ProfileDir, filepath.Join(Dir(), "profile"),
		"persistent authenticated browser profile directory"})
	register(Field{HistoryPath, filepath.Join(Dir(), "history.db"),
		"download history database path"})
	register(Field{HistoryEnabled, true,
		"record completed downloads in the history database"})

	register(Field{LogLevel, "warn",
		"diagnostic log level: debug, info, warn, error"})
}
