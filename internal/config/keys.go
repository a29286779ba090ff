package config

// Output naming.
const (
	OutputTemplate = "output.template"
)

// Browser session behavior.
const (
	BrowserHeadless  = "browser.headless"
	BrowserTimeout   = "browser.timeout"
	BrowserSettle    = "browser.settle"
	BrowserUserAgent = "browser.user_agent"
)

// Candidate discovery and probing.
const (
	MediaHost       = "media.host"
	ProbeTimeout    = "probe.timeout"
	ProbeFloor      = "probe.floor"
	CollectInterval = "collect.interval"
	CollectWindow   = "collect.window"
)

// Transfer behavior.
const (
	TransferFFmpeg         = "transfer.ffmpeg"
	TransferConvertTimeout = "transfer.convert_timeout"
	TransferStallTimeout   = "transfer.stall_timeout"
)

// Profile and history persistence.
const (
	ProfileDir     = "profile.dir"
	HistoryPath    = "history.path"
	HistoryEnabled = "history.enabled"
)

// Diagnostics.
const (
	LogLevel = "log.level"
)
