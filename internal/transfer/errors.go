package transfer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrAborted is returned when the user cancels a duplicate-file prompt.
var ErrAborted = errors.New("aborted by user")

// StatusError reports a non-2xx response from the media host.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) fetching %s", e.Code, http.StatusText(e.Code), e.URL)
}

// AuthChallenge reports whether err carries an HTTP 401 or 403, the statuses
// worth retrying with profile cookies attached.
func AuthChallenge(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

// Failure modes of a playlist conversion.
const (
	convertExit    = "exit"
	convertTimeout = "timeout"
	convertStalled = "stalled"
)

// ConvertError reports a failed or force-terminated ffmpeg run. Stderr holds
// whatever diagnostics the subprocess produced before it ended.
type ConvertError struct {
	Reason string
	Stderr string
	Waited time.Duration
	Err    error
}

func (e *ConvertError) Error() string {
	switch e.Reason {
	case convertTimeout:
		return fmt.Sprintf("ffmpeg exceeded the %s conversion ceiling and was terminated", e.Waited)
	case convertStalled:
		return fmt.Sprintf("ffmpeg produced no output growth for %s and was terminated", e.Waited)
	}
	if diag := lastStderrLine(e.Stderr); diag != "" {
		return fmt.Sprintf("ffmpeg failed: %s", diag)
	}
	if e.Err != nil {
		return fmt.Sprintf("ffmpeg failed without diagnostics: %v", e.Err)
	}
	return "ffmpeg failed without diagnostics"
}

func (e *ConvertError) Unwrap() error { return e.Err }

// Stalled reports whether the no-progress guard, rather than the wall-clock
// ceiling or the subprocess itself, ended the conversion.
func (e *ConvertError) Stalled() bool { return e.Reason == convertStalled }

func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
