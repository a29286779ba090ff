package app

import (
	"io"
	"os"
	"time"

	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/history"
	"github.com/lvcoi/xgrab/internal/transfer"
)

// defaultWorkers bounds parallel posts when the caller does not.
const defaultWorkers = 2

// Options describes one batch run. Main fills it from flags and
// configuration; zero fields fall back to sane defaults.
type Options struct {
	// Extract configures the browser phase for every post.
	Extract extract.Config

	// Output is the destination template, directory, or literal path.
	Output string

	// Mode switches. URLOnly prints the selected media URL, List
	// prints the ranked candidate table, Pick asks the user to choose;
	// all three are mutually exclusive with a plain download.
	URLOnly bool
	List    bool
	Pick    bool

	// Info adds post metadata to the output.
	Info bool

	// JSON emits one machine-readable object per post on Stdout and
	// silences the human surface.
	JSON bool

	// Quiet suppresses progress and success lines. Failures still
	// print.
	Quiet bool

	// Workers bounds parallel posts. An attached profile or an
	// interactive mode forces sequential processing.
	Workers int

	// Duplicate is the collision policy for existing destinations.
	Duplicate transfer.DuplicatePolicy

	// Prompter resolves duplicate prompts. Nil degrades the prompt
	// policy to skip.
	Prompter transfer.Prompter

	// Ffmpeg locates the converter binary; empty means $PATH lookup.
	Ffmpeg         string
	ConvertTimeout time.Duration
	StallTimeout   time.Duration

	// History records completed downloads when non-nil.
	History *history.DB

	// Stdout carries machine output (URLs, listings, JSON); Stderr
	// carries the human surface.
	Stdout io.Writer
	Stderr io.Writer
}

func (o Options) normalize() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Workers < 1 {
		o.Workers = defaultWorkers
	}
	// One browser profile cannot back concurrent sessions, and an
	// interactive picker cannot share the terminal.
	if o.Extract.ProfileDir != "" || o.Pick {
		o.Workers = 1
	}
	if o.Duplicate == "" {
		o.Duplicate = transfer.DuplicatePrompt
	}
	if o.JSON {
		o.Quiet = true
	}
	return o
}
