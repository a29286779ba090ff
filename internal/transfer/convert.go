package transfer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/lvcoi/xgrab/internal/logx"
)

const (
	defaultConvertTimeout = 120 * time.Second
	defaultStallTimeout   = 30 * time.Second
	defaultSizeInterval   = 2 * time.Second
)

// ConvertOptions configures a playlist remux.
type ConvertOptions struct {
	// FfmpegPath overrides the binary resolved from PATH.
	FfmpegPath string
	// Timeout is the wall-clock ceiling for the whole run.
	Timeout time.Duration
	// StallTimeout ends a run whose output file stops growing.
	StallTimeout time.Duration
	// OnProgress receives the output file size as it grows; expected is
	// always -1, a remux target length is unknowable up front.
	OnProgress ProgressFunc

	sizeInterval time.Duration
}

func (o ConvertOptions) withDefaults() ConvertOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultConvertTimeout
	}
	if o.StallTimeout <= 0 {
		o.StallTimeout = defaultStallTimeout
	}
	if o.sizeInterval <= 0 {
		o.sizeInterval = defaultSizeInterval
	}
	return o
}

// Convert remuxes an HLS playlist into an mp4 at dest. Streams copy without
// re-encoding; ADTS audio framing is rewritten for the mp4 container. The
// destination is deleted up front because a leftover from an interrupted run
// must not survive an ffmpeg that dies before opening its output. Two guards
// watch the subprocess: a wall-clock ceiling and a no-progress window over
// the output file size. Either one force-kills. The subprocess writes to the
// real filesystem, so size polling and cleanup bypass the fsx seam.
func Convert(ctx context.Context, playlistURL, dest string, o ConvertOptions) (int64, error) {
	o = o.withDefaults()

	var stderr bytes.Buffer
	cmd := ffmpeg.Input(playlistURL).
		Output(dest, ffmpeg.KwArgs{"c": "copy", "bsf:a": "aac_adtstoasc"}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		Silent(true).
		Compile()
	cmd.Stderr = &stderr
	if o.FfmpegPath != "" {
		path, err := resolveBinary(o.FfmpegPath)
		if err != nil {
			return 0, err
		}
		cmd.Path = path
	}
	logx.Debugf("ffmpeg argv: %s", strings.Join(cmd.Args, " "))

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("clearing %s: %w", dest, err)
	}

	sizeOf := func() int64 {
		fi, err := os.Stat(dest)
		if err != nil {
			return -1
		}
		return fi.Size()
	}
	if err := runGuarded(ctx, &execProc{cmd: cmd}, sizeOf, &stderr, o); err != nil {
		_ = os.Remove(dest)
		return 0, err
	}

	fi, err := os.Stat(dest)
	if err != nil {
		return 0, fmt.Errorf("conversion produced no output: %w", err)
	}
	return fi.Size(), nil
}

func resolveBinary(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("ffmpeg binary %q not found: %w", name, err)
	}
	return path, nil
}

// convertProc abstracts the subprocess so the guard loop is testable.
type convertProc interface {
	Start() error
	Wait() error
	Kill() error
}

type execProc struct {
	cmd *exec.Cmd
}

func (p *execProc) Start() error { return p.cmd.Start() }
func (p *execProc) Wait() error  { return p.cmd.Wait() }

func (p *execProc) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func runGuarded(ctx context.Context, proc convertProc, sizeOf func() int64, stderr *bytes.Buffer, o ConvertOptions) error {
	if err := proc.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	wall := time.NewTimer(o.Timeout)
	defer wall.Stop()
	poll := time.NewTicker(o.sizeInterval)
	defer poll.Stop()

	lastSize := int64(-1)
	lastGrowth := time.Now()
	for {
		select {
		case err := <-done:
			if err != nil {
				return &ConvertError{Reason: convertExit, Stderr: stderr.String(), Err: err}
			}
			return nil
		case <-ctx.Done():
			killAndDrain(proc, done)
			return ctx.Err()
		case <-wall.C:
			killAndDrain(proc, done)
			logx.Warnf("ffmpeg hit the %s wall-clock ceiling", o.Timeout)
			return &ConvertError{Reason: convertTimeout, Stderr: stderr.String(), Waited: o.Timeout}
		case <-poll.C:
			size := sizeOf()
			if size > lastSize {
				lastSize = size
				lastGrowth = time.Now()
				if o.OnProgress != nil {
					o.OnProgress(size, -1)
				}
				continue
			}
			if time.Since(lastGrowth) >= o.StallTimeout {
				killAndDrain(proc, done)
				logx.Warnf("ffmpeg output stalled for %s", o.StallTimeout)
				return &ConvertError{Reason: convertStalled, Stderr: stderr.String(), Waited: o.StallTimeout}
			}
		}
	}
}

// killAndDrain waits for Wait to return after the kill so the stderr buffer
// is no longer being written when the caller reads it.
func killAndDrain(proc convertProc, done <-chan error) {
	_ = proc.Kill()
	<-done
}
