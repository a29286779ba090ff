package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"fortio.org/progressbar"
)

// Renderer displays transfer progress. Register returns a task id handed to
// Update and Finish; implementations are safe for concurrent workers.
type Renderer interface {
	Register(label string, total int64) string
	Update(id string, current, total int64)
	Finish(id string)
	Log(msg string)
}

// NewRenderer picks a live progress bar when the writer is an interactive
// terminal and quiet is off, and a silent line renderer otherwise.
func NewRenderer(out io.Writer, quiet bool) Renderer {
	if !quiet && IsTerminal(out) {
		return newBarRenderer(out)
	}
	return &plainRenderer{out: out, quiet: quiet}
}

// plainRenderer suits pipes and quiet runs: per-byte progress is dropped and
// only log lines survive. The printer's result line covers completion.
type plainRenderer struct {
	out   io.Writer
	quiet bool
	seq   atomic.Uint64
}

func (r *plainRenderer) Register(label string, total int64) string {
	return fmt.Sprintf("task-%d", r.seq.Add(1))
}

func (r *plainRenderer) Update(id string, current, total int64) {}

func (r *plainRenderer) Finish(id string) {}

func (r *plainRenderer) Log(msg string) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.out, msg)
}

type barState struct {
	bar     *progressbar.Bar
	total   int64
	current int64
}

type barRenderer struct {
	out  io.Writer
	mu   sync.Mutex
	bars map[string]*barState
	seq  uint64
}

func newBarRenderer(out io.Writer) *barRenderer {
	return &barRenderer{out: out, bars: make(map[string]*barState)}
}

func (r *barRenderer) Register(label string, total int64) string {
	id := fmt.Sprintf("bar-%d", atomic.AddUint64(&r.seq, 1))

	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := progressbar.Config{
		Width:        30,
		UseColors:    true,
		Color:        progressbar.RedBar,
		Prefix:       label + " ",
		Suffix:       " " + totalSuffix(total),
		ScreenWriter: r.out,
	}
	r.bars[id] = &barState{bar: cfg.NewBar(), total: total}
	return id
}

func (r *barRenderer) Update(id string, current, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.bars[id]
	if b == nil {
		return
	}
	if total > 0 {
		b.total = total
	}
	if current > 0 {
		b.current = current
	}

	var pct float64
	if b.total > 0 {
		pct = float64(b.current) / float64(b.total) * 100
	}
	b.bar.UpdateSuffix(fmt.Sprintf(" %s/%s", HumanBytes(b.current), totalSuffix(b.total)))
	b.bar.Progress(pct)
}

func (r *barRenderer) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.bars[id]
	if b == nil {
		return
	}
	b.bar.UpdateSuffix(fmt.Sprintf(" %s done", HumanBytes(b.current)))
	b.bar.Progress(100)
	b.bar.End()
	delete(r.bars, id)
}

func (r *barRenderer) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, msg)
}

func totalSuffix(total int64) string {
	if total <= 0 {
		return "?"
	}
	return HumanBytes(total)
}
