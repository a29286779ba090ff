// Package app owns a batch run: a bounded worker pool over post URLs,
// per-post result reporting, and the aggregate exit code.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/transfer"
	"github.com/lvcoi/xgrab/internal/ui"
)

type runner struct {
	opts    Options
	ex      extractor
	printer *ui.Printer
	render  ui.Renderer
	session *transfer.Session
}

// Run processes every URL and returns the exit code for the whole
// batch. Cancelling ctx stops submission and reports an interrupt.
func Run(ctx context.Context, urls []string, opts Options) int {
	opts = opts.normalize()
	r := &runner{
		opts:    opts,
		ex:      extract.New(opts.Extract),
		printer: ui.NewPrinter(opts.Stderr, opts.Quiet),
		render:  ui.NewRenderer(opts.Stderr, opts.Quiet),
		session: transfer.NewSession(opts.Prompter),
	}
	return r.run(ctx, urls)
}

func (r *runner) run(ctx context.Context, urls []string) int {
	workers := r.opts.Workers
	if workers > len(urls) {
		workers = len(urls)
	}

	type job struct {
		index int
		url   string
	}
	jobs := make(chan job)
	outcomes := make(chan Outcome, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes <- r.process(ctx, j.index, j.url)
			}
		}()
	}

	submitted := 0
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case jobs <- job{index: i, url: u}:
			submitted++
			continue
		}
		break
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	code := ExitOK
	var done, failed, skipped int
	var bytes int64
	for out := range outcomes {
		r.report(out, len(urls))
		switch {
		case out.Err != nil:
			failed++
			if c := ExitCode(out.Err); c > code {
				code = c
			}
		case out.Skipped:
			skipped++
		default:
			done++
			bytes += out.Size
		}
	}

	if ctx.Err() != nil && code == ExitOK {
		code = ExitInterrupted
	}
	r.printer.Summary(submitted, done, failed, skipped, bytes)
	return code
}

// report emits one post's outcome: a JSON object in machine mode,
// printer lines otherwise. Runs only on the collector goroutine, so
// output never interleaves.
func (r *runner) report(out Outcome, total int) {
	if r.opts.JSON {
		r.writeJSON(out)
		return
	}

	prefix := r.printer.Prefix(out.Index+1, total, out.Label())
	switch {
	case out.Err != nil:
		r.printer.Failure(prefix, out.Err)
	case r.opts.List:
		r.reportListing(out, total)
	case r.opts.URLOnly:
		fmt.Fprintln(r.opts.Stdout, out.MediaURL)
	case out.Skipped:
		r.printer.Skipped(prefix, out.Reason)
	default:
		r.printer.Success(prefix, out.File, out.Size)
	}
	if out.Err == nil && r.opts.Info {
		r.reportMeta(out)
	}
}

// reportListing prints the ranked candidate table. A single long
// listing on a terminal goes through the pager.
func (r *runner) reportListing(out Outcome, total int) {
	items := make([]ui.PickerItem, len(out.Candidates))
	for i, sel := range out.Candidates {
		items[i] = ui.PickerItem{
			URL:    sel.Candidate.URL,
			Kind:   string(sel.Candidate.Kind),
			Width:  sel.Candidate.Width,
			Height: sel.Candidate.Height,
			Size:   sel.ProbedSize,
		}
	}
	table := ui.FormatCandidates(items)

	if total == 1 && ui.IsTerminal(r.opts.Stdout) && strings.Count(table, "\n") > pagerThreshold {
		if err := ui.RunPager(out.Label(), table); err == nil {
			return
		}
	}
	if total > 1 {
		fmt.Fprintf(r.opts.Stdout, "%s  %s\n", out.Label(), out.URL)
	}
	fmt.Fprint(r.opts.Stdout, table)
}

// pagerThreshold is the listing height above which a terminal gets a
// pager instead of a raw dump.
const pagerThreshold = 20

func (r *runner) reportMeta(out Outcome) {
	if out.Meta.Title != "" {
		r.printer.Info("  title: %s", out.Meta.Title)
	}
	if out.Meta.Description != "" {
		r.printer.Info("  text:  %s", out.Meta.Description)
	}
	if out.Width > 0 || out.Height > 0 {
		r.printer.Info("  media: %s %dx%d", out.Kind, out.Width, out.Height)
	}
}
