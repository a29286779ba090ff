package transfer

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// ProgressFunc receives byte totals during a transfer. expected is -1 when
// the response did not declare a length.
type ProgressFunc func(written, expected int64)

// Callbacks fire at most twice per second while bytes flow.
const progressInterval = 500 * time.Millisecond

type progressWriter struct {
	expected   int64
	total      atomic.Int64
	lastUpdate atomic.Int64 // Unix nanoseconds
	finished   atomic.Bool
	fn         ProgressFunc
}

func newProgressWriter(expected int64, fn ProgressFunc) *progressWriter {
	pw := &progressWriter{expected: expected, fn: fn}
	pw.lastUpdate.Store(time.Now().UnixNano())
	return pw
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n := len(b)
	p.total.Add(int64(n))

	if p.fn == nil {
		return n, nil
	}
	now := time.Now()
	last := p.lastUpdate.Load()
	if now.UnixNano()-last >= progressInterval.Nanoseconds() {
		if p.lastUpdate.CompareAndSwap(last, now.UnixNano()) {
			p.report()
		}
	}
	return n, nil
}

func (p *progressWriter) report() {
	if p.finished.Load() {
		return
	}
	p.fn(p.total.Load(), p.expected)
}

// Finish forces one final callback with the closing total. Safe to call more
// than once; only the first call reports.
func (p *progressWriter) Finish() {
	if p.finished.Swap(true) {
		return
	}
	if p.fn != nil {
		p.fn(p.total.Load(), p.expected)
	}
}

func (p *progressWriter) Total() int64 { return p.total.Load() }

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
		return r.r.Read(p)
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	reader := &contextReader{ctx: ctx, r: src}
	return io.Copy(dst, reader)
}
