package app

import (
	"context"

	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/history"
	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/media"
	"github.com/lvcoi/xgrab/internal/netx"
	"github.com/lvcoi/xgrab/internal/transfer"
	"github.com/lvcoi/xgrab/internal/ui"
)

// extractor is the browser-phase surface the pipeline consumes.
// *extract.Extractor satisfies it; tests script it.
type extractor interface {
	Extract(ctx context.Context, rawURL string) (extract.Result, error)
	ExtractAll(ctx context.Context, rawURL string) (extract.Listing, error)
}

var _ extractor = (*extract.Extractor)(nil)

// process runs one post end to end and reports its outcome. Every
// failure lands in Outcome.Err; nothing is printed from here.
func (r *runner) process(ctx context.Context, index int, rawURL string) Outcome {
	out := Outcome{Index: index, URL: rawURL}

	if r.opts.List {
		listing, err := r.ex.ExtractAll(ctx, rawURL)
		if err != nil {
			out.Err = err
			return out
		}
		out = out.fillIdentity(listing.Ref, listing.Candidates[0], listing.Meta)
		out.Candidates = listing.Candidates
		return out
	}

	var res extract.Result
	if r.opts.Pick {
		listing, err := r.ex.ExtractAll(ctx, rawURL)
		if err != nil {
			out.Err = err
			return out
		}
		choice, err := r.pickCandidate(listing)
		if err != nil {
			out.Err = err
			return out
		}
		res = extract.Result{
			Ref:       listing.Ref,
			Selection: listing.Candidates[choice],
			Meta:      listing.Meta,
			Cookies:   listing.Cookies,
		}
	} else {
		var err error
		res, err = r.ex.Extract(ctx, rawURL)
		if err != nil {
			out.Err = err
			return out
		}
	}
	out = out.fillIdentity(res.Ref, res.Selection, res.Meta)

	if r.opts.URLOnly {
		return out
	}

	dest := transfer.ResolvePath(r.opts.Output, r.naming(res))
	resolved, skip, err := r.session.Resolve(dest, r.opts.Duplicate)
	if err != nil {
		out.Err = err
		return out
	}
	if skip {
		out.Skipped = true
		out.Reason = "destination exists"
		out.File = dest
		return out
	}

	size, err := r.transfer(ctx, res, resolved)
	if err != nil {
		out.Err = err
		return out
	}
	out.File = resolved
	out.Size = size

	r.record(res, resolved, size)
	return out
}

func (r *runner) naming(res extract.Result) transfer.Naming {
	return transfer.Naming{
		Author: res.Ref.Author,
		ID:     res.Ref.ID,
		Text:   res.Meta.Description,
		Label:  media.KindLabel(res.Selection.Candidate.URL),
		Ext:    res.Selection.Candidate.Kind.Ext(),
	}
}

// pickCandidate runs the interactive picker over the listing. A
// dismissed picker counts as a user abort.
func (r *runner) pickCandidate(listing extract.Listing) (int, error) {
	items := make([]ui.PickerItem, len(listing.Candidates))
	for i, sel := range listing.Candidates {
		items[i] = ui.PickerItem{
			URL:    sel.Candidate.URL,
			Kind:   string(sel.Candidate.Kind),
			Width:  sel.Candidate.Width,
			Height: sel.Candidate.Height,
			Size:   sel.ProbedSize,
		}
	}
	idx, err := ui.RunPicker(listing.Stem(), items)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, transfer.ErrAborted
	}
	return idx, nil
}

// transfer moves the selected candidate to dest, converting playlists
// through ffmpeg and streaming everything else directly. A 401/403 on
// the direct path retries once with the profile's session cookies.
func (r *runner) transfer(ctx context.Context, res extract.Result, dest string) (int64, error) {
	id := r.render.Register(res.Stem(), res.Selection.ProbedSize)
	defer r.render.Finish(id)
	onProgress := func(written, expected int64) {
		r.render.Update(id, written, expected)
	}

	if res.Selection.Candidate.Kind.Playlist() {
		return transfer.Convert(ctx, res.Selection.Candidate.URL, dest, transfer.ConvertOptions{
			FfmpegPath:   r.opts.Ffmpeg,
			Timeout:      r.opts.ConvertTimeout,
			StallTimeout: r.opts.StallTimeout,
			OnProgress:   onProgress,
		})
	}

	o := transfer.Options{Referer: res.Ref.URL, OnProgress: onProgress}
	size, err := transfer.Download(ctx, res.Selection.Candidate.URL, dest, o)
	if err != nil && transfer.AuthChallenge(err) && len(res.Cookies) > 0 {
		logx.Info("media host rejected the anonymous request, retrying with session cookies")
		o.Client = netx.NewClient(0)
		netx.ImportCookies(o.Client, res.Selection.Candidate.URL, res.Cookies)
		size, err = transfer.Download(ctx, res.Selection.Candidate.URL, dest, o)
	}
	return size, err
}

// record is best effort; a catalog failure never fails the download.
func (r *runner) record(res extract.Result, dest string, size int64) {
	if r.opts.History == nil {
		return
	}
	_, err := r.opts.History.Add(history.Record{
		Author:   res.Ref.Author,
		PostID:   res.Ref.ID,
		PostURL:  res.Ref.URL,
		MediaURL: res.Selection.Candidate.URL,
		Kind:     media.KindLabel(res.Selection.Candidate.URL),
		Width:    res.Selection.Candidate.Width,
		Height:   res.Selection.Candidate.Height,
		FilePath: dest,
		FileSize: size,
	})
	if err != nil {
		logx.Warnf("recording download history: %v", err)
	}
}
