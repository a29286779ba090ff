// Package transfer moves selected media onto disk: streamed direct downloads
// for progressive files and a guarded ffmpeg remux for HLS playlists.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/lvcoi/xgrab/internal/fsx"
	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/netx"
)

// Options configures a direct download.
type Options struct {
	// Client performs the fetch. Nil means a fresh shared-transport client.
	Client *http.Client
	// Referer, when set, is sent along with its origin. The CDN serves some
	// renditions only to requests that look like they came from the site.
	Referer string
	// OnProgress receives throttled byte totals plus one final update.
	OnProgress ProgressFunc
}

// Download streams srcURL into dest. Bytes land in dest.part and move into
// place only after the copy completes, so an interrupted run never leaves a
// plausible-looking output file behind.
func Download(ctx context.Context, srcURL, dest string, o Options) (int64, error) {
	client := o.Client
	if client == nil {
		client = netx.NewClient(0)
	}

	fs := fsx.API()
	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	applyOriginHeaders(req, o.Referer)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", srcURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &StatusError{Code: resp.StatusCode, URL: srcURL}
	}

	part := dest + ".part"
	file, err := fs.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", part, err)
	}

	progress := newProgressWriter(resp.ContentLength, o.OnProgress)
	written, err := copyWithContext(ctx, io.MultiWriter(file, progress), resp.Body)
	closeErr := file.Close()
	if err != nil {
		_ = fs.Remove(part)
		return written, fmt.Errorf("downloading %s: %w", srcURL, err)
	}
	if closeErr != nil {
		_ = fs.Remove(part)
		return written, fmt.Errorf("closing %s: %w", part, closeErr)
	}
	progress.Finish()

	// Remove first; not every backend renames over an existing file.
	_ = fs.Remove(dest)
	if err := fs.Rename(part, dest); err != nil {
		return written, fmt.Errorf("finalizing %s: %w", dest, err)
	}
	logx.Debugf("downloaded %s (%d bytes)", dest, written)
	return written, nil
}

func applyOriginHeaders(req *http.Request, referer string) {
	if referer == "" {
		return
	}
	req.Header.Set("Referer", referer)
	if u, err := url.Parse(referer); err == nil && u.Scheme != "" && u.Host != "" {
		req.Header.Set("Origin", u.Scheme+"://"+u.Host)
	}
}
