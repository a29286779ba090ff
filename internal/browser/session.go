// Package browser wraps chromedp with the small surface the extractor
// needs: navigate, read the rendered document, evaluate scripts, and
// pull cookies out of the profile.
package browser

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/netx"
)

// Options configures a browser session before launch.
type Options struct {
	// Headless hides the browser window. Login flows run headed so the
	// user can type credentials.
	Headless bool
	// ProfileDir, when set, attaches a persistent user-data directory
	// so cookies and storage survive across runs.
	ProfileDir string
	// Timeout caps the whole session including navigation and script
	// evaluation. Zero means no cap.
	Timeout time.Duration
	// UserAgent overrides the launch user agent. Empty picks the same
	// Chrome build the HTTP stack impersonates.
	UserAgent string
}

// Session is a single live browser tab. Not safe for concurrent use;
// the extractor drives it from one goroutine and listeners attach
// before navigation.
type Session struct {
	ctx       context.Context
	cancels   []context.CancelFunc
	closeOnce sync.Once
}

// NewSession launches a browser and returns a session bound to one
// tab. Close must be called even when NewSession's navigation helpers
// later fail.
func NewSession(parent context.Context, o Options) (*Session, error) {
	ua := o.UserAgent
	if ua == "" {
		ua = netx.UserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("window-size", "1280,1024"),
		chromedp.UserAgent(ua),
	)
	if o.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logx.Debugf))

	cancels := []context.CancelFunc{taskCancel, allocCancel}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, o.Timeout)
		cancels = append([]context.CancelFunc{cancel}, cancels...)
	}

	s := &Session{ctx: taskCtx, cancels: cancels}

	// Launch eagerly so a missing Chrome binary surfaces here, not on
	// the first navigation.
	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Context exposes the tab context for event listeners.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Listen attaches fn to the tab's CDP event stream. Attach before
// Navigate or early responses are missed.
func (s *Session) Listen(fn func(ev any)) {
	chromedp.ListenTarget(s.ctx, fn)
}

// Navigate loads the URL and waits for the document body to exist.
// Dynamic content may still be loading when it returns.
func (s *Session) Navigate(url string) error {
	return chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// HTML returns the full rendered document markup.
func (s *Session) HTML() (string, error) {
	var html string
	err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Evaluate runs a script in the page and unmarshals its result into
// out. Pass nil to discard the result.
func (s *Session) Evaluate(js string, out any) error {
	if out == nil {
		var discard any
		out = &discard
	}
	return chromedp.Run(s.ctx, chromedp.Evaluate(js, out))
}

// Screenshot captures the visible viewport as PNG bytes.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// Cookies reads every cookie the browser currently holds, converted
// for use with an http.Client jar.
func (s *Session) Cookies() ([]*http.Cookie, error) {
	var converted []*http.Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cdpCookies, err := network.GetAllCookies().Do(ctx)
		if err != nil {
			return err
		}
		converted = make([]*http.Cookie, 0, len(cdpCookies))
		for _, cookie := range cdpCookies {
			converted = append(converted, &http.Cookie{
				Name:     cookie.Name,
				Value:    cookie.Value,
				Domain:   cookie.Domain,
				Path:     cookie.Path,
				Secure:   cookie.Secure,
				HttpOnly: cookie.HTTPOnly,
				Expires:  time.Unix(int64(cookie.Expires), 0),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return converted, nil
}

// Close tears down the tab and the browser process. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}
