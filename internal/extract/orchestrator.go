// Package extract drives one extraction attempt end to end: validate
// the target URL, render the post in a browser, sweep media
// candidates off the page, and rank them into a single selection.
// Every failure mode maps onto a closed classification set.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lvcoi/xgrab/internal/browser"
	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/wall"
)

// Fallback values for Config fields left zero. The app layer normally
// fills these from its own configuration.
const (
	defaultMediaHost    = "video.twimg.com"
	defaultSettle       = 2 * time.Second
	defaultPollInterval = 250 * time.Millisecond
	defaultPollCeiling  = 8 * time.Second
	defaultProbeTimeout = 5 * time.Second
	defaultProbeFloor   = 100 * 1024
)

// playbackJS nudges the page into fetching media: muted play() on
// every media element, then the first clickable play control. All
// failures are swallowed in page; this never gates progress.
const playbackJS = `(() => {
	for (const el of document.querySelectorAll('video, audio')) {
		try {
			el.muted = true;
			const p = el.play();
			if (p && p.catch) p.catch(() => {});
		} catch (e) {}
	}
	const selectors = [
		'[data-testid="playButton"]',
		'button[aria-label*="Play"]',
		'div[role="button"][aria-label*="Play"]',
		'[data-testid="videoComponent"] div[role="button"]',
	];
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (el) {
			try { el.click(); return sel; } catch (e) {}
		}
	}
	return '';
})()`

// Config carries everything one Extractor needs. Zero fields fall
// back to package defaults.
type Config struct {
	// MediaHost is the CDN host candidates must live on.
	MediaHost string
	// Timeout caps the whole browser phase. Zero leaves it uncapped.
	Timeout time.Duration
	// Settle is the fixed hydration delay after DOM readiness.
	Settle time.Duration
	// PollInterval and PollCeiling bound the candidate wait.
	PollInterval time.Duration
	PollCeiling  time.Duration
	// ProbeTimeout bounds each HEAD probe; ProbeFloor is the minimum
	// plausible size in bytes for a real video file.
	ProbeTimeout time.Duration
	ProbeFloor   int64
	// Headless hides the browser window.
	Headless bool
	// UserAgent overrides the browser user agent.
	UserAgent string
	// ProfileDir attaches a persistent authenticated profile.
	ProfileDir string
	// DebugDir, when set, receives HTML and screenshot artifacts for
	// failed attempts.
	DebugDir string
	// Client issues the HEAD probes.
	Client *http.Client
	// OpenPage launches the browser page. Defaults to a live chromedp
	// session.
	OpenPage OpenPage
}

func (c Config) withDefaults() Config {
	if c.MediaHost == "" {
		c.MediaHost = defaultMediaHost
	}
	if c.Settle == 0 {
		c.Settle = defaultSettle
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollCeiling == 0 {
		c.PollCeiling = defaultPollCeiling
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	if c.ProbeFloor == 0 {
		c.ProbeFloor = defaultProbeFloor
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.OpenPage == nil {
		c.OpenPage = openLivePage
	}
	return c
}

// Extractor runs extraction attempts. Safe to reuse across targets;
// each attempt opens and closes its own page.
type Extractor struct {
	cfg Config
}

func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// Result is a successful extraction: the post identity, the chosen
// candidate, and whatever page metadata was readable. Cookies holds
// the browser session cookies when a profile was attached, so the
// transfer layer can retry an authenticated fetch.
type Result struct {
	Ref       PostRef
	Selection Selection
	Meta      PostMeta
	Cookies   []*http.Cookie
}

// Stem is the suggested filename stem, Author_PostID.
func (r Result) Stem() string {
	return r.Ref.Stem()
}

// Listing is the ranked view of every acceptable candidate on a post,
// best first. Progressive files precede playlists.
type Listing struct {
	Ref        PostRef
	Candidates []Selection
	Meta       PostMeta
	Cookies    []*http.Cookie
}

func (l Listing) Stem() string {
	return l.Ref.Stem()
}

// Extract runs one complete attempt against rawURL and auto-selects
// the best candidate. Invalid targets fail before any browser opens.
// All other failures come back as classified errors; no panic escapes.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Result, error) {
	ref, err := ParsePostRef(rawURL)
	if err != nil {
		return Result{}, err
	}
	page, cands, loginWalled, err := e.gather(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	defer page.Close()

	selection, ok := e.selector().pick(ctx, cands)
	if !ok {
		return Result{}, e.noVideo(page, loginWalled)
	}

	logx.Debugf("selected %s (%s)", selection.Candidate.URL, selection.Candidate.Kind)
	return Result{
		Ref:       ref,
		Selection: selection,
		Meta:      readMeta(page),
		Cookies:   e.sessionCookies(page),
	}, nil
}

// ExtractAll runs the same attempt but returns every ranked candidate
// instead of auto-selecting one. Listing and interactive picking build
// on this.
func (e *Extractor) ExtractAll(ctx context.Context, rawURL string) (Listing, error) {
	ref, err := ParsePostRef(rawURL)
	if err != nil {
		return Listing{}, err
	}
	page, cands, loginWalled, err := e.gather(ctx, ref)
	if err != nil {
		return Listing{}, err
	}
	defer page.Close()

	all := e.selector().list(ctx, cands)
	if len(all) == 0 {
		return Listing{}, e.noVideo(page, loginWalled)
	}

	logx.Debugf("ranked %d candidates", len(all))
	return Listing{
		Ref:        ref,
		Candidates: all,
		Meta:       readMeta(page),
		Cookies:    e.sessionCookies(page),
	}, nil
}

func (e *Extractor) selector() selector {
	return selector{client: e.cfg.Client, timeout: e.cfg.ProbeTimeout, floor: e.cfg.ProbeFloor}
}

// sessionCookies reads the page cookies for an attached profile. Runs
// without a profile carry none.
func (e *Extractor) sessionCookies(page Page) []*http.Cookie {
	if e.cfg.ProfileDir == "" {
		return nil
	}
	cookies, err := page.Cookies()
	if err != nil {
		logx.Debugf("reading session cookies: %v", err)
		return nil
	}
	return cookies
}

// gather renders the post and sweeps media candidates off it. On
// success the page stays open for the caller to close; every failure
// path closes it after capturing artifacts. No panic escapes the
// browser phase.
func (e *Extractor) gather(ctx context.Context, ref PostRef) (page Page, cands []Candidate, loginWalled bool, err error) {
	page, err = e.cfg.OpenPage(ctx, browser.Options{
		Headless:   e.cfg.Headless,
		UserAgent:  e.cfg.UserAgent,
		ProfileDir: e.cfg.ProfileDir,
		Timeout:    e.cfg.Timeout,
	}, e.cfg.MediaHost)
	if err != nil {
		return nil, nil, false, wrapClass(ClassExtraction, fmt.Errorf("launching browser: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			err = e.abort(page, ClassExtraction, "unexpected failure during extraction: %v", r)
			page, cands = nil, nil
		}
	}()

	logx.Debugf("navigating to %s", ref.URL)
	if err := page.Navigate(ref.URL); err != nil {
		return nil, nil, false, e.abort(page, ClassExtraction, "loading page: %v", err)
	}
	sleepCtx(ctx, e.cfg.Settle)

	html, herr := page.HTML()
	if herr != nil {
		logx.Warnf("reading rendered page: %v", herr)
	}

	if wall.IsPrivateAccount(html) {
		return nil, nil, false, e.abort(page, ClassProtected,
			"this post belongs to a protected account; only approved followers can view it")
	}
	loginWalled = wall.HasLoginWall(html)
	if loginWalled {
		logx.Warn("page shows a login wall; continuing in case the profile is authenticated")
	}

	e.triggerPlayback(page)

	agg := newAggregator(page, e.cfg.MediaHost, e.cfg.PollInterval, e.cfg.PollCeiling)
	agg.AwaitCandidates(ctx)

	cands = buildCandidates(agg.Sweep())
	logx.Debugf("aggregated %d candidates", len(cands))
	return page, cands, loginWalled, nil
}

// abort captures failure artifacts, then closes the page.
func (e *Extractor) abort(page Page, class Classification, format string, args ...any) error {
	err := e.failf(page, class, format, args...)
	page.Close()
	return err
}

func (e *Extractor) noVideo(page Page, loginWalled bool) error {
	if loginWalled {
		return e.failf(page, ClassLoginWall,
			"a login wall is hiding this post; run -login once, then retry with -profile")
	}
	return e.failf(page, ClassNoVideo, "no video found on this post")
}

// triggerPlayback is best effort; any failure is logged and dropped.
func (e *Extractor) triggerPlayback(page Page) {
	var clicked string
	if err := page.Evaluate(playbackJS, &clicked); err != nil {
		logx.Debugf("playback trigger: %v", err)
		return
	}
	if clicked != "" {
		logx.Debugf("clicked play control %s", clicked)
	}
}

func (e *Extractor) failf(page Page, class Classification, format string, args ...any) error {
	return &ClassifiedError{
		Class:     class,
		Err:       fmt.Errorf(format, args...),
		Artifacts: saveArtifacts(page, e.cfg.DebugDir, artifactPrefix(class)),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
