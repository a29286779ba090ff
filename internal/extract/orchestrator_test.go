package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lvcoi/xgrab/internal/browser"
	"github.com/lvcoi/xgrab/internal/fsx"
	"github.com/lvcoi/xgrab/internal/media"
)

// fakePage scripts the browser surface for one scenario.
type fakePage struct {
	html      string
	network   []string
	timeline  []string
	dom       []string
	cookies   []*http.Cookie
	navErr    error
	evalErr   error
	panicHTML bool

	navigated []string
	closed    int
	firstHit  chan struct{}
}

func newFakePage() *fakePage {
	hit := make(chan struct{})
	close(hit)
	return &fakePage{firstHit: hit}
}

func (p *fakePage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *fakePage) HTML() (string, error) {
	if p.panicHTML {
		panic("renderer went away")
	}
	return p.html, nil
}

func (p *fakePage) Evaluate(js string, out any) error {
	if p.evalErr != nil {
		return p.evalErr
	}
	switch {
	case strings.Contains(js, "getEntriesByType"):
		setStrings(out, p.timeline)
	case strings.Contains(js, "'video, source'"):
		setStrings(out, p.dom)
	}
	return nil
}

func setStrings(out any, val []string) {
	if ptr, ok := out.(*[]string); ok {
		*ptr = append([]string(nil), val...)
	}
}

func (p *fakePage) Screenshot() ([]byte, error)      { return []byte("fake png"), nil }
func (p *fakePage) Cookies() ([]*http.Cookie, error) { return p.cookies, nil }
func (p *fakePage) NetworkURLs() []string            { return p.network }
func (p *fakePage) FirstHit() <-chan struct{}        { return p.firstHit }
func (p *fakePage) Close()                           { p.closed++ }

// mediaServer serves HEAD probes for candidate URLs. Its host doubles
// as the media host in scenario configs.
func mediaServer(t *testing.T, sizes map[string]int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size, ok := sizes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func scenarioConfig(page Page, client *http.Client, host string) Config {
	return Config{
		MediaHost:    host,
		Settle:       time.Millisecond,
		PollInterval: time.Millisecond,
		PollCeiling:  20 * time.Millisecond,
		ProbeTimeout: 2 * time.Second,
		ProbeFloor:   100 * 1024,
		Client:       client,
		OpenPage: func(ctx context.Context, o browser.Options, mediaHost string) (Page, error) {
			return page, nil
		},
	}
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return parsed.Hostname()
}

func TestExtractDeclaredVideoSource(t *testing.T) {
	srv := mediaServer(t, map[string]int64{"/tweet_video/123456.mp4": 5 << 20})

	page := newFakePage()
	page.html = "<article>regular post</article>"
	page.dom = []string{srv.URL + "/tweet_video/123456.mp4"}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	res, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Stem() != "TestUser_123456" {
		t.Fatalf("Stem = %q, want TestUser_123456", res.Stem())
	}
	if !res.Selection.Candidate.Kind.Progressive() {
		t.Fatalf("kind = %s, want a progressive container", res.Selection.Candidate.Kind)
	}
	if page.closed == 0 {
		t.Fatal("page was not closed")
	}
}

func TestExtractLoginWallWithoutCandidates(t *testing.T) {
	page := newFakePage()
	page.html = `<div>Log in to follow this account</div><button>Sign in</button>`

	ex := New(scenarioConfig(page, http.DefaultClient, "video.example.cdn"))
	_, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassLoginWall {
		t.Fatalf("classification = %s, want %s (err: %v)", ClassOf(err), ClassLoginWall, err)
	}
	if page.closed == 0 {
		t.Fatal("page was not closed")
	}
}

func TestExtractProtectedAccountShortCircuits(t *testing.T) {
	srv := mediaServer(t, map[string]int64{"/vid/720x1280/clip.mp4": 5 << 20})

	page := newFakePage()
	page.html = "This tweet is from an account that is protected."
	page.network = []string{srv.URL + "/vid/720x1280/clip.mp4"}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	_, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassProtected {
		t.Fatalf("classification = %s, want %s", ClassOf(err), ClassProtected)
	}
	if page.closed == 0 {
		t.Fatal("page was not closed")
	}
}

func TestExtractHighestResolutionWins(t *testing.T) {
	srv := mediaServer(t, map[string]int64{
		"/111111/pu/vid/720x1280/best.mp4": 5 << 20,
		"/111111/pu/vid/360x640/low.mp4":   8 << 20,
	})

	page := newFakePage()
	page.html = "<article>post</article>"
	page.network = []string{
		srv.URL + "/111111/pu/vid/360x640/low.mp4",
		srv.URL + "/111111/pu/vid/720x1280/best.mp4",
	}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	res, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/111111")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(res.Selection.Candidate.URL, "720x1280") {
		t.Fatalf("selected %s, want the 720x1280 variant", res.Selection.Candidate.URL)
	}
	if res.Selection.Candidate.Width != 720 || res.Selection.Candidate.Height != 1280 {
		t.Fatalf("resolution = %dx%d", res.Selection.Candidate.Width, res.Selection.Candidate.Height)
	}
}

func TestExtractLoginWallStillTriesCandidates(t *testing.T) {
	srv := mediaServer(t, map[string]int64{"/vid/720x1280/clip.mp4": 5 << 20})

	page := newFakePage()
	page.html = `<h1>Don't miss what's happening</h1><a>Sign in</a>`
	page.network = []string{srv.URL + "/vid/720x1280/clip.mp4"}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	res, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if err != nil {
		t.Fatalf("a wall with candidates present must not abort: %v", err)
	}
	if !strings.HasSuffix(res.Selection.Candidate.URL, "clip.mp4") {
		t.Fatalf("selected %s", res.Selection.Candidate.URL)
	}
}

func TestExtractInvalidTargetNeverOpensBrowser(t *testing.T) {
	opened := false
	cfg := scenarioConfig(newFakePage(), http.DefaultClient, "video.example.cdn")
	cfg.OpenPage = func(ctx context.Context, o browser.Options, host string) (Page, error) {
		opened = true
		return newFakePage(), nil
	}

	ex := New(cfg)
	for _, raw := range []string{"https://example.com/x/status/1", "https://x.com/i/status/5"} {
		if _, err := ex.Extract(context.Background(), raw); err == nil {
			t.Fatalf("Extract(%q) succeeded", raw)
		}
	}
	if opened {
		t.Fatal("validation failures must not open a browser")
	}
}

func TestExtractNavigationFailure(t *testing.T) {
	page := newFakePage()
	page.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	ex := New(scenarioConfig(page, http.DefaultClient, "video.example.cdn"))
	_, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassExtraction {
		t.Fatalf("classification = %s, want %s", ClassOf(err), ClassExtraction)
	}
}

func TestExtractRecoversFromPanic(t *testing.T) {
	page := newFakePage()
	page.panicHTML = true

	ex := New(scenarioConfig(page, http.DefaultClient, "video.example.cdn"))
	_, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassExtraction {
		t.Fatalf("classification = %s, want %s (err: %v)", ClassOf(err), ClassExtraction, err)
	}
	if page.closed == 0 {
		t.Fatal("page must be closed even after a panic")
	}
}

func TestExtractSavesDebugArtifacts(t *testing.T) {
	fsx.SetMemMapFs()
	defer fsx.SetOsFs()

	page := newFakePage()
	page.html = "These Tweets are protected."

	cfg := scenarioConfig(page, http.DefaultClient, "video.example.cdn")
	cfg.DebugDir = "/debug"

	ex := New(cfg)
	_, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassProtected {
		t.Fatalf("classification = %s", ClassOf(err))
	}

	arts := ArtifactsOf(err)
	if arts.HTMLPath == "" || arts.ScreenshotPath == "" {
		t.Fatalf("artifacts not recorded: %+v", arts)
	}
	if !strings.Contains(arts.HTMLPath, "protected_") {
		t.Fatalf("HTML artifact %q lacks failure prefix", arts.HTMLPath)
	}
	data, rerr := fsx.API().ReadFile(arts.HTMLPath)
	if rerr != nil {
		t.Fatalf("reading artifact: %v", rerr)
	}
	if string(data) != page.html {
		t.Fatalf("artifact content = %q", data)
	}
}

func TestExtractAllRanksEveryCandidate(t *testing.T) {
	srv := mediaServer(t, map[string]int64{
		"/111111/pu/vid/720x1280/best.mp4": 5 << 20,
		"/111111/pu/vid/360x640/low.mp4":   2 << 20,
	})

	page := newFakePage()
	page.html = "<article>post</article>"
	page.network = []string{
		srv.URL + "/111111/pu/pl/master.m3u8",
		srv.URL + "/111111/pu/vid/360x640/low.mp4",
		srv.URL + "/111111/pu/vid/720x1280/best.mp4",
	}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	listing, err := ex.ExtractAll(context.Background(), "https://x.com/TestUser/status/111111")
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if listing.Stem() != "TestUser_111111" {
		t.Fatalf("Stem = %q", listing.Stem())
	}
	if len(listing.Candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(listing.Candidates))
	}
	for i, want := range []string{"best.mp4", "low.mp4", "master.m3u8"} {
		if !strings.HasSuffix(listing.Candidates[i].Candidate.URL, want) {
			t.Fatalf("candidate %d = %s, want suffix %s", i, listing.Candidates[i].Candidate.URL, want)
		}
	}
	if listing.Candidates[0].ProbedSize != 5<<20 {
		t.Fatalf("leader size = %d", listing.Candidates[0].ProbedSize)
	}
	if page.closed == 0 {
		t.Fatal("page was not closed")
	}
}

func TestExtractAllNoVideo(t *testing.T) {
	page := newFakePage()
	page.html = "<article>text only</article>"

	ex := New(scenarioConfig(page, http.DefaultClient, "video.example.cdn"))
	_, err := ex.ExtractAll(context.Background(), "https://x.com/TestUser/status/123456")
	if ClassOf(err) != ClassNoVideo {
		t.Fatalf("classification = %s, want %s", ClassOf(err), ClassNoVideo)
	}
	if page.closed == 0 {
		t.Fatal("page was not closed")
	}
}

func TestVerifyAuth(t *testing.T) {
	page := newFakePage()
	page.html = "<main>timeline</main>"
	page.cookies = []*http.Cookie{
		{Name: "auth_token", Value: "tok"},
		{Name: "ct0", Value: "csrf"},
		{Name: "unrelated", Value: "x"},
	}

	cfg := scenarioConfig(page, http.DefaultClient, "video.example.cdn")
	cfg.ProfileDir = "/profiles/default"

	status, err := New(cfg).VerifyAuth(context.Background())
	if err != nil {
		t.Fatalf("VerifyAuth failed: %v", err)
	}
	if !status.TokenPresent {
		t.Fatal("session token not detected")
	}
	if !status.PageAccessible {
		t.Fatal("accessible page reported inaccessible")
	}
	if len(status.CookieNames) != 2 || status.CookieNames[0] != "auth_token" || status.CookieNames[1] != "ct0" {
		t.Fatalf("CookieNames = %v", status.CookieNames)
	}
	if len(page.navigated) != 1 || !strings.Contains(page.navigated[0], "/home") {
		t.Fatalf("navigated = %v, want the authenticated landing page", page.navigated)
	}
}

func TestVerifyAuthWalledLanding(t *testing.T) {
	page := newFakePage()
	page.html = `<h1>Don't miss what's happening</h1><a>Sign in</a>`

	cfg := scenarioConfig(page, http.DefaultClient, "video.example.cdn")
	cfg.ProfileDir = "/profiles/default"

	status, err := New(cfg).VerifyAuth(context.Background())
	if err != nil {
		t.Fatalf("VerifyAuth failed: %v", err)
	}
	if status.TokenPresent {
		t.Fatal("token reported without cookies")
	}
	if status.PageAccessible {
		t.Fatal("walled landing page reported accessible")
	}
}

func TestVerifyAuthRequiresProfile(t *testing.T) {
	cfg := scenarioConfig(newFakePage(), http.DefaultClient, "video.example.cdn")
	if _, err := New(cfg).VerifyAuth(context.Background()); err == nil {
		t.Fatal("VerifyAuth without a profile must fail")
	}
}

func TestKindSurvivesSelection(t *testing.T) {
	srv := mediaServer(t, map[string]int64{})

	page := newFakePage()
	page.html = "<article>post</article>"
	page.network = []string{srv.URL + "/pl/master.m3u8"}

	ex := New(scenarioConfig(page, srv.Client(), hostOf(t, srv.URL)))
	res, err := ex.Extract(context.Background(), "https://x.com/TestUser/status/123456")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Selection.Candidate.Kind != media.KindM3U8 {
		t.Fatalf("kind = %s, want m3u8", res.Selection.Candidate.Kind)
	}
}
