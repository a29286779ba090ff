package extract

import (
	"context"
	"net/http"

	"github.com/lvcoi/xgrab/internal/browser"
)

// Page is the browser surface one extraction drives. The live
// implementation wraps a chromedp session plus its network collector;
// tests substitute fakes.
type Page interface {
	Navigate(url string) error
	HTML() (string, error)
	Evaluate(js string, out any) error
	Screenshot() ([]byte, error)
	Cookies() ([]*http.Cookie, error)
	// NetworkURLs snapshots the media-host response URLs observed so
	// far.
	NetworkURLs() []string
	// FirstHit is closed once the first network URL lands.
	FirstHit() <-chan struct{}
	Close()
}

// OpenPage launches a page against the given media host. Config
// carries one so tests can swap the browser out.
type OpenPage func(ctx context.Context, o browser.Options, mediaHost string) (Page, error)

type livePage struct {
	session   *browser.Session
	collector *browser.Collector
}

func openLivePage(ctx context.Context, o browser.Options, mediaHost string) (Page, error) {
	session, err := browser.NewSession(ctx, o)
	if err != nil {
		return nil, err
	}
	collector := browser.NewCollector(mediaHost)
	session.Listen(collector.Listen)
	return &livePage{session: session, collector: collector}, nil
}

func (p *livePage) Navigate(url string) error          { return p.session.Navigate(url) }
func (p *livePage) HTML() (string, error)              { return p.session.HTML() }
func (p *livePage) Evaluate(js string, out any) error  { return p.session.Evaluate(js, out) }
func (p *livePage) Screenshot() ([]byte, error)        { return p.session.Screenshot() }
func (p *livePage) Cookies() ([]*http.Cookie, error)   { return p.session.Cookies() }
func (p *livePage) NetworkURLs() []string              { return p.collector.URLs() }
func (p *livePage) FirstHit() <-chan struct{}          { return p.collector.FirstHit() }
func (p *livePage) Close()                             { p.session.Close() }
