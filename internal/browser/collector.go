package browser

import (
	"net/url"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"

	"github.com/lvcoi/xgrab/internal/logx"
)

// Collector accumulates response URLs from the tab's network events,
// restricted to one media host. It is the continuous channel of the
// candidate sweep; the one-shot timeline and DOM reads live with the
// extractor.
type Collector struct {
	host string

	mu   sync.Mutex
	seen map[string]struct{}
	urls []string

	notifyOnce sync.Once
	notify     chan struct{}
}

// NewCollector restricts collection to URLs whose host equals host,
// compared case-insensitively.
func NewCollector(host string) *Collector {
	return &Collector{
		host:   strings.ToLower(host),
		seen:   make(map[string]struct{}),
		notify: make(chan struct{}),
	}
}

// Listen is the chromedp.ListenTarget handler. Only finished
// responses count; requests that never answered tell us nothing about
// what the CDN actually serves.
func (c *Collector) Listen(ev any) {
	if e, ok := ev.(*network.EventResponseReceived); ok {
		c.Add(e.Response.URL)
	}
}

// Add records a URL if it belongs to the media host and has not been
// seen before.
func (c *Collector) Add(rawURL string) {
	if !c.onHost(rawURL) {
		return
	}

	c.mu.Lock()
	if _, dup := c.seen[rawURL]; dup {
		c.mu.Unlock()
		return
	}
	c.seen[rawURL] = struct{}{}
	c.urls = append(c.urls, rawURL)
	total := len(c.urls)
	c.mu.Unlock()

	logx.Debugf("network candidate %d: %s", total, rawURL)
	c.notifyOnce.Do(func() { close(c.notify) })
}

// URLs returns a snapshot of everything collected so far, in arrival
// order.
func (c *Collector) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

// HasHits reports whether anything has been collected yet.
func (c *Collector) HasHits() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.urls) > 0
}

// FirstHit is closed when the first URL lands. Waiters use it to cut
// the polling window short.
func (c *Collector) FirstHit() <-chan struct{} {
	return c.notify
}

func (c *Collector) onHost(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.ToLower(parsed.Hostname()) == c.host
}
