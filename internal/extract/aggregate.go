package extract

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/media"
)

// timelineJS reads the resource-timing log. It catches responses
// whose network events fired before the listener attached.
const timelineJS = `(() => {
	try {
		return performance.getEntriesByType('resource').map(e => e.name);
	} catch (e) {
		return [];
	}
})()`

// domJS reads declared and resolved sources off media elements. It
// catches sources the browser satisfied from cache without a fetch
// the listener saw.
const domJS = `(() => {
	const out = [];
	for (const el of document.querySelectorAll('video, source')) {
		if (el.currentSrc) out.push(el.currentSrc);
		if (el.src) out.push(el.src);
		const declared = el.getAttribute('src');
		if (declared) out.push(declared);
	}
	return out;
})()`

// Aggregator unions candidate URLs from three channels: the
// continuous network collector, a one-shot resource-timing read, and
// a one-shot DOM scan. A failing channel contributes nothing and
// never aborts the attempt.
type Aggregator struct {
	page    Page
	host    string
	poll    time.Duration
	ceiling time.Duration
}

func newAggregator(page Page, host string, poll, ceiling time.Duration) *Aggregator {
	return &Aggregator{
		page:    page,
		host:    strings.ToLower(host),
		poll:    poll,
		ceiling: ceiling,
	}
}

// Sweep re-queries all three channels and returns the deduplicated
// union, fragment-stripped, in observation order.
func (a *Aggregator) Sweep() []string {
	seen := make(map[string]struct{})
	var union []string
	add := func(urls []string) {
		for _, u := range urls {
			stripped := media.StripFragment(u)
			if _, dup := seen[stripped]; dup {
				continue
			}
			seen[stripped] = struct{}{}
			union = append(union, stripped)
		}
	}

	add(a.page.NetworkURLs())
	add(a.timelineURLs())
	add(a.domURLs())
	return union
}

// AwaitCandidates blocks until an accepted-format candidate shows up
// on the network channel or the ceiling elapses. Best effort only;
// selection proceeds on whatever accumulated.
func (a *Aggregator) AwaitCandidates(ctx context.Context) {
	deadline := time.NewTimer(a.ceiling)
	defer deadline.Stop()
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	firstHit := a.page.FirstHit()
	for {
		if a.hasAccepted() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-firstHit:
			// Closed channels fire forever; nil blocks from here on.
			firstHit = nil
		case <-ticker.C:
		}
	}
}

func (a *Aggregator) hasAccepted() bool {
	for _, u := range a.page.NetworkURLs() {
		kind := media.KindOf(u)
		if kind.Progressive() || kind.Playlist() {
			return true
		}
	}
	return false
}

func (a *Aggregator) timelineURLs() []string {
	var urls []string
	if err := a.page.Evaluate(timelineJS, &urls); err != nil {
		logx.Debugf("resource timeline read failed: %v", err)
		return nil
	}
	return a.filterHost(urls)
}

func (a *Aggregator) domURLs() []string {
	var urls []string
	if err := a.page.Evaluate(domJS, &urls); err != nil {
		logx.Debugf("media element scan failed: %v", err)
		return nil
	}
	return a.filterHost(urls)
}

func (a *Aggregator) filterHost(urls []string) []string {
	var out []string
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil {
			continue
		}
		if strings.ToLower(parsed.Hostname()) == a.host {
			out = append(out, u)
		}
	}
	return out
}
