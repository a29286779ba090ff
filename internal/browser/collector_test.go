package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
)

func responseEvent(url string) *network.EventResponseReceived {
	return &network.EventResponseReceived{Response: &network.Response{URL: url}}
}

func TestCollectorRestrictsToHost(t *testing.T) {
	c := NewCollector("video.example.cdn")

	c.Listen(responseEvent("https://video.example.cdn/vid/720x1280/clip.mp4"))
	c.Listen(responseEvent("https://cdn.other.example/ad.mp4"))
	c.Listen(responseEvent("https://abs.example.site/bundle.js"))
	c.Listen(responseEvent("https://VIDEO.EXAMPLE.CDN/pl/master.m3u8"))

	urls := c.URLs()
	if len(urls) != 2 {
		t.Fatalf("collected %d URLs, want 2: %v", len(urls), urls)
	}
	if urls[0] != "https://video.example.cdn/vid/720x1280/clip.mp4" {
		t.Fatalf("urls[0] = %q", urls[0])
	}
	if urls[1] != "https://VIDEO.EXAMPLE.CDN/pl/master.m3u8" {
		t.Fatalf("urls[1] = %q", urls[1])
	}
}

func TestCollectorDeduplicates(t *testing.T) {
	c := NewCollector("video.example.cdn")

	for i := 0; i < 3; i++ {
		c.Add("https://video.example.cdn/vid/720x1280/clip.mp4")
	}
	c.Add("https://video.example.cdn/vid/480x852/clip.mp4")

	if got := len(c.URLs()); got != 2 {
		t.Fatalf("collected %d URLs, want 2", got)
	}
}

func TestCollectorIgnoresOtherEvents(t *testing.T) {
	c := NewCollector("video.example.cdn")

	c.Listen(&network.EventRequestWillBeSent{})
	c.Listen("not an event")

	if c.HasHits() {
		t.Fatal("unrelated events must not produce hits")
	}
}

func TestCollectorSignalsFirstHit(t *testing.T) {
	c := NewCollector("video.example.cdn")

	select {
	case <-c.FirstHit():
		t.Fatal("FirstHit closed before any capture")
	default:
	}

	c.Add("https://video.example.cdn/vid/720x1280/clip.mp4")
	c.Add("https://video.example.cdn/vid/480x852/clip.mp4")

	select {
	case <-c.FirstHit():
	default:
		t.Fatal("FirstHit not closed after capture")
	}
}

func TestCollectorRejectsUnparseableURL(t *testing.T) {
	c := NewCollector("video.example.cdn")
	c.Add("://bad url")
	if c.HasHits() {
		t.Fatal("unparseable URL must not be collected")
	}
}
