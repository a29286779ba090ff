// Package netx provides the HTTP client stack used for CDN probes and
// media downloads: a browser-matching TLS fingerprint, consistent
// request headers, and retry on transient failures.
package netx

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
)

// UserAgent matches the Chrome build whose TLS fingerprint the shared
// transport presents. The two must agree or the CDN serves degraded
// responses.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var sharedTransport = newFingerprintTransport(utls.HelloChrome_120)

// CloseIdleConnections releases pooled connections held by the shared
// transport.
func CloseIdleConnections() {
	sharedTransport.CloseIdleConnections()
}

// headerTransport fills in browser-consistent defaults for any header
// the caller left unset.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	return t.base.RoundTrip(req)
}

// NewClient builds the client used against the media CDN. A zero
// timeout leaves the total request time uncapped, which is what
// downloads want; probes bound themselves per request via context.
func NewClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)
	var transport http.RoundTripper = &headerTransport{
		base:      sharedTransport,
		userAgent: UserAgent,
	}
	transport = newRetryTransport(transport, defaultRetryPolicy)
	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
	}
}

// ImportCookies seeds the client's jar with cookies captured from a
// browser session, scoped to the given origin URL.
func ImportCookies(client *http.Client, origin string, cookies []*http.Cookie) {
	if client == nil || client.Jar == nil || len(cookies) == 0 {
		return
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return
	}
	client.Jar.SetCookies(parsed, cookies)
}

// HeadOrGet issues a HEAD request and falls back to GET when the
// server rejects the method. The caller owns the response body.
func HeadOrGet(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err == nil && resp.StatusCode != http.StatusMethodNotAllowed {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}
