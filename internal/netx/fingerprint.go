package netx

import (
	"context"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
)

// newFingerprintTransport dials TLS with a Chrome ClientHello instead
// of the Go default. The media CDN fingerprints the handshake and
// throttles clients that do not look like a browser.
func newFingerprintTransport(hello utls.ClientHelloID) *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			rawConn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				rawConn.Close()
				return nil, err
			}
			config := &utls.Config{ServerName: host, NextProtos: []string{"h2", "http/1.1"}}
			conn := utls.UClient(rawConn, config, hello)
			if err := conn.Handshake(); err != nil {
				rawConn.Close()
				return nil, err
			}
			return conn, nil
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
