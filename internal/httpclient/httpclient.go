// Package httpclient provides the shared *http.Client the gateway uses
// to call the Gemini backend, plus a connection-prewarming helper,
// Prewarm, that opens connections to a given list of endpoints so a
// later request can reuse a warm connection. Grounded on
// internal/runtime/executor/prewarm.go (parallel HEAD-request warmup
// over a shared transport), generalized from the Antigravity endpoint
// list to this gateway's configured Gemini base URL.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// SharedTransport is reused by every outbound request so connections to
// the Gemini backend are pooled instead of re-dialed per call.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   20,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// New builds an *http.Client over SharedTransport with the given
// per-request timeout. A zero timeout disables the client-level
// deadline (the TTS backend workers use this, bounded by their
// per-sentence context timeouts instead).
func New(timeout time.Duration) *http.Client {
	return &http.Client{Transport: SharedTransport, Timeout: timeout}
}

// Prewarm opens a connection to each of endpoints in parallel via a HEAD
// request, so the first proxied call to that host reuses a warm
// connection instead of paying TLS handshake latency inline.
func Prewarm(ctx context.Context, endpoints []string) {
	var wg sync.WaitGroup
	const timeout = 5 * time.Second

	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			prewarmOne(ctx, url, timeout)
		}(endpoint)
	}
	wg.Wait()
}

func prewarmOne(ctx context.Context, baseURL string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
	if err != nil {
		return
	}

	client := &http.Client{Transport: SharedTransport, Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
