package app

import (
	"net"
	"net/http"
	"time"
)

// newResourceHTTPClient returns an HTTP client for resource downloads. The
// per-host pool matches the fetch concurrency since a snapshot pulls almost
// everything from one static host.
func newResourceHTTPClient(concurrency int, timeout time.Duration) *http.Client {
	if concurrency <= 0 {
		concurrency = 1
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   concurrency,
		MaxConnsPerHost:       concurrency,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
