package clients

import (
	"net"
	"net/http"
	"time"
)

// DefaultTransport returns an HTTP transport sized for a handful of upstream
// APIs polled on a fixed cadence.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     16,
		MaxIdleConnsPerHost: 4,
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPClient returns an *http.Client on DefaultTransport with the given
// per-request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Transport: DefaultTransport(), Timeout: timeout}
}
