package utils

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewHTTPClient builds the client shared by all provider SDKs. The timeout
// bounds every provider call; debug wraps the transport with request logging.
func NewHTTPClient(timeout time.Duration, debug bool) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if debug {
		transport = NewDebugTransport(transport)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
