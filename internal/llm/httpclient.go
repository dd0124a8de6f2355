package llm

import (
	"net/http"
	"time"
)

const (
	defaultPoolSize    = 4
	defaultHTTPTimeout = 30 * time.Second
)

// NewPooledHTTPClient builds an http.Client tuned for repeated calls to
// a single model or synthesis endpoint. Zero values fall back to
// conservative defaults so callers can pass config through unchecked.
func NewPooledHTTPClient(poolSize int, timeout time.Duration) *http.Client {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: timeout,
			ForceAttemptHTTP2:     true,
		},
	}
}
