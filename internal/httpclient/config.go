// Package httpclient is the pooled HTTP client used for API calls and remote attachment downloads.
package httpclient

import (
	"context"
	"net/http"
	"time"
)

// HTTPClientConfig holds transport settings for HTTPClient
type HTTPClientConfig struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	InsecureSkipVerify  bool
	MaxRedirects        int
	EnableHTTP2         bool
	Proxy               string
	UserAgent           string
	CustomHeaders       map[string]string
	// MaxContentSize caps downloaded attachments in bytes, 0 means no limit
	MaxContentSize int
	Retry          RetryHandlerConfig
}

// RetryHandlerConfig controls retries. MaxRetries of 0 disables them.
type RetryHandlerConfig struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	EnableJitter     bool
	RetryStatusCodes []int
}

// DefaultHTTPClientConfig returns defaults for API traffic
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxRedirects:        10,
		EnableHTTP2:         true,
		UserAgent:           "courier (https://github.com/aleister1102/courier, 1.0)",
		MaxContentSize:      25 * 1024 * 1024,
		Retry:               DefaultRetryHandlerConfig(),
	}
}

// DefaultRetryHandlerConfig retries rate limits and gateway failures
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:   3,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		EnableJitter: true,
		RetryStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// HTTPRequest is a single request handed to HTTPClient.Do. Body is kept as a
// byte slice so retries can replay it.
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	Context context.Context
}

// HTTPResponse is a fully read response. Headers keep the first value of each key.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}
