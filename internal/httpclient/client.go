package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps net/http.Client with default headers and an optional
// retry handler
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
	logger zerolog.Logger
	retry  *RetryHandler
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport, err := newTransport(config, logger)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return nil
		},
	}

	c := &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
	if config.Retry.MaxRetries > 0 {
		c.retry = NewRetryHandler(config.Retry, logger)
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("http2_enabled", config.EnableHTTP2).
		Int("max_retries", config.Retry.MaxRetries).
		Msg("HTTP client created")
	return c, nil
}

func newTransport(config HTTPClientConfig, logger zerolog.Logger) (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", proxyURL.Redacted()).Msg("HTTP client configured with proxy")
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}
	return transport, nil
}

// Do performs req, retrying when a retry handler is configured. Any status
// code is returned as a response; only transport failures are errors, and
// exhausting retries on a retryable status.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	if req == nil {
		return nil, errorwrapper.NilArgument("request")
	}
	if c.retry != nil {
		return c.retry.DoWithRetry(requestContext(req), c.do, req)
	}
	return c.do(req)
}

func requestContext(req *HTTPRequest) context.Context {
	if req.Context == nil {
		return context.Background()
	}
	return req.Context
}

func (c *HTTPClient) do(req *HTTPRequest) (*HTTPResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(requestContext(req), req.Method, req.URL, body)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTTP request")
	}

	// Per-request headers win over configured ones.
	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(req.URL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(req.URL, "failed to read response body", err)
	}

	out := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       data,
	}
	for key := range resp.Header {
		out.Headers[key] = resp.Header.Get(key)
	}
	return out, nil
}

// Download is a fetched remote file
type Download struct {
	Content     []byte
	ContentType string
}

// Download fetches rawURL bypassing intermediary caches. Non-200 responses
// fail with an HTTPError and bodies above MaxContentSize are refused.
func (c *HTTPClient) Download(ctx context.Context, rawURL string) (*Download, error) {
	resp, err := c.Do(&HTTPRequest{
		URL:    rawURL,
		Method: http.MethodGet,
		Headers: map[string]string{
			"Cache-Control": "no-cache",
			"Pragma":        "no-cache",
		},
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("url", rawURL).Int("status_code", resp.StatusCode).Msg("Download failed")
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, string(Snippet(resp.Body)), rawURL)
	}

	if limit := c.config.MaxContentSize; limit > 0 && len(resp.Body) > limit {
		return nil, errorwrapper.NewValidationError("content_size", len(resp.Body),
			fmt.Sprintf("download exceeds the %d byte limit", limit))
	}

	c.logger.Debug().
		Str("url", rawURL).
		Int("content_size", len(resp.Body)).
		Msg("Downloaded content")
	return &Download{Content: resp.Body, ContentType: resp.Headers["Content-Type"]}, nil
}

// Snippet trims an error body to a loggable size
func Snippet(body []byte) []byte {
	const maxSnippet = 1024
	if len(body) > maxSnippet {
		return body[:maxSnippet]
	}
	return body
}
