package rest

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/httpclient"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// Doer sends a prepared HTTP request
type Doer interface {
	Do(req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error)
}

// ExecutorConfig addresses the API
type ExecutorConfig struct {
	BaseURL    string
	APIVersion int
	Token      string
}

// Executor runs requests asynchronously over a Doer.
type Executor struct {
	doer   Doer
	config ExecutorConfig
	logger zerolog.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(doer Doer, config ExecutorConfig, logger zerolog.Logger) *Executor {
	return &Executor{
		doer:   doer,
		config: config,
		logger: logger.With().Str("component", "RestExecutor").Logger(),
	}
}

// BaseURL returns the versioned API root
func (e *Executor) BaseURL() string {
	base := strings.TrimRight(e.config.BaseURL, "/")
	if e.config.APIVersion > 0 {
		base += "/v" + strconv.Itoa(e.config.APIVersion)
	}
	return base
}

// Execute sends req and completes the returned future with the response.
// Non-2xx statuses fail the future with an HTTPError.
func (e *Executor) Execute(ctx context.Context, req Request) *future.Future[*Response] {
	result := future.New[*Response]()

	httpReq, err := e.prepare(ctx, req)
	if err != nil {
		result.Fail(err)
		return result
	}

	go func() {
		result.Resolve(e.do(httpReq, req))
	}()
	return result
}

func (e *Executor) prepare(ctx context.Context, req Request) (*httpclient.HTTPRequest, error) {
	path, err := req.Endpoint.Path(req.Params...)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to build request path")
	}

	target := e.BaseURL() + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	headers := map[string]string{RequestIDHeader: id}
	if req.Endpoint.Authenticated && e.config.Token != "" {
		headers["Authorization"] = "Bot " + e.config.Token
	}

	httpReq := &httpclient.HTTPRequest{
		URL:     target,
		Method:  req.Endpoint.Method,
		Headers: headers,
		Context: ctx,
	}

	switch {
	case req.Multipart != nil:
		httpReq.Body = req.Multipart.Data
		headers["Content-Type"] = req.Multipart.ContentType
	case req.JSONBody != nil:
		body, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to encode request body")
		}
		httpReq.Body = body
		headers["Content-Type"] = "application/json"
	}

	return httpReq, nil
}

func (e *Executor) do(httpReq *httpclient.HTTPRequest, req Request) (*Response, error) {
	logger := e.logger.With().
		Str("endpoint", req.Endpoint.String()).
		Str("request_id", httpReq.Headers[RequestIDHeader]).
		Logger()

	resp, err := e.doer.Do(httpReq)
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(httpclient.Snippet(resp.Body))
		logger.Warn().Int("status_code", resp.StatusCode).Str("body", snippet).Msg("Request returned non-success status")
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, snippet, httpReq.URL)
	}

	logger.Debug().Int("status_code", resp.StatusCode).Int("body_size", len(resp.Body)).Msg("Request completed")
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}
