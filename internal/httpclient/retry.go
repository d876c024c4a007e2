package httpclient

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// Rate limit hints sent with 429 responses, in seconds
const (
	headerRetryAfter     = "Retry-After"
	headerRateLimitReset = "X-Ratelimit-Reset-After"
)

// RetryHandler retries retryable statuses with exponential backoff, waiting
// as long as the server asks on rate limits. Transport errors are retried
// only for GET and HEAD since a failed POST may already have been applied.
type RetryHandler struct {
	config    RetryHandlerConfig
	retryable map[int]bool
	logger    zerolog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	retryable := make(map[int]bool, len(config.RetryStatusCodes))
	for _, code := range config.RetryStatusCodes {
		retryable[code] = true
	}
	return &RetryHandler{
		config:    config,
		retryable: retryable,
		logger:    logger.With().Str("component", "RetryHandler").Logger(),
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CalculateDelay returns the backoff before retry number attempt+1. A
// server hint on resp takes precedence. The result never exceeds MaxDelay.
func (rh *RetryHandler) CalculateDelay(attempt int, resp *HTTPResponse) time.Duration {
	if hint, ok := serverDelay(resp); ok {
		return min(hint, rh.config.MaxDelay)
	}

	delay := rh.config.BaseDelay << max(attempt, 0)
	if delay <= 0 || delay > rh.config.MaxDelay {
		delay = rh.config.MaxDelay
	}
	if rh.config.EnableJitter {
		if window := int64(delay / 10); window > 0 {
			delay += time.Duration(rand.Int63n(window))
		}
	}
	return delay
}

func serverDelay(resp *HTTPResponse) (time.Duration, bool) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	for _, header := range []string{headerRateLimitReset, headerRetryAfter} {
		if value, ok := resp.Headers[header]; ok {
			if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
				return time.Duration(secs * float64(time.Second)), true
			}
		}
	}
	return 0, false
}

// DoWithRetry runs doFunc until it succeeds, returns a non-retryable status,
// or MaxRetries is exhausted
func (rh *RetryHandler) DoWithRetry(ctx context.Context, doFunc func(*HTTPRequest) (*HTTPResponse, error), req *HTTPRequest) (*HTTPResponse, error) {
	replayable := req.Method == http.MethodGet || req.Method == http.MethodHead

	for attempt := 0; ; attempt++ {
		resp, err := doFunc(req)
		last := attempt >= rh.config.MaxRetries

		switch {
		case err != nil:
			if last || !replayable {
				return nil, err
			}
		case !rh.retryable[resp.StatusCode]:
			return resp, nil
		case last:
			httpErr := errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, string(Snippet(resp.Body)), req.URL)
			return resp, errorwrapper.WrapErrorf(httpErr, "gave up after %d retries", rh.config.MaxRetries)
		}

		delay := rh.CalculateDelay(attempt, resp)
		event := rh.logger.Warn().
			Str("method", req.Method).
			Str("url", req.URL).
			Int("attempt", attempt+1).
			Dur("delay", delay)
		if resp != nil {
			event = event.Int("status_code", resp.StatusCode)
		} else {
			event = event.Err(err)
		}
		event.Msg("Retrying request")

		if err := rh.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
