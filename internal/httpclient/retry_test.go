package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:       maxRetries,
		BaseDelay:        time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		RetryStatusCodes: []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
	}
}

// noSleep records requested delays instead of waiting
func noSleep(rh *RetryHandler) *[]time.Duration {
	var delays []time.Duration
	rh.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return &delays
}

func TestRetryHandler_RetriesRateLimit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(3)).Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodPost, Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRetryHandler_GivesUp(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(2)).Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodGet})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	var httpErr *errorwrapper.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "down", httpErr.Message)
}

func TestRetryHandler_NonRetryableStatusPassesThrough(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetry(fastRetry(3)).Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRetryHandler_TransportErrors(t *testing.T) {
	failing := func(calls *int) func(*HTTPRequest) (*HTTPResponse, error) {
		return func(req *HTTPRequest) (*HTTPResponse, error) {
			*calls++
			return nil, errorwrapper.NewNetworkError(req.URL, "connection reset", errors.New("eof"))
		}
	}

	t.Run("get is replayed", func(t *testing.T) {
		rh := NewRetryHandler(fastRetry(2), zerolog.Nop())
		noSleep(rh)
		calls := 0
		_, err := rh.DoWithRetry(context.Background(), failing(&calls), &HTTPRequest{Method: http.MethodGet})
		assert.ErrorIs(t, err, errorwrapper.ErrNetworkFailure)
		assert.Equal(t, 3, calls)
	})

	t.Run("post is not replayed", func(t *testing.T) {
		rh := NewRetryHandler(fastRetry(2), zerolog.Nop())
		noSleep(rh)
		calls := 0
		_, err := rh.DoWithRetry(context.Background(), failing(&calls), &HTTPRequest{Method: http.MethodPost})
		assert.ErrorIs(t, err, errorwrapper.ErrNetworkFailure)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryHandler_StopsOnCancel(t *testing.T) {
	rh := NewRetryHandler(fastRetry(5), zerolog.Nop())
	delays := noSleep(rh)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := rh.DoWithRetry(ctx, func(*HTTPRequest) (*HTTPResponse, error) {
		calls++
		return &HTTPResponse{StatusCode: http.StatusTooManyRequests}, nil
	}, &HTTPRequest{Method: http.MethodPost})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, *delays, 1)
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}, zerolog.Nop())

	limited := func(headers map[string]string) *HTTPResponse {
		return &HTTPResponse{StatusCode: http.StatusTooManyRequests, Headers: headers}
	}

	tests := []struct {
		name    string
		attempt int
		resp    *HTTPResponse
		want    time.Duration
	}{
		{"first backoff", 0, nil, 100 * time.Millisecond},
		{"doubles", 2, nil, 400 * time.Millisecond},
		{"capped", 10, nil, 2 * time.Second},
		{"retry after", 0, limited(map[string]string{"Retry-After": "1.5"}), 1500 * time.Millisecond},
		{"reset after wins", 0, limited(map[string]string{"Retry-After": "1", "X-Ratelimit-Reset-After": "0.25"}), 250 * time.Millisecond},
		{"hint capped", 0, limited(map[string]string{"Retry-After": "60"}), 2 * time.Second},
		{"unparsable hint", 1, limited(map[string]string{"Retry-After": "soon"}), 200 * time.Millisecond},
		{"hint ignored off 429", 0, &HTTPResponse{StatusCode: http.StatusBadGateway, Headers: map[string]string{"Retry-After": "1"}}, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rh.CalculateDelay(tt.attempt, tt.resp))
		})
	}
}

func TestRetryHandler_Jitter(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		EnableJitter: true,
	}, zerolog.Nop())

	for range 20 {
		d := rh.CalculateDelay(0, nil)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 1100*time.Millisecond)
	}
}
