package httpclient

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientBuilder(t *testing.T) {
	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithTimeout(5*time.Second).
		WithUserAgent("bot").
		WithHeader("X-One", "1").
		WithMaxContentSize(1024).
		WithHTTP2(false).
		WithRetry(RetryHandlerConfig{}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, client.config.Timeout)
	assert.Equal(t, 5*time.Second, client.client.Timeout)
	assert.Equal(t, "bot", client.config.UserAgent)
	assert.Equal(t, map[string]string{"X-One": "1"}, client.config.CustomHeaders)
	assert.Equal(t, 1024, client.config.MaxContentSize)
	assert.False(t, client.config.EnableHTTP2)
	assert.Nil(t, client.retry)
}

func TestHTTPClientBuilder_Defaults(t *testing.T) {
	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPClientConfig().Timeout, client.config.Timeout)
	require.NotNil(t, client.retry)
	assert.True(t, client.retry.retryable[429])
	assert.False(t, client.retry.retryable[500])
}

func TestHTTPClientBuilder_WithConfig(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRedirects = 2
	cfg.Retry.MaxRetries = 1

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithConfig(cfg).Build()
	require.NoError(t, err)
	assert.Equal(t, 2, client.config.MaxRedirects)
	require.NotNil(t, client.retry)
	assert.Equal(t, 1, client.retry.config.MaxRetries)
}
