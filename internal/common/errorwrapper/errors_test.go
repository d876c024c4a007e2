package errorwrapper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		not  []error
	}{
		{"validation", NilArgument("file"), ErrInvalidArgument, []error{ErrInvalidState, ErrInvariantViolation}},
		{"state", NewStateError("send", "channel not cached"), ErrInvalidState, []error{ErrInvalidArgument, ErrInvariantViolation}},
		{"invariant", NewInvariantError("no echoed message"), ErrInvariantViolation, []error{ErrInvalidArgument, ErrInvalidState}},
		{"network", NewNetworkError("http://x", "dial", errors.New("refused")), ErrNetworkFailure, []error{ErrInvalidState}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, "outer")
			assert.ErrorIs(t, wrapped, tt.kind)
			for _, other := range tt.not {
				assert.NotErrorIs(t, wrapped, other)
			}
		})
	}
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestIsInvariantViolation(t *testing.T) {
	assert.True(t, IsInvariantViolation(WrapError(NewInvariantError("x"), "send")))
	assert.False(t, IsInvariantViolation(NewStateError("send", "x")))
}

func TestHTTPError_Message(t *testing.T) {
	err := NewHTTPErrorWithURL(404, "Unknown Channel", "https://discord.com/api/v10/channels/1/messages")
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "Unknown Channel")

	var httpErr *HTTPError
	assert.True(t, errors.As(WrapError(err, "send"), &httpErr))
	assert.Equal(t, 404, httpErr.StatusCode)
}
