package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindConnection, true},
		{KindTimeout, true},
		{KindRateLimited, true},
		{KindOverload, true},
		{KindValidation, false},
		{KindNotFound, false},
		{KindConfiguration, false},
		{KindSerialization, false},
		{KindInternal, false},
	}

	for _, tc := range cases {
		err := New(tc.kind, "boom")
		assert.Equal(t, tc.want, err.Retryable(), "kind=%s", tc.kind)
		assert.Equal(t, tc.want, Retryable(err), "kind=%s", tc.kind)
	}
}

func TestRetryableNonApierr(t *testing.T) {
	assert.False(t, Retryable(errors.New("plain error")))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindConnection, "dial postgres", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestIsMatchesByKind(t *testing.T) {
	sentinel := New(KindNotFound, "")
	err := New(KindNotFound, "span 123 not found")

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(KindValidation, "")))
}

func TestEnvelopeFor(t *testing.T) {
	env := EnvelopeFor(New(KindValidation, "time range too large"))
	assert.Equal(t, "validation_error", env.Error)
	assert.Equal(t, "time range too large", env.Message)

	env = EnvelopeFor(errors.New("raw error"))
	assert.Equal(t, "server_error", env.Error)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, KindValidation.HTTPStatus())
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, 500, KindInternal.HTTPStatus())
	assert.Equal(t, 429, KindRateLimited.HTTPStatus())
}
