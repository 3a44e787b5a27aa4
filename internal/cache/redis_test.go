package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := New("localhost:0", false)
	assert.False(t, c.Enabled())

	_, ok := c.Get(context.Background(), "key")
	assert.False(t, ok)
}

func TestDisabledCacheSetIsNoOp(t *testing.T) {
	c := New("localhost:0", false)
	// Set must not panic or dial when disabled.
	c.Set(context.Background(), "key", "value", time.Minute)
}

func TestDisabledCachePingSucceeds(t *testing.T) {
	c := New("localhost:0", false)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestEnabledCacheReportsMissOnUnreachableServer(t *testing.T) {
	// Nothing listens on port 1; Get must degrade to a miss
	// rather than surface the dial error to the caller.
	c := New("127.0.0.1:1", true)
	assert.True(t, c.Enabled())

	_, ok := c.Get(context.Background(), "key")
	assert.False(t, ok)
}

func TestEnabledCachePingFailsOnUnreachableServer(t *testing.T) {
	c := New("127.0.0.1:1", true)
	assert.Error(t, c.Ping(context.Background()))
}
