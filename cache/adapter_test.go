package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheFallsBackToLocal(t *testing.T) {
	c, err := NewCache(CacheConfig{LocalGCInterval: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
}

func TestLocalPubSubAdapter(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "character:1")
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, "character:1", "ack"))

	select {
	case msg := <-ch:
		assert.Equal(t, &Message{Channel: "character:1", Payload: "ack"}, msg)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
