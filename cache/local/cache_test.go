package local

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "draft:1:main", `{"name":"Razor"}`, 0))
	v, err := c.Get(ctx, "draft:1:main")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Razor"}`, v)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "revoked:abc", "1", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "revoked:abc")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "revoked:abc")
	assert.False(t, ok)
}

func TestExpireAppliesToHashes(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "drafts:1", "main", "100"))
	require.NoError(t, c.Expire(ctx, "drafts:1", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	all, err := c.HGetAll(ctx, "drafts:1")
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, c.Expire(ctx, "nothing", time.Second), ErrNotFound)
}

func TestDelAndSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock:prune", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, "lock:prune", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "already held")

	require.NoError(t, c.Del(ctx, "lock:prune"))
	ok, _ = c.SetNX(ctx, "lock:prune", "b", time.Minute)
	assert.True(t, ok)
}

func TestHash(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "h", "f1", "v1"))
	require.NoError(t, c.HSet(ctx, "h", "f2", "v2"))

	v, err := c.HGet(ctx, "h", "f1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	all, err := c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, all)

	require.NoError(t, c.HDel(ctx, "h", "f1", "f2"))
	_, err = c.HGet(ctx, "h", "f1")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "h")
	assert.False(t, ok, "empty hash is removed")
}

func TestWrongType(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	assert.ErrorIs(t, c.HSet(ctx, "k", "f", "v"), ErrWrongType)
	assert.ErrorIs(t, c.ZAdd(ctx, "k", 1, "m"), ErrWrongType)
	require.NoError(t, c.HSet(ctx, "h", "f", "v"))
	_, err := c.Get(ctx, "h")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestZSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "z", 300, "c"))
	require.NoError(t, c.ZAdd(ctx, "z", 100, "a"))
	require.NoError(t, c.ZAdd(ctx, "z", 200, "b"))
	require.NoError(t, c.ZAdd(ctx, "z", 100, "a2"))

	members, err := c.ZRangeByScore(ctx, "z", math.Inf(-1), 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a2", "b"}, members)

	score, err := c.ZScore(ctx, "z", "c")
	require.NoError(t, err)
	assert.Equal(t, float64(300), score)

	require.NoError(t, c.ZRem(ctx, "z", "a", "a2", "b", "c"))
	members, err = c.ZRangeByScore(ctx, "z", math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	assert.Empty(t, members)
	_, err = c.ZScore(ctx, "z", "c")
	assert.ErrorIs(t, err, ErrNotFound)
}
