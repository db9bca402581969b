package client

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.Set(ctx, "/requests/", []byte("a"), time.Minute)
	c.Set(ctx, "/requests/1/", []byte("b"), time.Minute)
	c.Set(ctx, "/requests/?status=Pending", []byte("c"), time.Minute)
	c.Set(ctx, "/items/", []byte("d"), time.Minute)

	c.DeletePrefix(ctx, "/requests/")
	assert.Equal(t, 1, c.Len())
	v, ok := c.Get(ctx, "/items/")
	assert.True(t, ok)
	assert.Equal(t, "d", string(v))

	c.Clear(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_ExpiryRemovesEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Second)
	now = now.Add(time.Second)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `rentsnap:cache:/items/\?search=\*`, globEscape("rentsnap:cache:/items/?search=*"))
	assert.Equal(t, `a\[1\]`, globEscape("a[1]"))
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	c := NewRedisCache(rdb, "rentsnap:test:"+time.Now().Format("150405.000")+":")
	defer c.Clear(ctx)

	c.Set(ctx, "/requests/1/", []byte("one"), time.Minute)
	c.Set(ctx, "/items/?search=*", []byte("two"), time.Minute)

	v, ok := c.Get(ctx, "/requests/1/")
	require.True(t, ok)
	assert.Equal(t, "one", string(v))

	c.DeletePrefix(ctx, "/requests/")
	_, ok = c.Get(ctx, "/requests/1/")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "/items/?search=*")
	assert.True(t, ok)
}
