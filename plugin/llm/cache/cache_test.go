package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", []byte("v"), 0)
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", []byte("v1"), 0)
	c.Set("k", []byte("v2"), 0)

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v2"), got)
	require.Equal(t, 1, c.Size())
}

func TestCacheTTLExpiration(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	c := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"), 0)
	}
	// Touch k0 so k1 becomes the eviction candidate.
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", []byte("v"), 0)
	require.Equal(t, 3, c.Size())

	_, ok = c.Get("k1")
	require.False(t, ok)
	_, ok = c.Get("k0")
	require.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", []byte("v"), 0)
	c.Clear()
	require.Equal(t, 0, c.Size())
}
