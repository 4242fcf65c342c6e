package blocklist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAddContains(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	ok, err := m.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Add(ctx, "t1"))
	ok, err = m.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	// adding twice stays a single live entry
	require.NoError(t, m.Add(ctx, "t1"))
	ok, err = m.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Contains(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(20 * time.Millisecond)

	require.NoError(t, m.Add(ctx, "short"))
	ok, err := m.Contains(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, err = m.Contains(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	// a later Add sweeps the dead entry out of the map
	require.NoError(t, m.Add(ctx, "other"))
	m.mu.RLock()
	_, stillThere := m.entries["short"]
	m.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := fmt.Sprintf("token-%d", n%8)
			_ = m.Add(ctx, token)
			_, _ = m.Contains(ctx, token)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		ok, err := m.Contains(ctx, fmt.Sprintf("token-%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
