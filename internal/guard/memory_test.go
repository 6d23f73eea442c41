package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouteKey(t *testing.T) {
	assert.Equal(t, RouteKey("POST+/orders"), NewRouteKey("POST", "/orders"))
	assert.NotEqual(t, NewRouteKey("POST", "/orders"), NewRouteKey("POST", "/orders/1"))
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	key := NewRouteKey("POST", "/orders")

	t.Run("FirstAcquireAccepted", func(t *testing.T) {
		reg := NewMemoryRegistry()

		lease, err := reg.Acquire(ctx, key, "abc")
		require.NoError(t, err)
		assert.Equal(t, key, lease.Key)
		assert.Equal(t, "abc", lease.Token)
		assert.NotEmpty(t, lease.ID)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("SameTokenIsDuplicate", func(t *testing.T) {
		reg := NewMemoryRegistry()

		_, err := reg.Acquire(ctx, key, "abc")
		require.NoError(t, err)

		_, err = reg.Acquire(ctx, key, "abc")
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("DifferentTokenSupersedes", func(t *testing.T) {
		reg := NewMemoryRegistry()

		first, err := reg.Acquire(ctx, key, "x1")
		require.NoError(t, err)
		second, err := reg.Acquire(ctx, key, "x2")
		require.NoError(t, err)

		current, ok, err := reg.Current(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, second, current)

		// Release старого origin'а не трогает новую запись.
		removed, err := reg.Release(ctx, first)
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = reg.Acquire(ctx, key, "x2")
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("ReleaseClearsEntry", func(t *testing.T) {
		reg := NewMemoryRegistry()

		lease, err := reg.Acquire(ctx, key, "abc")
		require.NoError(t, err)

		removed, err := reg.Release(ctx, lease)
		require.NoError(t, err)
		assert.True(t, removed)

		_, ok, err := reg.Current(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = reg.Acquire(ctx, key, "abc")
		assert.NoError(t, err)
	})

	t.Run("RoutesAreIndependent", func(t *testing.T) {
		reg := NewMemoryRegistry()

		_, err := reg.Acquire(ctx, NewRouteKey("POST", "/a"), "same")
		require.NoError(t, err)
		_, err = reg.Acquire(ctx, NewRouteKey("POST", "/b"), "same")
		assert.NoError(t, err)
	})
}

func TestMemoryRegistry_ConcurrentSameToken(t *testing.T) {
	reg := NewMemoryRegistry()
	key := NewRouteKey("POST", "/orders")

	const workers = 64
	var accepted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := reg.Acquire(context.Background(), key, "abc"); err == nil {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}
