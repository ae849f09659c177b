package dimension

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetPut(t *testing.T) {
	c := NewCache[int64]("blocks", 4, nil)

	_, ok := c.Get("stone")
	assert.False(t, ok)

	c.Put("stone", 1)
	v, ok := c.Get("stone")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	c.Put("stone", 2)
	v, _ = c.Get("stone")
	assert.Equal(t, int64(2), v)
	assert.Equal(t, 1, c.Len())

	s := c.Stats()
	assert.Equal(t, "blocks", s.Name)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 2.0/3.0, s.HitRatio(), 0.0001)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[int64]("items", 2, nil)

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	s := c.Stats()
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, 2, s.Capacity)
}

func TestCache_MinimumCapacity(t *testing.T) {
	c := NewCache[string]("worlds", 0, nil)
	c.Put("a", "x")
	c.Put("b", "y")
	assert.Equal(t, 1, c.Len())
}

func TestCache_RemoveAndClear(t *testing.T) {
	c := NewCache[int64]("causes", 8, nil)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_GetOrComputeCaches(t *testing.T) {
	ctx := context.Background()
	c := NewCache[int64]("actions", 8, nil)
	calls := 0

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute(ctx, "block-break", func(context.Context) (int64, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	}
	assert.Equal(t, 1, calls)
}

func TestCache_GetOrComputeDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewCache[int64]("actions", 8, nil)
	boom := errors.New("boom")

	_, err := c.GetOrCompute(ctx, "k", func(context.Context) (int64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.GetOrCompute(ctx, "k", func(context.Context) (int64, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestCache_GetOrComputeSingleFlight(t *testing.T) {
	ctx := context.Background()
	c := NewCache[int64]("players", 8, nil)

	var calls atomic.Int32
	gate := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(ctx, "same", func(context.Context) (int64, error) {
				calls.Add(1)
				<-gate
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, int64(42), v)
	}
}

func TestCache_GetOrComputeCancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewCache[int64]("players", 8, nil)

	var calls atomic.Int32
	entered := make(chan struct{})
	gate := make(chan struct{})
	var computeErr error
	compute := func(ctx context.Context) (int64, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-gate
		computeErr = ctx.Err()
		return 42, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(ctx, "alex", compute)
		first <- err
	}()
	<-entered

	type result struct {
		v   int64
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.GetOrCompute(context.Background(), "alex", compute)
		second <- result{v, err}
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(gate)
	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, int64(42), r.v)
	assert.NoError(t, computeErr, "compute must not see the first caller's cancellation")
	assert.Equal(t, int32(1), calls.Load())

	v, ok := c.Get("alex")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestCache_GetOrComputeAppliesTimeout(t *testing.T) {
	c := NewCache[int64]("blocks", 8, nil)
	c.timeout = time.Minute

	var deadline time.Time
	var hasDeadline bool
	_, err := c.GetOrCompute(context.Background(), "stone", func(ctx context.Context) (int64, error) {
		deadline, hasDeadline = ctx.Deadline()
		return 1, nil
	})
	require.NoError(t, err)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestResolver_LookupTimeoutOption(t *testing.T) {
	r := NewResolver(nil, "", nil, DefaultCapacities(), nil, discardLogger(), WithLookupTimeout(3*time.Second))
	for _, d := range r.timeouts() {
		assert.Equal(t, 3*time.Second, *d)
	}
}
