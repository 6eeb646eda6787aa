package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_AcquireRelease(t *testing.T) {
	g := New(2)
	ctx := context.Background()
	notStopping := func() bool { return false }

	require.True(t, g.Acquire(ctx, notStopping))
	assert.Equal(t, 1, g.InFlight())
	require.True(t, g.Acquire(ctx, notStopping))
	assert.Equal(t, 2, g.InFlight())

	g.Release()
	assert.Equal(t, 1, g.InFlight())
	g.Release()
	assert.Equal(t, 0, g.InFlight())
}

func TestGate_ReleaseWithoutPermitIsNoop(t *testing.T) {
	g := New(1)
	assert.NotPanics(t, func() { g.Release() })
	assert.Equal(t, 0, g.InFlight())
}

// TestGate_BacksPressureUntilRelease mirrors the capacity=2 backpressure
// scenario: a third acquirer must block until a held permit is released.
func TestGate_BacksPressureUntilRelease(t *testing.T) {
	g := New(2)
	ctx := context.Background()
	notStopping := func() bool { return false }

	require.True(t, g.Acquire(ctx, notStopping))
	require.True(t, g.Acquire(ctx, notStopping))

	var thirdAcquired atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if g.Acquire(ctx, notStopping) {
			thirdAcquired.Store(true)
		}
	}()

	time.Sleep(150 * time.Millisecond)
	assert.False(t, thirdAcquired.Load(), "third acquire must not succeed while gate is saturated")

	g.Release()
	wg.Wait()
	assert.True(t, thirdAcquired.Load(), "third acquire must succeed once a permit frees up")
}

func TestGate_AbortsWhenStopping(t *testing.T) {
	g := New(1)
	ctx := context.Background()
	require.True(t, g.Acquire(ctx, func() bool { return false }))

	stopping := func() bool { return true }
	acquired := g.Acquire(ctx, stopping)
	assert.False(t, acquired)
	assert.Equal(t, 1, g.InFlight(), "failed acquire must not hold a permit")
}

func TestGate_AbortsOnContextCancel(t *testing.T) {
	g := New(1)
	require.True(t, g.Acquire(context.Background(), func() bool { return false }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acquired := g.Acquire(ctx, func() bool { return false })
	assert.False(t, acquired)
}

func TestGate_DefaultsCapacityToOne(t *testing.T) {
	g := New(0)
	assert.Equal(t, 1, g.Capacity())
}
