package sharedpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := New(4, 8)
	defer p.Stop()

	var count atomic.Int64
	done := make(chan struct{})
	const n = 20
	for i := 0; i < n; i++ {
		p.Submit(func(ctx context.Context) {
			if count.Add(1) == n {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks to complete")
	}
	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ActiveWorkersBoundedBySize(t *testing.T) {
	p := New(2, 8)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		p.Submit(func(ctx context.Context) {
			started <- struct{}{}
			<-release
		})
	}
	<-started
	<-started

	assert.Eventually(t, func() bool { return p.ActiveWorkers() == 2 }, time.Second, 10*time.Millisecond)
	close(release)
}

func TestPool_StopIsIdempotentAndWaitsForWorkers(t *testing.T) {
	p := New(2, 4)
	var ran atomic.Bool
	p.Submit(func(ctx context.Context) { ran.Store(true) })

	p.Stop()
	p.Stop() // must not panic or block
	assert.True(t, ran.Load())
}
