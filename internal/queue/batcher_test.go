package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

func TestBatcher_FlushesOnceBatchSizeReached(t *testing.T) {
	q := New()
	b := NewBatcher(q, 2, time.Hour, nil, nil)
	assert.False(t, b.ShouldFlush())

	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	assert.False(t, b.ShouldFlush())

	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	assert.True(t, b.ShouldFlush())
}

func TestBatcher_FlushesOnIdleTimeout(t *testing.T) {
	q := New()
	b := NewBatcher(q, 10, 10*time.Millisecond, nil, nil)
	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	assert.False(t, b.ShouldFlush())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.ShouldFlush())
}

func TestBatcher_FlushesWhenScanFinishing(t *testing.T) {
	q := New()
	finishing := true
	b := NewBatcher(q, 10, time.Hour, func() bool { return finishing }, nil)
	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	assert.True(t, b.ShouldFlush())
}

func TestBatcher_FlushesOnGlobalStalemate(t *testing.T) {
	q := New()
	b := NewBatcher(q, 10, time.Hour, nil, func() bool { return true })
	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	assert.True(t, b.ShouldFlush())
}

func TestBatcher_NeverFlushesAnEmptyQueue(t *testing.T) {
	q := New()
	b := NewBatcher(q, 10, time.Hour, func() bool { return true }, func() bool { return true })
	assert.False(t, b.ShouldFlush())
}

func TestBatcher_DrainDelegatesToQueue(t *testing.T) {
	q := New()
	b := NewBatcher(q, 2, time.Hour, nil, nil)
	q.Push(types.EventItem(mustEvent(t, "DNS_NAME")))
	q.Push(types.TokenItem(types.Finish))

	events, finish, _ := b.Drain()
	require.Len(t, events, 1)
	assert.True(t, finish)
}
