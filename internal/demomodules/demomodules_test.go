package demomodules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/scanrunner/internal/devscan"
	"github.com/ChuLiYu/scanrunner/internal/logging"
	"github.com/ChuLiYu/scanrunner/internal/module"
	"github.com/ChuLiYu/scanrunner/internal/sharedpool"
	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// eventSink collects routed events under a mutex, since module handlers
// run on shared-pool goroutines concurrently with the test's assertions.
type eventSink struct {
	mu     sync.Mutex
	events []*types.Event
}

func (s *eventSink) add(e *types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) snapshot() []*types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestReport_RecordAndLines(t *testing.T) {
	r := &Report{}
	e, err := types.NewEvent("DNS_NAME", nil, "seed", "target")
	require.NoError(t, err)
	e.Key = "example.com"

	r.Record(e)
	r.Record(e)

	lines := r.Lines()
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DNS_NAME")
	assert.Contains(t, lines[0], "example.com")
}

func TestBuildSubdomainEnumerator_EmitsThreeDistinctChildren(t *testing.T) {
	mainPool := sharedpool.New(4, 32)
	internalPool := sharedpool.New(4, 32)
	defer mainPool.Stop()
	defer internalPool.Stop()
	registry := module.NewRegistry()

	sink := &eventSink{}
	scan := devscan.New(3, []string{"example.com"}, logging.Background(), sink.add)

	mod, err := BuildSubdomainEnumerator(scan, mainPool, internalPool, registry, logging.Background(), nil)
	require.NoError(t, err)

	mod.Setup(context.Background())
	mod.Start(context.Background())
	defer mod.Cleanup(context.Background())

	seed, err := scan.MakeEvent("DNS_NAME", nil, "seed", "target")
	require.NoError(t, err)
	seed.Key = "example.com"
	mod.QueueItem(types.EventItem(seed))

	assert.Eventually(t, func() bool { return len(sink.snapshot()) >= 3 }, time.Second, 5*time.Millisecond)

	seen := make(map[string]bool)
	for _, e := range sink.snapshot() {
		seen[e.Key] = true
	}
	assert.True(t, seen["www.example.com"])
	assert.True(t, seen["api.example.com"])
	assert.True(t, seen["mail.example.com"])
}

func TestBuildSubdomainEnumerator_SkipsAlreadyGenerated(t *testing.T) {
	mainPool := sharedpool.New(4, 32)
	internalPool := sharedpool.New(4, 32)
	defer mainPool.Stop()
	defer internalPool.Stop()
	registry := module.NewRegistry()

	sink := &eventSink{}
	scan := devscan.New(3, nil, logging.Background(), sink.add)

	mod, err := BuildSubdomainEnumerator(scan, mainPool, internalPool, registry, logging.Background(), nil)
	require.NoError(t, err)

	mod.Setup(context.Background())
	mod.Start(context.Background())
	defer mod.Cleanup(context.Background())

	seed, err := scan.MakeEvent("DNS_NAME", nil, "seed", "target")
	require.NoError(t, err)
	seed.Key = "www.example.com"
	generated, err := scan.MakeEvent("DNS_NAME", seed, "subdomain_enum", "generated")
	require.NoError(t, err)
	generated.Key = "www.example.com"

	mod.QueueItem(types.EventItem(generated))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, len(sink.snapshot()))
}

func TestBuildResolver_EmitsResolvedIP(t *testing.T) {
	mainPool := sharedpool.New(4, 32)
	internalPool := sharedpool.New(4, 32)
	defer mainPool.Stop()
	defer internalPool.Stop()
	registry := module.NewRegistry()

	sink := &eventSink{}
	scan := devscan.New(3, nil, logging.Background(), sink.add)

	mod, err := BuildResolver(scan, mainPool, internalPool, registry, logging.Background(), map[string]map[string]any{
		"resolver": {"batch_size": 1},
	})
	require.NoError(t, err)

	mod.Setup(context.Background())
	mod.Start(context.Background())
	defer mod.Cleanup(context.Background())

	seed, err := scan.MakeEvent("DNS_NAME", nil, "seed", "target")
	require.NoError(t, err)
	seed.Key = "example.com"
	mod.QueueItem(types.EventItem(seed))

	assert.Eventually(t, func() bool { return len(sink.snapshot()) >= 1 }, time.Second, 5*time.Millisecond)
	routed := sink.snapshot()
	assert.Equal(t, "IP_ADDRESS", routed[0].Type)
	assert.Equal(t, "example.com-resolved", routed[0].Key)
}

func TestBuildReport_RecordsEveryWatchedEvent(t *testing.T) {
	mainPool := sharedpool.New(4, 32)
	internalPool := sharedpool.New(4, 32)
	defer mainPool.Stop()
	defer internalPool.Stop()
	registry := module.NewRegistry()
	scan := devscan.New(3, nil, logging.Background(), nil)
	report := &Report{}

	mod, err := BuildReport(scan, mainPool, internalPool, registry, logging.Background(), nil, report)
	require.NoError(t, err)

	mod.Setup(context.Background())
	mod.Start(context.Background())
	defer mod.Cleanup(context.Background())

	e, err := scan.MakeEvent("IP_ADDRESS", nil, "resolver", "target")
	require.NoError(t, err)
	e.Key = "93.184.216.34"
	mod.QueueItem(types.EventItem(e))

	assert.Eventually(t, func() bool { return len(report.Lines()) >= 1 }, time.Second, 5*time.Millisecond)
}
