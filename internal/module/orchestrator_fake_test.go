package module

import (
	"context"
	"sync"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

// fakeOrchestrator is a minimal in-memory stand-in for the scan
// orchestrator, scoped to exactly the surface the runtime consumes.
// Other orchestrators (internal/devscan, or a real scan engine)
// implement the same interface.
type fakeOrchestrator struct {
	mu            sync.Mutex
	stopping      bool
	status        ScanStatus
	scopeDistance int
	emitErr       error
	emitted       []*types.Event
	consumed      []consumedRecord
	catchCalls    int
}

type consumedRecord struct {
	event  *types.Event
	module string
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{status: ScanRunning}
}

func (f *fakeOrchestrator) Stopping() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopping
}

func (f *fakeOrchestrator) setStopping(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopping = v
}

func (f *fakeOrchestrator) Status() ScanStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeOrchestrator) setStatus(s ScanStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeOrchestrator) ScopeSearchDistance() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scopeDistance
}

func (f *fakeOrchestrator) MakeEvent(eventType string, source *types.Event, producer string, tags ...string) (*types.Event, error) {
	return types.NewEvent(eventType, source, producer, tags...)
}

func (f *fakeOrchestrator) EmitEvent(ctx context.Context, e *types.Event, abortIf func() bool, onSuccess func(), quick bool) error {
	if abortIf != nil && abortIf() {
		return nil
	}
	f.mu.Lock()
	if f.emitErr != nil {
		err := f.emitErr
		f.mu.Unlock()
		return err
	}
	f.emitted = append(f.emitted, e)
	f.mu.Unlock()
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

func (f *fakeOrchestrator) emittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emitted)
}

func (f *fakeOrchestrator) Catch(ctx context.Context, fn func(ctx context.Context) error, opts CatchOptions) {
	f.mu.Lock()
	f.catchCalls++
	f.mu.Unlock()
	func() {
		defer func() { recover() }()
		_ = fn(ctx)
	}()
	if opts.OnFinishCallback != nil {
		opts.OnFinishCallback()
	}
}

func (f *fakeOrchestrator) EventConsumed(e *types.Event, moduleName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed = append(f.consumed, consumedRecord{event: e, module: moduleName})
}
