package realtime

import (
	"sync"
	"testing"
	"time"
)

// manualTimers подменяет time.AfterFunc: вызовы выполняются только по fire().
type manualTimers struct {
	calls     []*manualCall
	durations []time.Duration
	mu        sync.Mutex
}

type manualCall struct {
	fn        func()
	cancelled bool
}

func (mt *manualTimers) after(d time.Duration, fn func()) func() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	call := &manualCall{fn: fn}
	mt.calls = append(mt.calls, call)
	mt.durations = append(mt.durations, d)

	return func() bool {
		mt.mu.Lock()
		defer mt.mu.Unlock()
		was := !call.cancelled
		call.cancelled = true
		return was
	}
}

func (mt *manualTimers) fire() {
	mt.mu.Lock()
	calls := mt.calls
	mt.calls = nil
	mt.mu.Unlock()

	for _, c := range calls {
		if !c.cancelled {
			c.fn()
		}
	}
}

func fixedClock() func() time.Time {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *manualTimers) {
	t.Helper()
	timers := &manualTimers{}
	base := []Option{
		WithSequencer(NewSequencerWithNodeID("test")),
		WithClock(fixedClock()),
		WithAfterFunc(timers.after),
	}
	return NewManager(append(base, opts...)...), timers
}

func patch(values State) Patch {
	return Patch{Values: values}
}
