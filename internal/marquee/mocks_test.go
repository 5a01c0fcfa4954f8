// File: internal/marquee/mocks_test.go
package marquee

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

// mockScheduler implements render.Scheduler with manual tick control. Tests
// drive the frame loop by calling Fire, which executes the oldest pending
// callback synchronously on the test goroutine.
type mockScheduler struct {
	mu        sync.Mutex
	next      render.Handle
	order     []render.Handle
	pending   map[render.Handle]func()
	cancelled []render.Handle
	delays    []time.Duration
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{pending: map[render.Handle]func(){}}
}

func (s *mockScheduler) Schedule(delay time.Duration, fn func()) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.pending[h] = fn
	s.order = append(s.order, h)
	s.delays = append(s.delays, delay)
	return h
}

func (s *mockScheduler) Cancel(h render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[h]; ok {
		delete(s.pending, h)
		s.cancelled = append(s.cancelled, h)
	}
}

// Fire runs the oldest pending callback, if any, and reports whether one ran.
func (s *mockScheduler) Fire() bool {
	s.mu.Lock()
	var fn func()
	for len(s.order) > 0 {
		h := s.order[0]
		s.order = s.order[1:]
		if f, ok := s.pending[h]; ok {
			delete(s.pending, h)
			fn = f
			break
		}
	}
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (s *mockScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *mockScheduler) cancelledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancelled)
}

// eventRecorder collects emitted events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Name    string
	Payload EventPayload
}

func (r *eventRecorder) sink() EventSink {
	return func(name string, payload EventPayload) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, recordedEvent{Name: name, Payload: payload})
	}
}

func (r *eventRecorder) named(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// newTestEngine builds an engine over a fresh MemDOM and mock scheduler with
// options suitable for most tests.
func newTestEngine(t *testing.T, mutate func(*Options)) (*Engine, *render.MemDOM, *mockScheduler, *eventRecorder) {
	t.Helper()

	mem := render.NewMemDOM(zap.NewNop())
	sched := newMockScheduler()
	rec := &eventRecorder{}

	opts := Options{
		Data:          []string{"one", "two", "three"},
		Direction:     DirectionLeft,
		Step:          5,
		ContentSize:   150,
		ContainerSize: 75,
		HoverStop:     true,
		OnEvent:       rec.sink(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	engine, err := NewEngine(mem, sched, mem.NewContainer(), opts, NewTransformCache(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(engine.Destroy)
	return engine, mem, sched, rec
}
