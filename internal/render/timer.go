// internal/render/timer.go
package render

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTickRate caps how often the timer scheduler will fire when a caller
// requests a zero delay. Without a floor a zero stepWait would spin the tick
// loop as fast as the runtime allows.
const maxTickRate = 240

// TimerScheduler implements Scheduler on top of time.AfterFunc, with a rate
// limiter acting as a pacing floor for zero-delay requests.
type TimerScheduler struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]*time.Timer
	limiter *rate.Limiter
}

var _ Scheduler = (*TimerScheduler)(nil)

// NewTimerScheduler creates a scheduler pacing zero-delay ticks at
// maxTickRate per second.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		pending: make(map[Handle]*time.Timer),
		limiter: rate.NewLimiter(rate.Limit(maxTickRate), 1),
	}
}

func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	if delay <= 0 {
		// Pace unbounded callers instead of spinning.
		delay = s.limiter.Reserve().Delay()
	}

	// The handle must be registered before the timer can fire: a zero delay
	// dispatches immediately, and its cleanup would otherwise race the
	// insertion and leave a stale entry behind. The callback blocks on the
	// lock until registration is complete.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.pending[h] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, h)
		s.mu.Unlock()
		fn()
	})
	return h
}

func (s *TimerScheduler) Cancel(h Handle) {
	s.mu.Lock()
	t, ok := s.pending[h]
	if ok {
		delete(s.pending, h)
	}
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// PendingCount reports how many callbacks are scheduled but not yet fired.
func (s *TimerScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
