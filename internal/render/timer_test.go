// File: internal/render/timer_test.go
package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTimerScheduler_FiresCallback(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{})

	h := s.Schedule(time.Millisecond, func() { close(fired) })
	require.NotEqual(t, NoHandle, h)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	assert.Eventually(t, func() bool { return s.PendingCount() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestTimerScheduler_CancelPreventsFiring(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{})

	h := s.Schedule(50*time.Millisecond, func() { close(fired) })
	s.Cancel(h)
	assert.Zero(t, s.PendingCount())

	select {
	case <-fired:
		t.Fatal("cancelled callback fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerScheduler_CancelUnknownHandleIsNoop(t *testing.T) {
	s := NewTimerScheduler()
	assert.NotPanics(t, func() { s.Cancel(Handle(42)) })
}

func TestTimerScheduler_ZeroDelayLeavesNoStaleEntries(t *testing.T) {
	s := NewTimerScheduler()
	done := make(chan struct{}, 64)

	// An immediately dispatched callback must find its own registration;
	// otherwise its cleanup is a no-op and the entry leaks forever.
	for i := 0; i < 64; i++ {
		s.Schedule(0, func() { done <- struct{}{} })
	}
	for i := 0; i < 64; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("callback never fired")
		}
	}

	assert.Eventually(t, func() bool { return s.PendingCount() == 0 },
		time.Second, 5*time.Millisecond,
		"all fired callbacks must remove their pending entries")
}

func TestTimerScheduler_ZeroDelayIsPaced(t *testing.T) {
	s := NewTimerScheduler()
	done := make(chan struct{}, 3)

	// The limiter allows one immediate fire; subsequent zero-delay requests
	// must be spaced out rather than firing back to back.
	start := time.Now()
	for i := 0; i < 3; i++ {
		s.Schedule(0, func() { done <- struct{}{} })
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("paced callback never fired")
		}
	}
	assert.GreaterOrEqual(t, time.Since(start), time.Second/maxTickRate)
}
