// File: internal/marquee/hover_test.go
package marquee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

// newHoverFixture builds a MemDOM-backed hover manager plus one track whose
// rendered transform can be set directly.
func newHoverFixture(t *testing.T, d Direction) (*HoverManager, *render.MemDOM, *ScrollTrack) {
	t.Helper()
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	track, err := newTrack(mem, container, []string{"a", "b"}, 150, d)
	require.NoError(t, err)
	return NewHoverManager(mem, zap.NewNop()), mem, track
}

func TestParseTransformPosition(t *testing.T) {
	tests := []struct {
		value   string
		want    float64
		wantErr bool
	}{
		{"translateX(-42.5px)", 42.5, false},
		{"translateY(-10px)", 10, false},
		{"translateX(15px)", -15, false},
		{"", 0, true},
		{"none", 0, true},
		{"rotate(45deg)", 0, true},
	}
	for _, tc := range tests {
		got, err := parseTransformPosition(tc.value)
		if tc.wantErr {
			assert.Error(t, err, tc.value)
			continue
		}
		require.NoError(t, err, tc.value)
		assert.Equal(t, tc.want, got, tc.value)
	}
}

func TestCapturePosition_FromRenderedTransform(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 99 // stale on purpose
	require.NoError(t, mem.ApplyTransform(track.Content1, "translateX(-42px)"))

	assert.Equal(t, 42.0, h.CapturePosition(track, DirectionLeft))
}

func TestCapturePosition_FallsBackToLogical(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 17

	// No transform rendered yet: parse fails, logical wins.
	assert.Equal(t, 17.0, h.CapturePosition(track, DirectionLeft))

	// Renderer read failure: logical wins too.
	mem.FailRead = true
	assert.Equal(t, 17.0, h.CapturePosition(track, DirectionLeft))
}

func TestSnapshot(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionUp)
	track.LogicalPosition = 30
	require.NoError(t, mem.ApplyTransform(track.Content1, "translateY(-31px)"))
	require.NoError(t, mem.ApplyTransform(track.Content2, "translateY(-31px)"))

	snap := h.Snapshot(track, DirectionUp)
	assert.Equal(t, 30.0, snap.LogicalPosition)
	assert.Equal(t, 31.0, snap.TransformPosition)
	assert.Equal(t, "translateY(-31px)", snap.Content1Transform)
	assert.Equal(t, "translateY(-31px)", snap.Content2Transform)
	assert.Equal(t, DirectionUp, snap.Direction)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestPauseAt_AdoptsRenderedPosition(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 10
	require.NoError(t, mem.ApplyTransform(track.Content1, "translateX(-13px)"))

	require.NoError(t, h.PauseAt(track, DirectionLeft))
	assert.Equal(t, 13.0, track.LogicalPosition, "resume must start from what is on screen")

	// Both blocks are reapplied consistently with the corrected logical value.
	el1, _ := mem.Element(track.Content1)
	el2, _ := mem.Element(track.Content2)
	assert.Equal(t, "translateX(-13px)", el1.Transform)
	assert.Equal(t, "translateX(-13px)", el2.Transform)
}

func TestPauseAt_CaptureFailureKeepsLogical(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 10
	mem.FailRead = true

	require.NoError(t, h.PauseAt(track, DirectionLeft))
	assert.Equal(t, 10.0, track.LogicalPosition)

	el1, _ := mem.Element(track.Content1)
	assert.Equal(t, "translateX(-10px)", el1.Transform)
}

func TestResumeFrom_SynchronizesOnDrift(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 10
	require.NoError(t, mem.ApplyTransform(track.Content1, "translateX(-25px)"))

	require.NoError(t, h.ResumeFrom(track, DirectionLeft))
	assert.Equal(t, 25.0, track.LogicalPosition)
}

func TestResumeFrom_WithinEpsilonKeepsLogical(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	track.LogicalPosition = 10
	require.NoError(t, mem.ApplyTransform(track.Content1, "translateX(-10.2px)"))

	require.NoError(t, h.ResumeFrom(track, DirectionLeft))
	assert.Equal(t, 10.0, track.LogicalPosition)
}

func TestResumeFrom_ReadFailure(t *testing.T) {
	h, mem, track := newHoverFixture(t, DirectionLeft)
	mem.FailRead = true
	assert.Error(t, h.ResumeFrom(track, DirectionLeft))
}

func TestValidateContinuity(t *testing.T) {
	base := PositionSnapshot{
		LogicalPosition:   10,
		TransformPosition: 10,
		Timestamp:         time.Now(),
		Direction:         DirectionLeft,
	}

	t.Run("clean boundary", func(t *testing.T) {
		after := base
		after.Timestamp = base.Timestamp.Add(50 * time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 0)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Issues)
	})

	t.Run("logical jump", func(t *testing.T) {
		after := base
		after.LogicalPosition = 30
		after.Timestamp = base.Timestamp.Add(time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 5)
		assert.False(t, res.Valid)
		assert.Equal(t, 20.0, res.PositionDifference)
		assert.Contains(t, res.Issues, "Logical position jump detected: 20px")
	})

	t.Run("transform jump", func(t *testing.T) {
		after := base
		after.TransformPosition = 40
		after.Timestamp = base.Timestamp.Add(time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 5)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Issues, "Transform position jump detected: 30px")
	})

	t.Run("direction change only", func(t *testing.T) {
		after := base
		after.Direction = DirectionUp
		after.Timestamp = base.Timestamp.Add(time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 5)
		assert.False(t, res.Valid)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, "Direction changed during pause: left -> up", res.Issues[0])
	})

	t.Run("timestamps out of order", func(t *testing.T) {
		after := base
		after.Timestamp = base.Timestamp.Add(-20 * time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 5)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Issues, "Invalid timestamp sequence: -20ms")
	})

	t.Run("issues compose", func(t *testing.T) {
		after := base
		after.LogicalPosition = 100
		after.TransformPosition = 100
		after.Direction = DirectionDown
		after.Timestamp = base.Timestamp.Add(-time.Millisecond)
		res := NewHoverManager(nil, nil).ValidateContinuity(base, after, 5)
		assert.False(t, res.Valid)
		assert.Len(t, res.Issues, 4)
	})
}

func TestBatchManage(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	h := NewHoverManager(mem, zap.NewNop())

	var tracks []*ScrollTrack
	for i := 0; i < 3; i++ {
		track, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
		require.NoError(t, err)
		require.NoError(t, mem.ApplyTransform(track.Content1, "translateX(-5px)"))
		tracks = append(tracks, track)
	}

	outcome := h.BatchManage(tracks, DirectionLeft, BatchPause)
	assert.Equal(t, 3, outcome.Successful)
	assert.Zero(t, outcome.Failed)
	assert.GreaterOrEqual(t, outcome.TotalTime.Nanoseconds(), int64(0))
}

func TestBatchManage_IsolatesFailures(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	h := NewHoverManager(mem, zap.NewNop())

	good, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
	require.NoError(t, err)
	require.NoError(t, mem.ApplyTransform(good.Content1, "translateX(-5px)"))

	// A released track's reads fail without stopping the batch.
	bad, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
	require.NoError(t, err)
	bad.release(mem)

	outcome := h.BatchManage([]*ScrollTrack{bad, good}, DirectionLeft, BatchResume)
	assert.Equal(t, 1, outcome.Successful)
	assert.Equal(t, 1, outcome.Failed)
}

func TestBatchManage_UnknownOperation(t *testing.T) {
	h, _, track := newHoverFixture(t, DirectionLeft)
	outcome := h.BatchManage([]*ScrollTrack{track}, DirectionLeft, BatchOperation("tilt"))
	assert.Equal(t, 1, outcome.Failed)
}

func TestStats(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	h := NewHoverManager(mem, zap.NewNop())

	var tracks []*ScrollTrack
	for _, px := range []float64{-10, -20, -30} {
		track, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
		require.NoError(t, err)
		value, verr := TransformValue(px, DirectionLeft)
		require.NoError(t, verr)
		require.NoError(t, mem.ApplyTransform(track.Content1, value))
		tracks = append(tracks, track)
	}

	// One failing capture still counts toward TotalStates.
	failing, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
	require.NoError(t, err)
	tracks = append(tracks, failing)

	stats := h.Stats(tracks, DirectionLeft)
	assert.Equal(t, 4, stats.TotalStates)
	assert.Equal(t, 3, stats.ValidPositions)
	assert.InDelta(t, -20.0, stats.AveragePosition, 1e-9)
	assert.Equal(t, -30.0, stats.PositionRange.Min)
	assert.Equal(t, -10.0, stats.PositionRange.Max)
}

func TestStats_NoValidCaptures(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	h := NewHoverManager(mem, zap.NewNop())

	track, err := newTrack(mem, container, []string{"a"}, 100, DirectionLeft)
	require.NoError(t, err)

	stats := h.Stats([]*ScrollTrack{track}, DirectionLeft)
	assert.Equal(t, 1, stats.TotalStates)
	assert.Zero(t, stats.ValidPositions)
	assert.Zero(t, stats.AveragePosition)
}
