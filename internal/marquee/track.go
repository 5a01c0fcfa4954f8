// internal/marquee/track.go
package marquee

import (
	"github.com/google/uuid"

	"github.com/xkilldash9x/marquee/internal/render"
)

// ScrollTrack is one independently animated pair of content blocks. The
// engine exclusively owns every track; hover operations mutate tracks only
// through engine-mediated calls. Invariant: Content2's static offset equals
// Content1's offset plus or minus the content size, chosen so the two blocks
// tile the scroll axis without a visible seam, and LogicalPosition stays
// finite at all times.
type ScrollTrack struct {
	// ID identifies the track in logs and event payloads.
	ID string

	// Content1 and Content2 are the two owned content block handles.
	Content1 render.Handle
	Content2 render.Handle

	// LogicalPosition is the authoritative tracked offset, independent of
	// what is currently rendered.
	LogicalPosition float64

	// AnimationHandle is the pending scheduler callback, or render.NoHandle.
	AnimationHandle render.Handle

	// Direction of motion for this track.
	Direction Direction

	// Running gates in-flight tick callbacks: a tick re-checks this flag
	// before mutating any rendered state, closing the race between a
	// just-issued pause and a callback already dispatched.
	Running bool
}

// newTrack creates the two content blocks for a track and positions them at
// the seamless initial offsets.
func newTrack(r render.Renderer, container render.Handle, items []string, contentSize float64, d Direction) (*ScrollTrack, error) {
	cfg, err := DirectionFor(d)
	if err != nil {
		return nil, err
	}
	initial, err := CalculateInitialPosition(contentSize, d)
	if err != nil {
		return nil, err
	}

	c1, err := r.CreateBlock(container, items)
	if err != nil {
		return nil, newCriticalErr(ErrCodeRendererFailure, err, "failed to create first content block")
	}
	c2, err := r.CreateBlock(container, items)
	if err != nil {
		r.Release(c1)
		return nil, newCriticalErr(ErrCodeRendererFailure, err, "failed to create second content block")
	}

	if err := r.SetOffset(c1, cfg.PositionProperty, initial.Content1); err != nil {
		r.Release(c1)
		r.Release(c2)
		return nil, newCriticalErr(ErrCodeRendererFailure, err, "failed to position first content block")
	}
	if err := r.SetOffset(c2, cfg.PositionProperty, initial.Content2); err != nil {
		r.Release(c1)
		r.Release(c2)
		return nil, newCriticalErr(ErrCodeRendererFailure, err, "failed to position second content block")
	}

	return &ScrollTrack{
		ID:        uuid.NewString(),
		Content1:  c1,
		Content2:  c2,
		Direction: d,
	}, nil
}

// release drops both content block handles.
func (t *ScrollTrack) release(r render.Renderer) {
	if t.Content1 != render.NoHandle {
		r.Release(t.Content1)
		t.Content1 = render.NoHandle
	}
	if t.Content2 != render.NoHandle {
		r.Release(t.Content2)
		t.Content2 = render.NoHandle
	}
}

// OptimizeSeamlessConnection recomputes Content2's static offset relative to
// Content1 so the two blocks tile without a visible seam after content
// dimensions change. The engine calls this opportunistically; any failure is
// classified as a position-related fault by the recovery classifier.
func (c *Calculator) OptimizeSeamlessConnection(r render.Renderer, track *ScrollTrack, contentSize float64) error {
	if track == nil {
		return newPositionErr(ErrCodeSeamOptimize, nil, "no track to optimize")
	}
	cfg, err := DirectionFor(track.Direction)
	if err != nil {
		return newPositionErr(ErrCodeSeamOptimize, err, "direction config lookup failed")
	}
	if contentSize <= 0 {
		return newPositionErr(ErrCodeSeamOptimize, nil, "content size %v must be positive", contentSize)
	}

	initial, err := CalculateInitialPosition(contentSize, track.Direction)
	if err != nil {
		return newPositionErr(ErrCodeSeamOptimize, err, "initial position recomputation failed")
	}
	if err := r.SetOffset(track.Content2, cfg.PositionProperty, initial.Content2); err != nil {
		return newPositionErr(ErrCodeSeamOptimize, err, "offset write rejected by renderer")
	}
	return nil
}
