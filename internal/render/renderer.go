// internal/render/renderer.go

// Package render defines the small capability surface the marquee engine
// needs from its host: a way to mutate and read element styles, and a way to
// schedule the next animation tick. Implementations exist for an in-memory
// surface (tests, headless demo) and a Chrome DevTools Protocol session.
package render

import "time"

// Handle is an opaque reference to a host element or a scheduled callback.
// The zero value is "no handle".
type Handle int64

// NoHandle is the nil value for Handle.
const NoHandle Handle = 0

// Offset property names used with SetOffset. These mirror the static layout
// properties the marquee positions its content blocks with.
const (
	PropLeft = "left"
	PropTop  = "top"
)

// Renderer is the element mutation capability. The engine never touches a
// real display surface directly; everything goes through this interface so
// the core stays testable without a browser.
type Renderer interface {
	// CreateBlock creates one scrollable content block inside container and
	// returns its handle. The block renders the given items in order.
	CreateBlock(container Handle, items []string) (Handle, error)

	// SetOffset writes a static layout offset (PropLeft or PropTop) in
	// pixels on the element.
	SetOffset(h Handle, prop string, px float64) error

	// ApplyTransform writes a transform value, e.g. "translateX(-42px)" or
	// the safe fallback "none".
	ApplyTransform(h Handle, value string) error

	// ReadTransform returns the transform value currently rendered on the
	// element, which may diverge transiently from what the engine last wrote.
	ReadTransform(h Handle) (string, error)

	// Release drops the renderer's reference to the element. Releasing an
	// unknown handle is a no-op.
	Release(h Handle)
}

// Scheduler is the tick scheduling capability. One callback is in flight at
// a time per engine; the engine reschedules from inside the callback.
type Scheduler interface {
	// Schedule arranges for fn to run once after delay and returns a handle
	// that can cancel the pending callback.
	Schedule(delay time.Duration, fn func()) Handle

	// Cancel stops a pending callback if it has not fired yet. Cancelling an
	// unknown or already-fired handle is a no-op.
	Cancel(h Handle)
}
