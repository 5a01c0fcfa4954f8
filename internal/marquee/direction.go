// internal/marquee/direction.go

// Package marquee implements a continuous, visually seamless scrolling
// marquee. Two duplicated content blocks are advanced frame by frame and
// wrapped so the viewer perceives infinite motion in one of four directions.
// Rendering and scheduling are abstracted behind the capabilities in
// internal/render, so the core runs identically against an in-memory surface
// or a live browser session.
package marquee

import (
	"fmt"

	"github.com/xkilldash9x/marquee/internal/render"
)

// Direction identifies the scroll axis and sense of motion.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// DirectionConfig is the axis/sign configuration derived from a Direction.
type DirectionConfig struct {
	// Horizontal is true for left/right.
	Horizontal bool
	// Reverse is true for right/down: the logical position decreases each
	// tick instead of increasing.
	Reverse bool
	// AxisProperty is the transform function for the animated axis,
	// "translateX" or "translateY".
	AxisProperty string
	// PositionProperty is the static layout offset property, "left" or "top".
	PositionProperty string
}

// InitialPositions holds the static layout offsets for a new track's two
// content blocks.
type InitialPositions struct {
	Content1 float64
	Content2 float64
}

// supportedDirections is the fixed public ordering; external consumers may
// rely on it.
var supportedDirections = []Direction{DirectionLeft, DirectionRight, DirectionUp, DirectionDown}

// SupportedDirections returns the supported directions in fixed order.
func SupportedDirections() []Direction {
	out := make([]Direction, len(supportedDirections))
	copy(out, supportedDirections)
	return out
}

// IsValidDirection reports membership in the four-value enum. Never fails.
func IsValidDirection(d Direction) bool {
	switch d {
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		return true
	}
	return false
}

// DirectionFor returns the axis/sign configuration for d, or a
// ConfigurationError for any value outside the enum.
func DirectionFor(d Direction) (DirectionConfig, error) {
	switch d {
	case DirectionLeft:
		return DirectionConfig{Horizontal: true, Reverse: false, AxisProperty: "translateX", PositionProperty: render.PropLeft}, nil
	case DirectionRight:
		return DirectionConfig{Horizontal: true, Reverse: true, AxisProperty: "translateX", PositionProperty: render.PropLeft}, nil
	case DirectionUp:
		return DirectionConfig{Horizontal: false, Reverse: false, AxisProperty: "translateY", PositionProperty: render.PropTop}, nil
	case DirectionDown:
		return DirectionConfig{Horizontal: false, Reverse: true, AxisProperty: "translateY", PositionProperty: render.PropTop}, nil
	}
	return DirectionConfig{}, newConfigErr(ErrCodeInvalidDirection, "unsupported direction %q", string(d))
}

// CalculateInitialPosition returns the static offsets for the two content
// blocks of a fresh track. Content1 always sits at 0. Content2 sits after it
// (+contentSize) for left, right, and down; "up" is the only direction whose
// duplicate must sit above the first block, so it gets -contentSize.
func CalculateInitialPosition(contentSize float64, d Direction) (InitialPositions, error) {
	if _, err := DirectionFor(d); err != nil {
		return InitialPositions{}, err
	}
	pos := InitialPositions{Content1: 0, Content2: contentSize}
	if d == DirectionUp {
		pos.Content2 = -contentSize
	}
	return pos, nil
}

// CalculateNextPosition advances the sawtooth. Forward directions (left, up)
// add step and wrap at contentSize back to 0, bounding the sequence to
// [0, contentSize). Reverse directions (right, down) subtract step and wrap
// at -contentSize, bounding it to (-contentSize, 0].
func CalculateNextPosition(current, step, contentSize float64, d Direction) (float64, error) {
	cfg, err := DirectionFor(d)
	if err != nil {
		return 0, err
	}
	if cfg.Reverse {
		next := current - step
		if next <= -contentSize {
			return 0, nil
		}
		return next, nil
	}
	next := current + step
	if next >= contentSize {
		return 0, nil
	}
	return next, nil
}

// TransformValue assembles the transform string for a logical position. The
// negation is unconditional and axis-only; the direction's sign is already
// embedded in the position by CalculateNextPosition.
func TransformValue(position float64, d Direction) (string, error) {
	cfg, err := DirectionFor(d)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%gpx)", cfg.AxisProperty, -position), nil
}

// ApplyDirectionTransform writes the transform for position to the element.
// The only side effect is the element's transform field.
func ApplyDirectionTransform(r render.Renderer, h render.Handle, position float64, d Direction) error {
	value, err := TransformValue(position, d)
	if err != nil {
		return err
	}
	if err := r.ApplyTransform(h, value); err != nil {
		return newCriticalErr(ErrCodeRendererFailure, err, "transform write rejected by renderer")
	}
	return nil
}
