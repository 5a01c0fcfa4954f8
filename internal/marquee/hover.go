// internal/marquee/hover.go
package marquee

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

const (
	// defaultResumeEpsilon is the drift in pixels between logical and
	// rendered position beyond which a resume forces resynchronization.
	defaultResumeEpsilon = 0.5

	// DefaultContinuityTolerance bounds the position jump a pause/resume
	// boundary may exhibit before continuity validation flags it.
	DefaultContinuityTolerance = 5.0
)

// transformPattern decodes the axis offset out of a rendered transform value
// like "translateX(-42.5px)".
var transformPattern = regexp.MustCompile(`translate[XY]\((-?[0-9]*\.?[0-9]+)px\)`)

// PositionSnapshot is an immutable point-in-time record used to prove
// continuity across a pause/resume boundary.
type PositionSnapshot struct {
	// LogicalPosition is the tracked offset at capture time.
	LogicalPosition float64
	// TransformPosition is the offset decoded from the rendered transform;
	// it may transiently diverge from LogicalPosition during a pause.
	TransformPosition float64
	Content1Transform string
	Content2Transform string
	Timestamp         time.Time
	Direction         Direction
}

// ContinuityResult reports whether two snapshots describe a seamless
// pause/resume boundary.
type ContinuityResult struct {
	Valid               bool
	PositionDifference  float64
	TransformDifference float64
	Issues              []string
}

// BatchOperation selects the per-track operation BatchManage applies.
type BatchOperation string

const (
	BatchPause  BatchOperation = "pause"
	BatchResume BatchOperation = "resume"
)

// BatchOutcome summarizes a batch pause/resume pass over many tracks.
type BatchOutcome struct {
	Successful int
	Failed     int
	TotalTime  time.Duration
}

// PositionStats aggregates captured positions across tracks. Tracks whose
// capture fails are excluded from the average and range but still counted in
// TotalStates.
type PositionStats struct {
	TotalStates     int
	ValidPositions  int
	AveragePosition float64
	PositionRange   struct {
		Min float64
		Max float64
	}
}

// HoverManager captures true on-screen offsets, reconciles them with tracked
// logical positions, and validates continuity across pause/resume
// boundaries. It reads rendered state through the Renderer capability only.
type HoverManager struct {
	renderer render.Renderer
	logger   *zap.Logger
	epsilon  float64
}

// NewHoverManager creates a HoverManager bound to a renderer. A nil logger
// is replaced with a nop logger.
func NewHoverManager(r render.Renderer, logger *zap.Logger) *HoverManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoverManager{
		renderer: r,
		logger:   logger.With(zap.String("component", "hover_manager")),
		epsilon:  defaultResumeEpsilon,
	}
}

// parseTransformPosition decodes the logical position embedded in a rendered
// transform value. The transform holds the negated position, so the decoded
// number is negated back.
func parseTransformPosition(value string) (float64, error) {
	match := transformPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, fmt.Errorf("transform %q does not contain a translate offset", value)
	}
	px, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("transform %q offset unparsable: %w", value, err)
	}
	return -px, nil
}

// CapturePosition decomposes the rendered transform of Content1 into a
// numeric axis offset. On read/parse failure or a non-finite result it logs
// a diagnostic and falls back to the track's logical position.
func (h *HoverManager) CapturePosition(track *ScrollTrack, d Direction) float64 {
	value, err := h.renderer.ReadTransform(track.Content1)
	if err != nil {
		h.logger.Debug("Rendered transform unavailable, using logical position",
			zap.String("track", track.ID), zap.Error(err))
		return track.LogicalPosition
	}
	position, err := parseTransformPosition(value)
	if err != nil || !isFinite(position) {
		h.logger.Debug("Rendered transform unparsable, using logical position",
			zap.String("track", track.ID), zap.String("transform", value), zap.Error(err))
		return track.LogicalPosition
	}
	_ = d
	return position
}

// Snapshot bundles logical and rendered positions with both raw transforms
// and a timestamp.
func (h *HoverManager) Snapshot(track *ScrollTrack, d Direction) PositionSnapshot {
	c1, err := h.renderer.ReadTransform(track.Content1)
	if err != nil {
		h.logger.Debug("Snapshot could not read content1 transform", zap.String("track", track.ID), zap.Error(err))
	}
	c2, err := h.renderer.ReadTransform(track.Content2)
	if err != nil {
		h.logger.Debug("Snapshot could not read content2 transform", zap.String("track", track.ID), zap.Error(err))
	}
	return PositionSnapshot{
		LogicalPosition:   track.LogicalPosition,
		TransformPosition: h.CapturePosition(track, d),
		Content1Transform: c1,
		Content2Transform: c2,
		Timestamp:         time.Now(),
		Direction:         d,
	}
}

// reapply writes the transform derived from the track's logical position to
// both content blocks so the pair stays tiled consistently.
func (h *HoverManager) reapply(track *ScrollTrack, d Direction) error {
	value, err := TransformValue(track.LogicalPosition, d)
	if err != nil {
		return err
	}
	if err := h.renderer.ApplyTransform(track.Content1, value); err != nil {
		return err
	}
	return h.renderer.ApplyTransform(track.Content2, value)
}

// PauseAt captures the true rendered offset, writes it back into the track's
// logical position so resumption starts from exactly what is on screen, and
// reapplies transforms to both blocks. On capture failure it logs an error
// and reapplies using the existing logical position unmodified.
func (h *HoverManager) PauseAt(track *ScrollTrack, d Direction) error {
	value, readErr := h.renderer.ReadTransform(track.Content1)
	if readErr == nil {
		captured, parseErr := parseTransformPosition(value)
		if parseErr == nil && isFinite(captured) {
			track.LogicalPosition = captured
		} else {
			h.logger.Error("Pause capture failed, keeping logical position",
				zap.String("track", track.ID), zap.String("transform", value), zap.Error(parseErr))
		}
	} else {
		h.logger.Error("Pause capture failed, keeping logical position",
			zap.String("track", track.ID), zap.Error(readErr))
	}

	if err := h.reapply(track, d); err != nil {
		return newPositionErr(ErrCodeCaptureFailed, err, "pause reapply failed for track %s", track.ID)
	}
	return nil
}

// ResumeFrom re-captures the rendered offset and compares it to the logical
// value. A drift beyond epsilon logs a synchronization warning and adopts
// the rendered value as authoritative.
func (h *HoverManager) ResumeFrom(track *ScrollTrack, d Direction) error {
	value, err := h.renderer.ReadTransform(track.Content1)
	if err != nil {
		return newPositionErr(ErrCodeCaptureFailed, err, "resume capture failed for track %s", track.ID)
	}
	captured, err := parseTransformPosition(value)
	if err != nil || !isFinite(captured) {
		return newPositionErr(ErrCodeCaptureFailed, err, "resume capture unparsable for track %s", track.ID)
	}

	if math.Abs(captured-track.LogicalPosition) > h.epsilon {
		h.logger.Warn("Position synchronization required before resume",
			zap.String("track", track.ID),
			zap.Float64("logical", track.LogicalPosition),
			zap.Float64("rendered", captured))
		track.LogicalPosition = captured
	}
	return nil
}

// ValidateContinuity compares two snapshots taken around a pause/resume
// boundary. Each check contributes its issue independently; Valid is true
// iff no issue fired.
func (h *HoverManager) ValidateContinuity(before, after PositionSnapshot, tolerance float64) ContinuityResult {
	if tolerance <= 0 {
		tolerance = DefaultContinuityTolerance
	}
	res := ContinuityResult{
		PositionDifference:  math.Abs(after.LogicalPosition - before.LogicalPosition),
		TransformDifference: math.Abs(after.TransformPosition - before.TransformPosition),
		Issues:              []string{},
	}

	if res.PositionDifference > tolerance {
		res.Issues = append(res.Issues, fmt.Sprintf("Logical position jump detected: %gpx", res.PositionDifference))
	}
	if res.TransformDifference > tolerance {
		res.Issues = append(res.Issues, fmt.Sprintf("Transform position jump detected: %gpx", res.TransformDifference))
	}
	if before.Direction != after.Direction {
		res.Issues = append(res.Issues, fmt.Sprintf("Direction changed during pause: %s -> %s", before.Direction, after.Direction))
	}
	if after.Timestamp.Before(before.Timestamp) {
		delta := after.Timestamp.Sub(before.Timestamp).Milliseconds()
		res.Issues = append(res.Issues, fmt.Sprintf("Invalid timestamp sequence: %dms", delta))
	}

	res.Valid = len(res.Issues) == 0
	return res
}

// BatchManage applies PauseAt or ResumeFrom to every track independently. A
// failure on one track is caught, logged with its index, and does not stop
// processing of the remaining tracks.
func (h *HoverManager) BatchManage(tracks []*ScrollTrack, d Direction, op BatchOperation) BatchOutcome {
	start := time.Now()
	var outcome BatchOutcome

	for i, track := range tracks {
		var err error
		switch op {
		case BatchPause:
			err = h.PauseAt(track, d)
		case BatchResume:
			err = h.ResumeFrom(track, d)
		default:
			err = fmt.Errorf("unknown batch operation %q", op)
		}
		if err != nil {
			outcome.Failed++
			h.logger.Error("Batch position operation failed for track",
				zap.Int("index", i), zap.String("track", track.ID),
				zap.String("operation", string(op)), zap.Error(err))
			continue
		}
		outcome.Successful++
	}

	outcome.TotalTime = time.Since(start)
	if outcome.Failed > 0 {
		h.logger.Warn("Batch position management completed with failures",
			zap.String("operation", string(op)),
			zap.Int("successful", outcome.Successful),
			zap.Int("failed", outcome.Failed))
	}
	return outcome
}

// Stats aggregates captured positions over a set of tracks.
func (h *HoverManager) Stats(tracks []*ScrollTrack, d Direction) PositionStats {
	stats := PositionStats{TotalStates: len(tracks)}

	var sum float64
	first := true
	for _, track := range tracks {
		value, err := h.renderer.ReadTransform(track.Content1)
		if err != nil {
			continue
		}
		position, err := parseTransformPosition(value)
		if err != nil || !isFinite(position) {
			continue
		}
		stats.ValidPositions++
		sum += position
		if first || position < stats.PositionRange.Min {
			stats.PositionRange.Min = position
		}
		if first || position > stats.PositionRange.Max {
			stats.PositionRange.Max = position
		}
		first = false
	}
	if stats.ValidPositions > 0 {
		stats.AveragePosition = sum / float64(stats.ValidPositions)
	}
	_ = d
	return stats
}
