// internal/marquee/engine.go
package marquee

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

// engineState is the lifecycle state of the engine. Error recovery tiers are
// transient overlays, not states of their own.
type engineState int

const (
	stateIdle engineState = iota
	stateRunning
	statePaused
	stateDestroyed
)

func (s engineState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case statePaused:
		return "paused"
	case stateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Options is the construction configuration for an Engine. Data is required;
// everything else has a workable default.
type Options struct {
	// Data is the ordered list of content items rendered into each block.
	Data []string
	// Direction of motion. Defaults to left.
	Direction Direction
	// Step is pixels advanced per tick. Defaults to 1.
	Step float64
	// StepWait is the delay between ticks.
	StepWait time.Duration
	// Rows is the number of independent tracks for horizontal directions.
	Rows int
	// Cols is the number of independent tracks for vertical directions.
	Cols int
	// HoverStop wires pointer enter/leave to pause/resume.
	HoverStop bool
	// MinCountToScroll keeps the engine idle while Data is shorter than
	// this. Defaults to 1.
	MinCountToScroll int
	// ContentSize is the pixel length of one content block along the scroll
	// axis, supplied by the host layout.
	ContentSize float64
	// ContainerSize is the pixel length of the container along the scroll
	// axis, supplied by the host layout.
	ContainerSize float64
	// OnEvent receives every emitted event. Optional.
	OnEvent EventSink
}

// OptionPatch is a partial configuration update for SetOptions. Nil fields
// are left unchanged.
type OptionPatch struct {
	Data             *[]string
	Direction        *Direction
	Step             *float64
	StepWait         *time.Duration
	Rows             *int
	Cols             *int
	HoverStop        *bool
	MinCountToScroll *int
	ContentSize      *float64
	ContainerSize    *float64
}

// withDefaults fills unset fields and validates the result.
func (o Options) withDefaults() (Options, error) {
	if o.Direction == "" {
		o.Direction = DirectionLeft
	}
	if !IsValidDirection(o.Direction) {
		return o, newConfigErr(ErrCodeInvalidDirection, "unsupported direction %q", string(o.Direction))
	}
	if o.Step == 0 {
		o.Step = 1
	}
	if o.Step < 0 {
		return o, newConfigErr(ErrCodeInvalidStep, "step %v must be positive", o.Step)
	}
	if o.StepWait < 0 {
		return o, newConfigErr(ErrCodeInvalidOption, "stepWait %v must not be negative", o.StepWait)
	}
	if o.Rows < 0 || o.Cols < 0 {
		return o, newConfigErr(ErrCodeInvalidOption, "rows/cols must not be negative (rows=%d, cols=%d)", o.Rows, o.Cols)
	}
	if o.MinCountToScroll <= 0 {
		o.MinCountToScroll = 1
	}
	if o.ContentSize < 0 || o.ContainerSize < 0 {
		return o, newConfigErr(ErrCodeInvalidOption, "content/container sizes must not be negative")
	}
	return o, nil
}

// trackCount derives the number of independent tracks from the direction.
func (o Options) trackCount() int {
	cfg, err := DirectionFor(o.Direction)
	if err != nil {
		return 1
	}
	n := o.Cols
	if cfg.Horizontal {
		n = o.Rows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Engine drives the marquee: it owns the scroll tracks, schedules the frame
// loop, wires hover pause/resume, and implements the tiered error recovery
// state machine. All mutation happens under mu; scheduler callbacks arrive
// on timer goroutines.
type Engine struct {
	mu sync.Mutex

	id        string
	logger    *zap.Logger
	renderer  render.Renderer
	scheduler render.Scheduler
	container render.Handle

	opts   Options
	tracks []*ScrollTrack
	state  engineState

	calculator *Calculator
	transforms *TransformManager
	hover      *HoverManager

	tickHandle render.Handle

	// now is the timing source for system info; injectable so tests can
	// exercise a faulting source.
	now func() time.Time

	// Tier actions are function fields so tests can force a cascading
	// failure through any of them.
	degradeFn func(err error, context string)
	resetFn   func(err error, context string)
	restartFn func(err error, context string)
	stopFn    func(err error, context string)
}

// NewEngine builds an engine over the given container. Configuration faults
// surface synchronously here; nothing else the engine does returns an error
// for transient runtime faults.
func NewEngine(r render.Renderer, s render.Scheduler, container render.Handle, opts Options, cache *TransformCache, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil || s == nil {
		return nil, newConfigErr(ErrCodeInvalidOption, "renderer and scheduler are required")
	}
	if container == render.NoHandle {
		return nil, newConfigErr(ErrCodeContainerMissing, "container handle is required")
	}

	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:         uuid.NewString(),
		logger:     logger.With(zap.String("component", "scroll_engine")),
		renderer:   r,
		scheduler:  s,
		container:  container,
		opts:       opts,
		state:      stateIdle,
		calculator: NewCalculator(DefaultCalculatorLimits(), logger),
		transforms: NewTransformManager(cache, logger),
		hover:      NewHoverManager(r, logger),
		now:        time.Now,
	}
	e.degradeFn = e.gracefulDegradation
	e.resetFn = e.positionReset
	e.restartFn = e.fullRestart
	e.stopFn = e.emergencyStop

	if err := e.buildTracksLocked(); err != nil {
		return nil, err
	}
	e.logger.Info("Engine constructed",
		zap.String("engine_id", e.id),
		zap.String("direction", string(opts.Direction)),
		zap.Int("tracks", len(e.tracks)))
	return e, nil
}

// buildTracksLocked tears down any existing tracks and creates the
// configured set. Caller holds the lock.
func (e *Engine) buildTracksLocked() error {
	e.releaseTracksLocked()

	count := e.opts.trackCount()
	tracks := make([]*ScrollTrack, 0, count)
	for i := 0; i < count; i++ {
		track, err := newTrack(e.renderer, e.container, e.opts.Data, e.opts.ContentSize, e.opts.Direction)
		if err != nil {
			for _, t := range tracks {
				t.release(e.renderer)
			}
			return err
		}
		tracks = append(tracks, track)
	}
	e.tracks = tracks
	return nil
}

// releaseTracksLocked drops every owned element handle. Caller holds the lock.
func (e *Engine) releaseTracksLocked() {
	for _, t := range e.tracks {
		t.release(e.renderer)
	}
	e.tracks = nil
}

// Start begins the animation. With fewer items than MinCountToScroll the
// engine stays idle. Starting a destroyed engine is a programmer error and
// returns a ConfigurationError.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateDestroyed {
		return newConfigErr(ErrCodeEngineDestroyed, "engine has been destroyed")
	}
	if e.state == stateRunning {
		return nil
	}
	if len(e.opts.Data) < e.opts.MinCountToScroll {
		e.logger.Info("Not enough items to scroll, staying idle",
			zap.Int("items", len(e.opts.Data)),
			zap.Int("min_count", e.opts.MinCountToScroll))
		return nil
	}

	if e.opts.ContentSize > 0 && e.opts.Step > 0 {
		if err := e.transforms.Warmup(e.opts.Direction, e.opts.ContentSize, e.opts.Step); err != nil {
			// Warmup is an optimization only.
			e.logger.Debug("Transform cache warmup skipped", zap.Error(err))
		}
	}

	e.state = stateRunning
	for _, t := range e.tracks {
		t.Running = true
	}
	e.scheduleTickLocked()
	e.logger.Info("Engine started", zap.String("engine_id", e.id))
	return nil
}

// scheduleTickLocked queues the next tick callback. Caller holds the lock.
func (e *Engine) scheduleTickLocked() {
	e.tickHandle = e.scheduler.Schedule(e.opts.StepWait, e.tick)
	for _, t := range e.tracks {
		t.AnimationHandle = e.tickHandle
	}
}

// cancelTickLocked cancels any pending tick. Caller holds the lock.
func (e *Engine) cancelTickLocked() {
	if e.tickHandle != render.NoHandle {
		e.scheduler.Cancel(e.tickHandle)
		e.tickHandle = render.NoHandle
	}
	for _, t := range e.tracks {
		t.AnimationHandle = render.NoHandle
	}
}

// tick is one frame: advance, validate, repair, and render every track, then
// reschedule. The body runs to completion synchronously; any fault is routed
// through HandleError and never escapes.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A pause or destroy may have landed between dispatch and execution.
	if e.state != stateRunning {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.handleErrorLocked(newAnimationErr(ErrCodeScheduleFailed, nil, "tick panicked: %v", r), "tick")
		}
	}()

	writes := make([]batchWrite, 0, len(e.tracks)*2)
	for _, track := range e.tracks {
		if !track.Running {
			continue
		}

		next, err := CalculateNextPosition(track.LogicalPosition, e.opts.Step, e.opts.ContentSize, track.Direction)
		if err != nil {
			e.handleErrorLocked(newPositionErr(ErrCodePositionInvalid, err, "next position computation failed for track %s", track.ID), "tick")
			continue
		}
		if !e.calculator.QuickValidate(next, e.opts.ContentSize, track.Direction) {
			next = e.calculator.CorrectPosition(next, e.opts.ContentSize, track.Direction)
		}
		track.LogicalPosition = next

		value, err := e.transforms.GenerateTransform(next, track.Direction)
		if err != nil {
			e.handleErrorLocked(newPositionErr(ErrCodePositionInvalid, err, "transform generation failed for track %s", track.ID), "tick")
			continue
		}
		writes = append(writes, batchWrite{Handle: track.Content1, Value: value}, batchWrite{Handle: track.Content2, Value: value})
	}
	e.transforms.ApplyBatch(e.renderer, writes)

	// Reschedule unless something in this tick paused or destroyed us.
	if e.state == stateRunning {
		e.scheduleTickLocked()
	}
}

// Pause suspends the animation, leaving positions as rendered.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateRunning {
		return
	}
	e.cancelTickLocked()
	for _, t := range e.tracks {
		t.Running = false
	}
	e.state = statePaused
	e.logger.Debug("Engine paused", zap.String("engine_id", e.id))
}

// Resume continues a paused animation.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != statePaused {
		return
	}
	e.state = stateRunning
	for _, t := range e.tracks {
		t.Running = true
	}
	e.scheduleTickLocked()
	e.logger.Debug("Engine resumed", zap.String("engine_id", e.id))
}

// Stop halts the animation and returns the engine to idle. Tracks are kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateDestroyed || e.state == stateIdle {
		return
	}
	e.cancelTickLocked()
	for _, t := range e.tracks {
		t.Running = false
	}
	e.state = stateIdle
	e.logger.Info("Engine stopped", zap.String("engine_id", e.id))
}

// Destroy is idempotent and terminal: it cancels any pending callback and
// releases every owned element reference. The shared transform cache is left
// alone; it safely outlives the engine.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateDestroyed {
		return
	}
	e.cancelTickLocked()
	e.releaseTracksLocked()
	e.state = stateDestroyed
	e.logger.Info("Engine destroyed", zap.String("engine_id", e.id))
}

// SetOptions applies a partial configuration update. Layout-affecting
// changes rebuild the tracks. Invalid values surface synchronously.
func (e *Engine) SetOptions(patch OptionPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateDestroyed {
		return newConfigErr(ErrCodeEngineDestroyed, "engine has been destroyed")
	}

	next := e.opts
	layoutChanged := false
	if patch.Data != nil {
		next.Data = append([]string(nil), (*patch.Data)...)
		layoutChanged = true
	}
	if patch.Direction != nil {
		next.Direction = *patch.Direction
		layoutChanged = true
	}
	if patch.Step != nil {
		next.Step = *patch.Step
	}
	if patch.StepWait != nil {
		next.StepWait = *patch.StepWait
	}
	if patch.Rows != nil {
		next.Rows = *patch.Rows
		layoutChanged = true
	}
	if patch.Cols != nil {
		next.Cols = *patch.Cols
		layoutChanged = true
	}
	if patch.HoverStop != nil {
		next.HoverStop = *patch.HoverStop
	}
	if patch.MinCountToScroll != nil {
		next.MinCountToScroll = *patch.MinCountToScroll
	}
	if patch.ContentSize != nil {
		next.ContentSize = *patch.ContentSize
		layoutChanged = true
	}
	if patch.ContainerSize != nil {
		next.ContainerSize = *patch.ContainerSize
	}

	validated, err := next.withDefaults()
	if err != nil {
		return err
	}

	wasRunning := e.state == stateRunning
	if layoutChanged {
		e.cancelTickLocked()
	}
	e.opts = validated

	if layoutChanged {
		if err := e.buildTracksLocked(); err != nil {
			return err
		}
		if wasRunning {
			for _, t := range e.tracks {
				t.Running = true
			}
			e.scheduleTickLocked()
		}
	}
	return nil
}

// UpdateData replaces the content items and rebuilds the tracks.
func (e *Engine) UpdateData(items []string) error {
	data := append([]string(nil), items...)
	return e.SetOptions(OptionPatch{Data: &data})
}

// Position returns the primary track's logical position.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tracks) == 0 {
		return 0
	}
	return e.tracks[0].LogicalPosition
}

// IsRunning reports whether the engine is in the running state.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateRunning
}

// Metrics exposes the transform manager's performance counters.
func (e *Engine) Metrics() PerformanceMetrics { return e.transforms.Metrics() }

// CacheStats exposes the transform cache statistics.
func (e *Engine) CacheStats() CacheStats { return e.transforms.CacheStats() }

// Tracks returns the current track handles for inspection. The returned
// slice is a copy; tracks themselves remain engine-owned.
func (e *Engine) Tracks() []*ScrollTrack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*ScrollTrack(nil), e.tracks...)
}

// HandleMouseEnter pauses the animation at the precise rendered position
// when hoverStop is enabled.
func (e *Engine) HandleMouseEnter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opts.HoverStop || e.state != stateRunning {
		return
	}
	e.cancelTickLocked()
	for _, t := range e.tracks {
		t.Running = false
	}
	outcome := e.hover.BatchManage(e.tracks, e.opts.Direction, BatchPause)
	if outcome.Failed > 0 {
		// Pause capture faults are non-critical; positions stay tracked.
		e.handleErrorLocked(fmt.Errorf("hover pause batch reported %d failed tracks", outcome.Failed), "hover_pause")
	}
	if e.opts.ContentSize > 0 {
		for _, track := range e.tracks {
			if err := e.calculator.OptimizeSeamlessConnection(e.renderer, track, e.opts.ContentSize); err != nil {
				e.handleErrorLocked(err, "seam_optimize")
			}
		}
	}
	e.state = statePaused
}

// HandleMouseLeave resumes the animation. If the resume batch reports any
// failure the engine emits intelligentResume and forces the running state
// anyway, with positions left as last captured.
func (e *Engine) HandleMouseLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opts.HoverStop || e.state != statePaused {
		return
	}

	outcome := e.hover.BatchManage(e.tracks, e.opts.Direction, BatchResume)
	if outcome.Failed > 0 {
		e.emitLocked(EventIntelligentResume, EventPayload{Reason: ReasonMouseLeave, Context: "hover_resume"})
	}
	e.state = stateRunning
	for _, t := range e.tracks {
		t.Running = true
	}
	e.scheduleTickLocked()
}

// HandleError classifies a fault and dispatches exactly one recovery tier.
// It never lets an exception escape to the caller: a fault inside any tier
// falls through to emergency recovery, which is unconditional.
func (e *Engine) HandleError(err error, context string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handleErrorLocked(err, context)
}

// handleErrorLocked assumes the caller holds the lock.
func (e *Engine) handleErrorLocked(err error, context string) {
	defer func() {
		if r := recover(); r != nil {
			e.emergencyRecovery(r, context)
		}
	}()

	var (
		critical  *CriticalError
		animation *AnimationError
		position  *PositionError
	)
	switch {
	case errors.As(err, &critical):
		e.stopFn(err, context)
	case errors.As(err, &animation):
		e.restartFn(err, context)
	case errors.As(err, &position):
		e.resetFn(err, context)
	default:
		e.degradeFn(err, context)
	}
}

// gracefulDegradation is tier 1: log, emit, carry on.
func (e *Engine) gracefulDegradation(err error, context string) {
	e.logger.Warn("Degraded operation, continuing",
		zap.String("context", context), zap.Error(err))
	e.emitLocked(EventDegradation, EventPayload{Context: context, Error: errString(err)})
}

// positionReset is tier 2: put every track back on a safe logical position
// and rerender it.
func (e *Engine) positionReset(err error, context string) {
	e.logger.Warn("Resetting track positions after position fault",
		zap.String("context", context), zap.Error(err))
	for _, track := range e.tracks {
		track.LogicalPosition = e.calculator.CorrectPosition(track.LogicalPosition, e.opts.ContentSize, track.Direction)
		if !e.calculator.QuickValidate(track.LogicalPosition, e.opts.ContentSize, track.Direction) {
			track.LogicalPosition = 0
		}
		value, terr := e.transforms.GenerateTransform(track.LogicalPosition, track.Direction)
		if terr != nil {
			track.LogicalPosition = 0
			value = fallbackTransform
		}
		e.transforms.ApplySingle(e.renderer, track.Content1, value)
		e.transforms.ApplySingle(e.renderer, track.Content2, value)
	}
	e.emitLocked(EventRecovery, EventPayload{Type: RecoveryPositionReset, Context: context, Error: errString(err)})
}

// fullRestart is tier 3: tear down and reinitialize the tick loop and all
// tracks.
func (e *Engine) fullRestart(err error, context string) {
	e.logger.Error("Restarting animation after lifecycle fault",
		zap.String("context", context), zap.Error(err))
	wasRunning := e.state == stateRunning
	e.cancelTickLocked()
	if berr := e.buildTracksLocked(); berr != nil {
		// Rebuild failing on top of a lifecycle fault is structural.
		e.stopFn(newCriticalErr(ErrCodeRendererFailure, berr, "track rebuild failed during restart"), context)
		return
	}
	if wasRunning {
		for _, t := range e.tracks {
			t.Running = true
		}
		e.scheduleTickLocked()
	}
	e.emitLocked(EventRecovery, EventPayload{Type: RecoveryFullRestart, Context: context, Error: errString(err)})
}

// emergencyStop is tier 4: halt all animation immediately.
func (e *Engine) emergencyStop(err error, context string) {
	e.logger.Error("Emergency stop",
		zap.String("context", context), zap.Error(err))
	e.cancelTickLocked()
	for _, t := range e.tracks {
		t.Running = false
	}
	e.state = stateIdle
	e.emitLocked(EventEmergency, EventPayload{Type: EmergencyStop, Context: context, Error: errString(err)})
}

// emergencyRecovery is tier 5, entered when any other tier itself faults.
// It is unconditional and non-throwing: every track loses its running flag
// and the fault is reported as a critical error event on a best-effort
// basis.
func (e *Engine) emergencyRecovery(cause interface{}, context string) {
	defer func() { _ = recover() }()

	e.logger.Error("Emergency recovery: recovery tier itself faulted",
		zap.String("context", context), zap.Any("cause", cause))
	for _, t := range e.tracks {
		t.Running = false
	}
	if e.state == stateRunning {
		e.state = stateIdle
	}
	if e.tickHandle != render.NoHandle {
		e.scheduler.Cancel(e.tickHandle)
		e.tickHandle = render.NoHandle
	}
	e.emitLocked(EventError, EventPayload{Type: TypeCriticalError, Context: context})
}

// emitLocked delivers an event to the sink with best-effort system info.
// Caller holds the lock. A faulting sink must not take the engine down.
func (e *Engine) emitLocked(name string, payload EventPayload) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Event sink panicked", zap.String("event", name), zap.Any("panic", r))
		}
	}()

	payload.EngineID = e.id
	payload.SystemInfo = e.collectSystemInfo()
	e.logger.Debug("Emitting event", zap.String("event", name), zap.String("payload", payload.JSON()))
	if e.opts.OnEvent != nil {
		e.opts.OnEvent(name, payload)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
