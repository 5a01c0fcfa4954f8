// internal/marquee/events.go
package marquee

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Event names emitted through the OnEvent sink.
const (
	EventDegradation       = "degradation"
	EventRecovery          = "recovery"
	EventEmergency         = "emergency"
	EventError             = "error"
	EventIntelligentResume = "intelligentResume"
)

// Recovery/emergency type tags carried in event payloads.
const (
	RecoveryPositionReset = "positionReset"
	RecoveryFullRestart   = "fullRestart"
	EmergencyStop         = "emergencyStop"
	TypeCriticalError     = "criticalError"
	ReasonMouseLeave      = "mouseLeaveFailure"
)

// EngineState is the observable lifecycle state snapshot carried in
// SystemInfo.
type EngineState struct {
	Running    bool      `json:"running"`
	Direction  Direction `json:"direction"`
	DataLength int       `json:"dataLength"`
}

// SystemInfo is the defensively collected context bundle attached to every
// emitted event. Collection is best effort; a throwing timing source or a
// half-destroyed engine must not block emission of the event itself.
type SystemInfo struct {
	Timestamp time.Time   `json:"timestamp"`
	State     EngineState `json:"scrollEngineState"`
}

// EventPayload is delivered to the OnEvent sink. Only the fields relevant to
// the event name are populated.
type EventPayload struct {
	// Type tags recovery ("positionReset", "fullRestart"), emergency
	// ("emergencyStop"), and error ("criticalError") events.
	Type string `json:"type,omitempty"`
	// Reason explains intelligentResume events.
	Reason string `json:"reason,omitempty"`
	// Context names the operation that faulted.
	Context string `json:"context,omitempty"`
	// Error is the rendered fault, when one exists.
	Error string `json:"error,omitempty"`
	// EngineID identifies the emitting engine instance.
	EngineID string `json:"engineId,omitempty"`
	// SystemInfo is the best-effort state bundle.
	SystemInfo SystemInfo `json:"systemInfo"`
}

// EventSink receives every emitted event. Sinks must not block; they run on
// the engine's tick or handler goroutine.
type EventSink func(name string, payload EventPayload)

var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON renders the payload for logging and stream sinks.
func (p EventPayload) JSON() string {
	out, err := eventJSON.MarshalToString(p)
	if err != nil {
		return "{}"
	}
	return out
}

// collectSystemInfo builds the SystemInfo bundle from an engine. It assumes
// the caller holds the engine lock and never panics past itself; partial
// info is acceptable.
func (e *Engine) collectSystemInfo() (info SystemInfo) {
	defer func() {
		// A faulting field source leaves whatever was already collected.
		_ = recover()
	}()
	info.Timestamp = e.now()
	info.State = EngineState{
		Running:    e.state == stateRunning,
		Direction:  e.opts.Direction,
		DataLength: len(e.opts.Data),
	}
	return info
}
