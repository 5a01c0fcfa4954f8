// internal/marquee/errors.go
package marquee

import "fmt"

// ErrorCode is a string type used for structured error reporting from the
// engine and its collaborators. Using a custom type ensures that only
// predefined constants can be used where an ErrorCode is expected.
type ErrorCode string

const (
	// -- Configuration Errors --
	ErrCodeInvalidDirection ErrorCode = "INVALID_DIRECTION"
	ErrCodeInvalidStep      ErrorCode = "INVALID_STEP"
	ErrCodeInvalidOption    ErrorCode = "INVALID_OPTION"

	// -- Position Errors --
	ErrCodePositionInvalid ErrorCode = "POSITION_INVALID"
	ErrCodeSeamOptimize    ErrorCode = "SEAM_OPTIMIZE_FAILED"
	ErrCodeCaptureFailed   ErrorCode = "POSITION_CAPTURE_FAILED"

	// -- Animation Errors --
	ErrCodeScheduleFailed ErrorCode = "SCHEDULE_FAILED"
	ErrCodeStartFailed    ErrorCode = "START_FAILED"

	// -- Critical Errors --
	ErrCodeContainerMissing ErrorCode = "CONTAINER_MISSING"
	ErrCodeRendererFailure  ErrorCode = "RENDERER_FAILURE"
	ErrCodeEngineDestroyed  ErrorCode = "ENGINE_DESTROYED"
)

// ConfigurationError indicates an invalid option or direction detected at
// construction or SetOptions time. It is the only error class the public
// API surfaces to the caller; everything else is absorbed by HandleError.
type ConfigurationError struct {
	Code ErrorCode
	Msg  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Code, e.Msg)
}

// PositionError indicates a fault in position arithmetic, validation, or
// seam optimization. Recovered via the positionReset tier.
type PositionError struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *PositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position error [%s]: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("position error [%s]: %s", e.Code, e.Msg)
}

func (e *PositionError) Unwrap() error { return e.Err }

// AnimationError indicates a scheduling or lifecycle fault in the frame
// loop. Recovered via the fullRestart tier.
type AnimationError struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *AnimationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("animation error [%s]: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("animation error [%s]: %s", e.Code, e.Msg)
}

func (e *AnimationError) Unwrap() error { return e.Err }

// CriticalError indicates a structural fault (e.g. the container handle has
// gone away) that makes continued animation unsafe. Triggers emergencyStop.
type CriticalError struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *CriticalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("critical error [%s]: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("critical error [%s]: %s", e.Code, e.Msg)
}

func (e *CriticalError) Unwrap() error { return e.Err }

func newConfigErr(code ErrorCode, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func newPositionErr(code ErrorCode, err error, format string, args ...interface{}) *PositionError {
	return &PositionError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func newAnimationErr(code ErrorCode, err error, format string, args ...interface{}) *AnimationError {
	return &AnimationError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func newCriticalErr(code ErrorCode, err error, format string, args ...interface{}) *CriticalError {
	return &CriticalError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}
