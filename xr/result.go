package xr

import (
	"errors"
	"fmt"
)

// Result is a platform API result code. Non-negative values are success
// codes, negative values are errors.
type Result int32

const (
	Success            Result = 0
	TimeoutExpired     Result = 1
	SessionLossPending Result = 3
	EventUnavailable   Result = 4
	SessionNotFocused  Result = 8
	FrameDiscarded     Result = 9

	ErrorValidationFailure                Result = -1
	ErrorRuntimeFailure                   Result = -2
	ErrorOutOfMemory                      Result = -3
	ErrorFunctionUnsupported              Result = -7
	ErrorHandleInvalid                    Result = -12
	ErrorInstanceLost                     Result = -13
	ErrorSessionRunning                   Result = -14
	ErrorSessionNotRunning                Result = -16
	ErrorSessionLost                      Result = -17
	ErrorSystemInvalid                    Result = -18
	ErrorSwapchainFormatUnsupported       Result = -26
	ErrorSessionNotReady                  Result = -28
	ErrorSessionNotStopping               Result = -29
	ErrorTimeInvalid                      Result = -30
	ErrorFormFactorUnsupported            Result = -34
	ErrorCallOrderInvalid                 Result = -37
	ErrorGraphicsDeviceInvalid            Result = -38
	ErrorViewConfigurationTypeUnsupported Result = -41
	ErrorEnvironmentBlendModeUnsupported  Result = -42
	ErrorRuntimeUnavailable               Result = -51
)

var resultNames = map[Result]string{
	Success:            "XR_SUCCESS",
	TimeoutExpired:     "XR_TIMEOUT_EXPIRED",
	SessionLossPending: "XR_SESSION_LOSS_PENDING",
	EventUnavailable:   "XR_EVENT_UNAVAILABLE",
	SessionNotFocused:  "XR_SESSION_NOT_FOCUSED",
	FrameDiscarded:     "XR_FRAME_DISCARDED",

	ErrorValidationFailure:                "XR_ERROR_VALIDATION_FAILURE",
	ErrorRuntimeFailure:                   "XR_ERROR_RUNTIME_FAILURE",
	ErrorOutOfMemory:                      "XR_ERROR_OUT_OF_MEMORY",
	ErrorFunctionUnsupported:              "XR_ERROR_FUNCTION_UNSUPPORTED",
	ErrorHandleInvalid:                    "XR_ERROR_HANDLE_INVALID",
	ErrorInstanceLost:                     "XR_ERROR_INSTANCE_LOST",
	ErrorSessionRunning:                   "XR_ERROR_SESSION_RUNNING",
	ErrorSessionNotRunning:                "XR_ERROR_SESSION_NOT_RUNNING",
	ErrorSessionLost:                      "XR_ERROR_SESSION_LOST",
	ErrorSystemInvalid:                    "XR_ERROR_SYSTEM_INVALID",
	ErrorSwapchainFormatUnsupported:       "XR_ERROR_SWAPCHAIN_FORMAT_UNSUPPORTED",
	ErrorSessionNotReady:                  "XR_ERROR_SESSION_NOT_READY",
	ErrorSessionNotStopping:               "XR_ERROR_SESSION_NOT_STOPPING",
	ErrorTimeInvalid:                      "XR_ERROR_TIME_INVALID",
	ErrorFormFactorUnsupported:            "XR_ERROR_FORM_FACTOR_UNSUPPORTED",
	ErrorCallOrderInvalid:                 "XR_ERROR_CALL_ORDER_INVALID",
	ErrorGraphicsDeviceInvalid:            "XR_ERROR_GRAPHICS_DEVICE_INVALID",
	ErrorViewConfigurationTypeUnsupported: "XR_ERROR_VIEW_CONFIGURATION_TYPE_UNSUPPORTED",
	ErrorEnvironmentBlendModeUnsupported:  "XR_ERROR_ENVIRONMENT_BLEND_MODE_UNSUPPORTED",
	ErrorRuntimeUnavailable:               "XR_ERROR_RUNTIME_UNAVAILABLE",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	if r.Failed() {
		return fmt.Sprintf("XR_UNKNOWN_FAILURE_%d", -int32(r))
	}
	return fmt.Sprintf("XR_UNKNOWN_SUCCESS_%d", int32(r))
}

// Succeeded reports whether r is a success code, qualified or not.
func (r Result) Succeeded() bool {
	return r >= 0
}

// Failed reports whether r is an error code.
func (r Result) Failed() bool {
	return r < 0
}

// ResultError is returned when a runtime call that is required to succeed
// reports a failure code.
type ResultError struct {
	Call   string
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Call, e.Result)
}

// Check turns the outcome of a runtime call into a single error. Transport
// errors are returned wrapped with the call name; failed result codes become
// a *ResultError. Success codes of any kind return nil.
func Check(call string, res Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", call, err)
	}
	if res.Failed() {
		return &ResultError{Call: call, Result: res}
	}
	return nil
}

// ResultOf extracts the result code carried by err, if any.
func ResultOf(err error) (Result, bool) {
	var resErr *ResultError
	if errors.As(err, &resErr) {
		return resErr.Result, true
	}
	return Success, false
}
