package errors

import "fmt"

// ErrorCode represents a Bagvoyage error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrNoSession         ErrorCode = "NO_SESSION"         // 409
	ErrScanActive        ErrorCode = "SCAN_ACTIVE"        // 409
	ErrCameraUnavailable ErrorCode = "CAMERA_UNAVAILABLE" // 503
	ErrDecoderFailed     ErrorCode = "DECODER_FAILED"     // 502
	ErrStorage           ErrorCode = "STORAGE"            // 500
	ErrEnvironment       ErrorCode = "ENVIRONMENT"        // 501
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// BagError represents a structured error with code, status, and details.
type BagError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BagError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BagError {
	return &BagError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing session or record.
func NewNotFound(identifier string) *BagError {
	return &BagError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNoSession creates a 409 error for operations that require an active session.
func NewNoSession() *BagError {
	return &BagError{
		Code:    ErrNoSession,
		Status:  409,
		Message: "no active session; run session start first",
	}
}

// NewScanActive creates a 409 error for overlapping scan starts.
func NewScanActive() *BagError {
	return &BagError{
		Code:    ErrScanActive,
		Status:  409,
		Message: "a scan pipeline is already running",
	}
}

// NewCameraUnavailable creates a 503 error for camera or device enumeration failures.
func NewCameraUnavailable(err error) *BagError {
	msg := "camera access failed"
	if err != nil {
		msg = fmt.Sprintf("camera access failed: %v", err)
	}
	return &BagError{
		Code:    ErrCameraUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewDecoderFailed creates a 502 error for decoder failures that could not be degraded.
func NewDecoderFailed(err error) *BagError {
	msg := "decoder failed"
	if err != nil {
		msg = fmt.Sprintf("decoder failed: %v", err)
	}
	return &BagError{
		Code:    ErrDecoderFailed,
		Status:  502,
		Message: msg,
	}
}

// NewStorage creates a 500 error for persistence failures.
// Callers on the scan path log and swallow these rather than halting the interaction.
func NewStorage(err error) *BagError {
	msg := "storage failed"
	if err != nil {
		msg = fmt.Sprintf("storage failed: %v", err)
	}
	return &BagError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
	}
}

// NewEnvironment creates a 501 error for host-environment restrictions
// (for example a blocked print view).
func NewEnvironment(msg string) *BagError {
	return &BagError{
		Code:    ErrEnvironment,
		Status:  501,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BagError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BagError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a BagError with the given code.
func Is(err error, code ErrorCode) bool {
	if bErr, ok := err.(*BagError); ok {
		return bErr.Code == code
	}
	return false
}
