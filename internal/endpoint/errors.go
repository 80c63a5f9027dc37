package endpoint

import "fmt"

// Error codes surfaced by endpoint resolution and validation.
const (
	CodeEndpointNotFound    = "E_ENDPOINT_NOT_FOUND"
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         = "E_AUTH_INVALID"
	CodeTimeout             = "E_TIMEOUT"
	CodeUnknown             = "E_UNKNOWN"
)

// Error is a coded endpoint error.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// CodeValue implements the coded-error contract used by the operation layer.
func (e *Error) CodeValue() string { return e.Code }

// RetryableStatus implements the coded-error contract used by the operation layer.
func (e *Error) RetryableStatus() bool { return e.Retryable }

func newError(code string, retryable bool, format string, args ...any) *Error {
	return &Error{Code: code, Retryable: retryable, Err: fmt.Errorf(format, args...)}
}
