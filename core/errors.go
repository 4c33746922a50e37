package core

import "errors"

var (
	// ErrAttach reports that the OS refused the input hook or device.
	ErrAttach = errors.New("attach input source")
	// ErrInjection reports that the OS refused a synthetic input event.
	ErrInjection = errors.New("inject input")
	// ErrNotImplemented is returned for unknown command names.
	ErrNotImplemented = errors.New("not implemented")

	ErrNotAvailable     = errors.New("input backend not available on this platform")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidRequest   = errors.New("invalid request")
)

const (
	CodeNotImplemented  = "not_implemented"
	CodeInjectionFailed = "injection_failed"
	CodeAttachFailed    = "attach_failed"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

// ErrorCode maps err to the code reported to remote callers.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotImplemented):
		return CodeNotImplemented
	case errors.Is(err, ErrInjection):
		return CodeInjectionFailed
	case errors.Is(err, ErrAttach):
		return CodeAttachFailed
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidArgument
	}
	return CodeInternal
}

// ErrorFromCode rebuilds a sentinel-wrapping error from a remote code.
func ErrorFromCode(code, msg string) error {
	var base error
	switch code {
	case CodeNotImplemented:
		base = ErrNotImplemented
	case CodeInjectionFailed:
		base = ErrInjection
	case CodeAttachFailed:
		base = ErrAttach
	case CodeInvalidArgument:
		base = ErrInvalidRequest
	default:
		return errors.New(msg)
	}
	return &RemoteError{Code: code, Message: msg, base: base}
}

type RemoteError struct {
	Code    string
	Message string
	base    error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.base }
