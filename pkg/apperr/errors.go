// Package apperr defines the error taxonomy shared by the service and the
// HTTP surface. Every failure crossing the service boundary is one of these
// kinds; raw store or gateway errors are wrapped as the cause and logged,
// only Message is serialized to callers.
package apperr

import "errors"

type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindUnauthorized   Kind = "authorization_error"
	KindNotFound       Kind = "not_found"
	KindPrecondition   Kind = "precondition_error"
	KindProcessing     Kind = "processing_error"
	KindTimeout        Kind = "processor_timeout"
	KindPartialFailure Kind = "partial_failure"
)

type Error struct {
	Kind    Kind
	Message string // user-safe
	Err     error  // internal cause, never serialized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Precondition(msg string) *Error {
	return &Error{Kind: KindPrecondition, Message: msg}
}

func Processing(msg string, cause error) *Error {
	return &Error{Kind: KindProcessing, Message: msg, Err: cause}
}

func Timeout(msg string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: msg, Err: cause}
}

// PartialFailure reports that the payment settled and was persisted but a
// dependent record failed. It must never be collapsed into a plain
// processing error: money has already moved from the caller's perspective.
func PartialFailure(msg string, cause error) *Error {
	return &Error{Kind: KindPartialFailure, Message: msg, Err: cause}
}

// KindOf classifies any error into a taxonomy kind. Unrecognized errors are
// treated as processing failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProcessing
}

// MessageOf returns the user-safe message for err, falling back to a generic
// one so no raw internal error text leaks outward.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
