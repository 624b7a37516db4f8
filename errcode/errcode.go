package errcode

import "errors"

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// InvalidArgument: missing handle/operation/malformed identifier.
	// Caller bug; never retried.
	InvalidArgument Code = "invalid_argument"

	// NotReady: registry not yet initialized. Surfaced immediately.
	NotReady Code = "not_ready"

	// DeferProbe: dependency not yet registered. Expected transient
	// condition; the caller's probe path is expected to retry later.
	DeferProbe Code = "defer_probe"

	// Unsupported: format/configuration the hardware cannot produce.
	// Permanent for that configuration.
	Unsupported Code = "unsupported"

	Busy Code = "busy"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from anywhere in err's chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries the given code.
func Is(err error, c Code) bool { return Of(err) == c }
