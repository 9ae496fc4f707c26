// Package secserr implements the error taxonomy of the SECS/GEM stack.
//
// Every error that crosses a component boundary (codec, framer, session,
// transaction manager, registry) is classified into one of a small set of
// Kinds so callers can apply the propagation policy from spec §7 without
// string-matching error text.
package secserr

import "errors"

// Kind is a stable, comparable error classification.
type Kind string

const (
	Transport       Kind = "transport"
	Framing         Kind = "framing"
	Codec           Kind = "codec"
	Schema          Kind = "schema"
	Protocol        Kind = "protocol"
	Timeout         Kind = "timeout"
	Rejected        Kind = "rejected"
	Disconnected    Kind = "disconnected"
	UnknownFunction Kind = "unknown_function"
)

func (k Kind) Error() string { return string(k) }

// Error wraps a Kind with the operation that failed, a human message and an
// optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if s != "" {
		s += ": "
	}
	s += string(e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, secserr.Codec) succeed for a wrapped *Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// New creates an *Error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap creates an *Error of the given kind, remembering the cause.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
}

// KindOf extracts the Kind of err, defaulting to Protocol for unrecognized
// errors so callers always get a value they can switch on.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Protocol
}
