package engine

import "errors"

// Error is a wire-taggable engine error: Code is one of the reserved RESP
// error codes from spec.md §6 ("ERR", "WRONGTYPE", "BUSYGROUP", "NOGROUP",
// "BUSYKEY"); Message is the full text after the code. Dispatch renders
// these directly without re-wrapping, per spec.md §6's "clients ... must
// not rewrap these".
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newErr(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func errWrongType() *Error {
	return newErr("WRONGTYPE", "WRONGTYPE Operation against a key holding the wrong kind of value")
}

func errNotInt() *Error {
	return newErr("ERR", "ERR value is not an integer or out of range")
}

func errNotFloat() *Error {
	return newErr("ERR", "ERR value is not a valid float")
}

func errSyntax() *Error {
	return newErr("ERR", "ERR syntax error")
}

func errOverflow() *Error {
	return newErr("ERR", "ERR increment or decrement would overflow")
}

func errNaNScore() *Error {
	return newErr("ERR", "ERR resulting score is not a number (NaN)")
}

// Sentinel errors used internally (not wire errors) to signal control flow
// such as "key absent" without allocating an *Error each time.
var ErrNoSuchKey = errors.New("no such key")
