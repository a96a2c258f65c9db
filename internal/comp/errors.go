// SPDX-License-Identifier: Unlicense OR MIT

package comp

import "fmt"

// ErrorKind classifies core errors for the embedder.
type ErrorKind uint8

const (
	KindWayland ErrorKind = iota
	KindState
	KindPlatform
	KindNotFound
	KindInvalidID
)

// Error is the core's error type. Per-client protocol faults never
// surface here; they are posted on the offending resource instead.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func waylandErr(format string, args ...any) *Error {
	return &Error{Kind: KindWayland, Msg: fmt.Sprintf(format, args...)}
}

func stateErr(format string, args ...any) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func platformErr(format string, args ...any) *Error {
	return &Error{Kind: KindPlatform, Msg: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func invalidIDErr(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidID, Msg: fmt.Sprintf(format, args...)}
}

// CoreError is the former name of Error.
//
// Deprecated: use Error. Kept for one release cycle.
type CoreError = Error
