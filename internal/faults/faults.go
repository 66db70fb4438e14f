// Package faults classifies pipeline failures into kinds so callers can
// branch on the kind of a failure instead of matching message text.
package faults

import (
	"errors"
	"fmt"
)

// Kind describes how a failure should be handled by the caller.
type Kind int

const (
	// KindFatal aborts the current invocation. Re-running without operator
	// intervention will not help (missing ortho folder, no nav files, no
	// valid calibration camera, misnamed input files).
	KindFatal Kind = iota

	// KindRecoverable means an upstream pipeline stage has not produced its
	// files yet. A later retry of the whole invocation is expected to
	// succeed, so schedulers should requeue rather than fail the batch.
	KindRecoverable

	// KindInformational marks conditions that are logged and skipped, such
	// as a raw image whose ortho has not been generated yet.
	KindInformational
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRecoverable:
		return "recoverable"
	case KindInformational:
		return "informational"
	}
	return "unknown"
}

// Error is a failure tagged with a Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatalf builds a fatal error.
func Fatalf(format string, args ...any) error {
	return newf(KindFatal, format, args...)
}

// Recoverablef builds a recoverable error.
func Recoverablef(format string, args ...any) error {
	return newf(KindRecoverable, format, args...)
}

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a kind and context message.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err. Untagged errors are treated as fatal,
// which is the safe default for an unattended batch run.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindFatal
}

// IsRecoverable reports whether err should be retried on a later run.
func IsRecoverable(err error) bool {
	return err != nil && KindOf(err) == KindRecoverable
}
