// Package apperr classifies pipeline failures by how the run reacts to them.
package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind is the run-level consequence of an error.
type Kind string

const (
	// KindFatal stops the run; the process exits non-zero.
	KindFatal Kind = "fatal"
	// KindStageSkipped abandons one stage; the run continues without its output.
	KindStageSkipped Kind = "stage_skipped"
)

// Error is a classified failure with the stack captured where it was raised.
type Error struct {
	Kind  Kind
	Op    string
	Err   error
	Stack []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err as a failure of the given kind.
func New(kind Kind, op string, err error) *Error {
	var stack []byte
	var ge *goerrors.Error
	switch {
	case errors.As(err, &ge):
		stack = ge.Stack()
	case err != nil:
		stack = goerrors.Wrap(err, 2).Stack()
	default:
		stack = goerrors.New(op).Stack()
	}
	return &Error{Kind: kind, Op: op, Err: err, Stack: stack}
}

func Fatal(op string, err error) *Error {
	return New(KindFatal, op, err)
}

func StageSkipped(op string, err error) *Error {
	return New(KindStageSkipped, op, err)
}

// IsKind reports whether err, or any error it wraps, is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
