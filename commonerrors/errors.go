// Package commonerrors defines the error taxonomy used across the module.
// Errors are sentinel values which can be checked against using Any/None
// irrespective of how many times they were wrapped.
package commonerrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUndefined  = errors.New("undefined")
	ErrInvalid    = errors.New("invalid")
	ErrNotFound   = errors.New("not found")
	ErrEOF        = errors.New("end of file")
	ErrCancelled  = errors.New("cancelled")
	ErrTimeout    = errors.New("timeout")
	ErrConflict   = errors.New("conflict")
	ErrUnexpected = errors.New("unexpected")
)

// New returns an error of type targetError with the given description.
func New(targetError error, description string) error {
	return fmt.Errorf("%w: %v", targetError, description)
}

// Newf returns an error of type targetError with a formatted description.
func Newf(targetError error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %v", targetError, fmt.Sprintf(format, args...))
}

// WrapError wraps err into an error of type targetError with an optional message.
func WrapError(targetError error, err error, message string) error {
	if err == nil {
		return New(targetError, message)
	}
	if message == "" {
		return fmt.Errorf("%w: %v", targetError, err.Error())
	}
	return fmt.Errorf("%w: %v: %v", targetError, message, err.Error())
}

// Any returns whether the target error matches any of the errors provided.
func Any(target error, err ...error) bool {
	for _, e := range err {
		if errors.Is(e, target) || errors.Is(target, e) {
			return true
		}
	}
	return false
}

// None returns whether the target error matches none of the errors provided.
func None(target error, err ...error) bool {
	for _, e := range err {
		if errors.Is(e, target) || errors.Is(target, e) {
			return false
		}
	}
	return true
}

// Ignore returns nil if the target error matches any of the errors to ignore, the target error otherwise.
func Ignore(target error, ignore ...error) error {
	if Any(target, ignore...) {
		return nil
	}
	return target
}

// CorrespondTo determines whether the target error description contains any of the given descriptions (case insensitive).
func CorrespondTo(target error, descriptions ...string) bool {
	if target == nil {
		return false
	}
	desc := strings.ToLower(target.Error())
	for _, d := range descriptions {
		if strings.Contains(desc, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// ErrFromContext converts the state of a context into a common error.
// It returns nil when the context is still live.
func ErrFromContext(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return ErrTimeout
	default:
		cause := context.Cause(ctx)
		if cause != nil && None(cause, context.Canceled) {
			return WrapError(ErrCancelled, cause, "")
		}
		return ErrCancelled
	}
}
