package client

import (
	"errors"
	"fmt"
)

var (
	ErrNotInRoom         = errors.New("not in a room")
	ErrNotHost           = errors.New("only the host can end the room")
	ErrInvalidTransition = errors.New("action not available in the current view")
	ErrStale             = errors.New("response belongs to an abandoned session")
)

// ValidationError reports a blank or malformed required field. It is
// raised before any network call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return e.Field + " is required"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError reports that the backend could not be reached or answered
// with a failure of its own.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError reports that the backend understood the request and
// refused it, e.g. an unknown room code.
type RejectedError struct {
	Op     string
	Reason string
	// Status is the HTTP status of the refusal, 0 when none applies.
	Status int
}

func (e *RejectedError) Error() string { return e.Op + " rejected: " + e.Reason }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

func IsRejected(err error) bool {
	var r *RejectedError
	return errors.As(err, &r)
}
