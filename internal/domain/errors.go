package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrCodeMismatch      = errors.New("code mismatch")
	ErrItemInUse         = errors.New("item is referenced by active rental requests")
)

// ValidationError reports bad input. It is never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransitionError is returned when the request state machine refuses an action,
// either because the request is in an incompatible phase or because a
// confirmation code did not match.
type TransitionError struct {
	Action Action
	From   Phase
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s request: %v", e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }
