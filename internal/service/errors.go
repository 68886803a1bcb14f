package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrEventNotFound   = errors.New("event not found")
	ErrAccountNotFound = errors.New("account not found")
	// ErrEventCompleted is a validation error: the event is terminal.
	ErrEventCompleted = fmt.Errorf("event already completed: %w", ErrValidation)
)

// ValidationError reports bad caller input. Nothing is written when it is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialWriteError means a multi-step ledger mutation failed after some of
// its writes were already committed. Committed lists those steps in order.
type PartialWriteError struct {
	Op        string
	Step      string
	Committed []string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: step %q failed after [%s]: %v", e.Op, e.Step, strings.Join(e.Committed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
