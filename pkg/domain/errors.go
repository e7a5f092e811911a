package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned (or carried by an InvariantError) when location state
// holds values that cannot survive serialization, such as functions or time.Time.
var ErrInvalidState = errors.New("invalid location state")

// ErrInvalidInput is returned when a location cannot be built from the given input.
var ErrInvalidInput = errors.New("invalid location input")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// InvariantError is the panic value raised by StatesAreEqual for forbidden state values.
// It signals a caller contract violation, not a recoverable condition.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidState, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvalidState
}
