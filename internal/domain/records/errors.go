package records

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("value must be unique")
	ErrInvalidRequest = errors.New("invalid request")
)

// ConflictError indica qué campo unique chocó.
type ConflictError struct {
	Collection string
	Field      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Collection, e.Field, ErrConflict.Error())
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
