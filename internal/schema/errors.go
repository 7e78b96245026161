package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrForbidden es genérico a propósito: nunca dice qué predicado falló.
	ErrForbidden = errors.New("the requested action is not allowed")

	ErrNameNotUnique      = errors.New("collection name must be unique")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidQuery       = errors.New("invalid filter or sort expression")
	ErrValidation         = errors.New("failed to validate record")
)

// FieldError describe la violación de una restricción de campo.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError agrupa errores por campo; se devuelve tal cual al caller.
type ValidationError struct {
	Collection string
	Fields     map[string]FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, e.Fields[n].Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add registra el primer error de un campo (los siguientes se ignoran).
func (e *ValidationError) Add(field, code, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]FieldError{}
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = FieldError{Code: code, Message: msg}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewFieldError es un atajo para un ValidationError de un solo campo.
func NewFieldError(field, code, msg string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, code, msg)
	return ve
}

// AsValidation extrae el ValidationError si err lo contiene.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
