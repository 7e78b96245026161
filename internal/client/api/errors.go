package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"taxi-pet/internal/platform/httpclient"
)

// FieldError es el detalle por campo de un error de validación.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error es una respuesta no-2xx de la API: {"status","message","data"}.
type Error struct {
	Status  int                   `json:"status"`
	Message string                `json:"message"`
	Data    map[string]FieldError `json:"data"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.Status)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.Status, e.Message)
}

func (e *Error) IsValidation() bool   { return e.Status == http.StatusBadRequest && len(e.Data) > 0 }
func (e *Error) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *Error) IsForbidden() bool    { return e.Status == http.StatusForbidden }
func (e *Error) IsNotFound() bool     { return e.Status == http.StatusNotFound }
func (e *Error) IsConflict() bool     { return e.Status == http.StatusConflict }

// AsError extrae el *Error de la API si err lo contiene.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// fromHTTP traduce el HTTPError del transporte al formato de la API.
// Un body que no es JSON queda como message crudo.
func fromHTTP(err error) error {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		return err
	}
	out := &Error{}
	if jerr := json.Unmarshal(he.Body, out); jerr != nil {
		out.Message = string(he.Body)
	}
	out.Status = he.StatusCode
	return out
}
