package session

import (
	"errors"
	"fmt"
	"strings"

	"taxi-pet/internal/client/api"
	"taxi-pet/internal/security/password"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded: la respuesta llegó después de un logout y se descartó.
	ErrSuperseded      = errors.New("session changed while the request was in flight")
	ErrWeakPassword    = errors.New("password does not satisfy the policy")
	ErrAutoLoginFailed = errors.New("account created but automatic login failed")
	ErrStateMismatch   = errors.New("oauth2 state mismatch")
	ErrProviderDenied  = errors.New("oauth2 provider denied the request")
	ErrNoRedirector    = errors.New("no redirector configured for federated login")
)

// PolicyError se devuelve antes de cualquier llamada remota.
type PolicyError struct {
	Violations []password.Violation
	Mismatch   bool
}

func (e *PolicyError) Error() string {
	msgs := password.Messages(e.Violations)
	if e.Mismatch {
		msgs = append(msgs, "Passwords do not match")
	}
	return "invalid password: " + strings.Join(msgs, "; ")
}

func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

// AutoLoginError: la cuenta existe (Identity) pero el login posterior falló.
type AutoLoginError struct {
	Identity api.Record
	Err      error
}

func (e *AutoLoginError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAutoLoginFailed, e.Err)
}

func (e *AutoLoginError) Unwrap() []error { return []error{ErrAutoLoginFailed, e.Err} }
