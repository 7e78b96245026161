package users

import (
	"context"
	"time"
)

// OAuthProvider es un proveedor de login federado (redirect + code exchange, PKCE).
type OAuthProvider interface {
	Name() string
	DisplayName() string
	AuthURL(state, verifier, redirectURL string) string
	Exchange(ctx context.Context, code, verifier, redirectURL string) (ExternalUser, error)
}

// StateStore guarda el state OAuth2 hasta el callback. Take es de un solo uso.
type StateStore interface {
	Save(ctx context.Context, state string, e StateEntry, ttl time.Duration) error
	Take(ctx context.Context, state string) (StateEntry, error)
}

// AuthMetrics cuenta intentos de login (implementado por platform/metrics).
type AuthMetrics interface {
	AuthAttempt(method, outcome string)
}
