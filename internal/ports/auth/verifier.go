package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma un token de sesión para claims.
type TokenIssuer interface {
	Issue(ctx context.Context, claims Claims) (token string, err error)
}
