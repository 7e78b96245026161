package users

import "errors"

var (
	ErrInvalidCredentials = errors.New("failed to authenticate")
	ErrUnknownProvider    = errors.New("unknown oauth2 provider")
	ErrInvalidState       = errors.New("invalid or expired oauth2 state")
	ErrRedirectNotAllowed = errors.New("redirect url not allowed")
	ErrProviderExchange   = errors.New("oauth2 exchange failed")
	ErrStateNotFound      = errors.New("oauth2 state not found")
	// ErrTokenRevoked: firma válida pero el usuario ya no existe o rotó su tokenKey.
	ErrTokenRevoked       = errors.New("token revoked")
)
