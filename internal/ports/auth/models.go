package auth

import "time"

// Claims representa la información extraída del token.
type Claims struct {
	UserID     string
	Email      string
	Collection string // colección auth que emitió el token ("users")
	TokenKey   string
	ExpiresAt  time.Time
}
