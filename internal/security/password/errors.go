package password

import "errors"

var (
	ErrInvalidHash = errors.New("invalid password hash")
	ErrEmpty       = errors.New("password is empty")
)
