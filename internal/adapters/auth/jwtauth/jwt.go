package jwtauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"taxi-pet/internal/ports/auth"
)

const (
	DefaultIssuer = "taxi-pet"
	MinSecretLen  = 32
)

var (
	ErrTokenEmpty   = errors.New("token is empty")
	ErrInvalidToken = errors.New("invalid token")
	ErrWeakSecret   = errors.New("jwt secret too short")
)

type tokenClaims struct {
	Email      string `json:"email,omitempty"`
	Collection string `json:"collectionName,omitempty"`
	TokenKey   string `json:"tokenKey,omitempty"`
	jwt.RegisteredClaims
}

// Signer emite y verifica tokens HS256. Implementa auth.TokenIssuer y auth.AuthVerifier.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New valida el secreto. Un secreto vacío genera uno efímero (tokens no sobreviven reinicios).
func New(secret string, ttl time.Duration) (*Signer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, MinSecretLen)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("jwt secret: %w", err)
		}
	}
	if len(key) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be > 0")
	}
	return &Signer{secret: key, issuer: DefaultIssuer, ttl: ttl, now: time.Now}, nil
}

func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) Issue(_ context.Context, c auth.Claims) (string, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return "", errors.New("jwt issue: missing user id")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	if !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(exp) {
		exp = c.ExpiresAt
	}

	tc := tokenClaims{
		Email:      c.Email,
		Collection: c.Collection,
		TokenKey:   c.TokenKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    s.issuer,
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(s.secret)
}

func (s *Signer) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(tc.Subject) == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return auth.Claims{
		UserID:     tc.Subject,
		Email:      tc.Email,
		Collection: tc.Collection,
		TokenKey:   tc.TokenKey,
		ExpiresAt:  tc.ExpiresAt.Time,
	}, nil
}
