// Package redisstore guarda estado efímero compartido entre instancias del API.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taxi-pet/internal/domain/users"

	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "taxipet:oauth2:state:"

// Connect abre el cliente y hace ping (igual que postgres.Open).
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// OAuthStates implementa users.StateStore; el TTL lo maneja redis.
type OAuthStates struct {
	client redis.Cmdable
	prefix string
}

func NewOAuthStates(client redis.Cmdable) *OAuthStates {
	return &OAuthStates{client: client, prefix: defaultPrefix}
}

func (s *OAuthStates) Save(ctx context.Context, state string, e users.StateEntry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+state, b, ttl).Err()
}

// Take usa GETDEL: el state se consume de forma atómica aunque haya varias instancias.
func (s *OAuthStates) Take(ctx context.Context, state string) (users.StateEntry, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return users.StateEntry{}, users.ErrStateNotFound
	}
	if err != nil {
		return users.StateEntry{}, err
	}

	var e users.StateEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return users.StateEntry{}, fmt.Errorf("decode oauth2 state: %w", err)
	}
	return e, nil
}
