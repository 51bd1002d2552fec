package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SesionStore keeps the single active session (token id) of each user.
// A new login replaces the previous one, so older tokens stop validating.
type SesionStore interface {
	Guardar(ctx context.Context, usuarioID, sesionID string, ttl time.Duration) error
	// Activa returns the active session id, or "" when the user has none.
	Activa(ctx context.Context, usuarioID string) (string, error)
	Cerrar(ctx context.Context, usuarioID string) error
}

type redisSesionStore struct{ rdb *redis.Client }

func NewSesionStore(rdb *redis.Client) SesionStore { return &redisSesionStore{rdb: rdb} }

func sesionKey(usuarioID string) string { return "sesion:" + usuarioID }

func (s *redisSesionStore) Guardar(ctx context.Context, usuarioID, sesionID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sesionKey(usuarioID), sesionID, ttl).Err()
}

func (s *redisSesionStore) Activa(ctx context.Context, usuarioID string) (string, error) {
	id, err := s.rdb.Get(ctx, sesionKey(usuarioID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (s *redisSesionStore) Cerrar(ctx context.Context, usuarioID string) error {
	return s.rdb.Del(ctx, sesionKey(usuarioID)).Err()
}
