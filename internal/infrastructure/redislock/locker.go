// Package redislock implementa un bloqueo exclusivo entre procesos sobre Redis (SET NX PX).
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-kardex/internal/domain"
)

const keyPrefix = "kardex:lock:"

// Sólo borra la clave si sigue siendo nuestra (otro proceso pudo tomarla tras vencer el TTL).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker bloqueo por clave con vencimiento.
type Locker struct {
	client redis.UniversalClient
}

// New crea el bloqueo sobre un cliente Redis.
func New(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// Acquire toma key durante ttl. Si ya está tomada devuelve un error que envuelve domain.ErrConflict.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	k := keyPrefix + key
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redislock: tomar %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("redislock: %s en uso: %w", key, domain.ErrConflict)
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{k}, token).Err(); err != nil {
			return fmt.Errorf("redislock: liberar %s: %w", key, err)
		}
		return nil
	}, nil
}
