package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/inventario-kardex/internal/domain"
)

// Locker bloqueo exclusivo por clave dentro del proceso (sin Redis). No espera: si la clave
// está tomada y no ha vencido devuelve ErrConflict.
type Locker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLocker crea el bloqueo en memoria.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time), clock: time.Now}
}

// Acquire toma key durante ttl y devuelve la función que lo libera.
func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, fmt.Errorf("bloqueo %s en uso: %w", key, domain.ErrConflict)
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.Equal(exp) {
			delete(l.held, key)
		}
		return nil
	}, nil
}
