package billing

import (
	"context"
	"time"
)

// Locker bloqueo exclusivo por clave entre procesos (Redis) o dentro del proceso.
// Si la clave está tomada devuelve un error que envuelve domain.ErrConflict.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ResyncEnqueuer encola el reintento de la sincronización de inventario de una factura convertida.
type ResyncEnqueuer interface {
	EnqueueInventoryResync(ctx context.Context, invoiceID string) error
}

// Actor quien ejecuta la operación (del JWT).
type Actor struct {
	UserID string
	Role   string
}
