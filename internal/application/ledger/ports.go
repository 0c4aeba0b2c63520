package ledger

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo lo escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error
}

// Policy reglas del motor de inventario.
type Policy struct {
	// AllowNegativeStock desactiva la verificación de stock en salidas.
	AllowNegativeStock bool
}
