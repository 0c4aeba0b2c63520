package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// MovementTypeRepository consulta el catálogo movement_types (sólo lectura).
type MovementTypeRepository interface {
	// GetByCode devuelve nil, nil si el código no existe.
	GetByCode(ctx context.Context, code string) (*entity.MovementType, error)
	List(ctx context.Context) ([]*entity.MovementType, error)
}

// StockMovementRepository persiste el kardex. Sólo se agregan filas; la única eliminación
// permitida es la resincronización de una factura por related_id.
type StockMovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	ListByRelatedID(ctx context.Context, relatedID string) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
	ExistsByRelatedIDAndType(ctx context.Context, relatedID, movementTypeID string) (bool, error)
	DeleteByRelatedID(ctx context.Context, relatedID string) (int64, error)
}

// StockProjectionRepository lee las proyecciones derivadas del kardex.
type StockProjectionRepository interface {
	// CurrentQuantity suma con signo los movimientos de la clave; locationID nil agrega toda la bodega.
	CurrentQuantity(ctx context.Context, productID, warehouseID string, locationID *string) (decimal.Decimal, error)
	ByLocation(ctx context.Context, productID string) ([]entity.CurrentStockByLocation, error)
	ByWarehouse(ctx context.Context, productID string) ([]entity.CurrentStock, error)
}

// LockRepository toma bloqueos exclusivos liberados al terminar la transacción.
type LockRepository interface {
	Lock(ctx context.Context, key string) error
}
