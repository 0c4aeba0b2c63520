package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// ProductSerialRepository define el puerto de persistencia del registro de seriales.
type ProductSerialRepository interface {
	Create(ctx context.Context, s *entity.ProductSerial) error
	GetByID(ctx context.Context, id string) (*entity.ProductSerial, error)
	ExistsByProductAndCode(ctx context.Context, productID, code string) (bool, error)
	// TransitionStatus cambia el estado sólo si el actual es from; false si ninguna fila coincidió.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.ProductSerial, error)
}
