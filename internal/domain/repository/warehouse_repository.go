package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// WarehouseRepository define el puerto de lectura de bodegas.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}

// LocationRepository define el puerto de lectura de ubicaciones.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}
