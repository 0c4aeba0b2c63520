package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// ProductRepository define el puerto de lectura de productos.
type ProductRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
