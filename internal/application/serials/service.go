package serials

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Service consultas del registro de seriales.
type Service struct {
	repo repository.ProductSerialRepository
}

// NewService construye el servicio de consulta.
func NewService(repo repository.ProductSerialRepository) *Service {
	return &Service{repo: repo}
}

// Get devuelve un serial por id.
func (s *Service) Get(ctx context.Context, id string) (*entity.ProductSerial, error) {
	ps, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, fmt.Errorf("serial %s: %w", id, domain.ErrNotFound)
	}
	return ps, nil
}

// ListAvailable lista las unidades en stock de un producto, opcionalmente por bodega.
func (s *Service) ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.ProductSerial, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "el producto es obligatorio")
	}
	return s.repo.ListAvailable(ctx, productID, warehouseID)
}
