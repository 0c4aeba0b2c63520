package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Service expone el kardex: registro de movimientos manuales y consultas de la proyección.
// La proyección se deriva siempre de los movimientos; no existe escritura directa de stock.
type Service struct {
	txRunner  TxRunner
	registry  *Registry
	stock     repository.StockProjectionRepository
	movements repository.StockMovementRepository
	policy    Policy
}

// NewService construye el servicio.
func NewService(
	txRunner TxRunner,
	registry *Registry,
	stock repository.StockProjectionRepository,
	movements repository.StockMovementRepository,
	policy Policy,
) *Service {
	return &Service{
		txRunner:  txRunner,
		registry:  registry,
		stock:     stock,
		movements: movements,
		policy:    policy,
	}
}

// RecordMovement registra una entrada o salida manual. El código se resuelve antes de abrir
// la transacción: un código ausente aborta sin escribir nada.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	mt, err := s.registry.Resolve(ctx, in.TypeCode)
	if err != nil {
		return nil, err
	}

	var out *entity.StockMovement
	err = s.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		w := NewWriter(repos, s.policy)
		if _, _, err := w.CheckRefs(ctx, in.Key()); err != nil {
			return err
		}
		m, err := w.Append(ctx, mt, in)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MovementTypes devuelve el catálogo utilizable para movimientos manuales.
func (s *Service) MovementTypes(ctx context.Context) ([]*entity.MovementType, error) {
	return s.registry.List(ctx)
}

// CurrentQuantity devuelve el stock de la clave; locationID nil agrega toda la bodega,
// incluidos los movimientos sin ubicación.
func (s *Service) CurrentQuantity(ctx context.Context, productID, warehouseID string, locationID *string) (decimal.Decimal, error) {
	if productID == "" || warehouseID == "" {
		return decimal.Zero, domain.NewValidationError("product_id", "producto y bodega son obligatorios")
	}
	q, err := s.stock.CurrentQuantity(ctx, productID, warehouseID, locationID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("consultar stock: %w", err)
	}
	return q, nil
}

// StockByLocation devuelve la proyección por ubicación de un producto.
func (s *Service) StockByLocation(ctx context.Context, productID string) ([]entity.CurrentStockByLocation, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "el producto es obligatorio")
	}
	return s.stock.ByLocation(ctx, productID)
}

// StockByWarehouse devuelve la proyección por bodega de un producto.
func (s *Service) StockByWarehouse(ctx context.Context, productID string) ([]entity.CurrentStock, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "el producto es obligatorio")
	}
	return s.stock.ByWarehouse(ctx, productID)
}

// MovementsByRelatedID lista los movimientos de un id de correlación (factura, traslado).
func (s *Service) MovementsByRelatedID(ctx context.Context, relatedID string) ([]*entity.StockMovement, error) {
	if relatedID == "" {
		return nil, domain.NewValidationError("related_id", "el id de correlación es obligatorio")
	}
	return s.movements.ListByRelatedID(ctx, relatedID)
}

// MovementsByProduct lista el kardex de un producto (más reciente primero).
func (s *Service) MovementsByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.movements.ListByProduct(ctx, productID, limit, offset)
}
