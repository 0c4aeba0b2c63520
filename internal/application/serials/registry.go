package serials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Input datos de una unidad recibida. Code es obligatorio; el resto es opcional (vehículos).
type Input struct {
	Code         string
	VIN          string
	EngineNumber string
	Year         *int
	Color        string
}

// ValidateSubmission verifica que una línea serializada traiga exactamente qty seriales,
// con código no vacío y sin repetidos dentro del envío.
func ValidateSubmission(product string, qty decimal.Decimal, serials []Input) error {
	if !qty.IsInteger() {
		return &domain.ValidationError{
			Code:    domain.CodeSerialMismatch,
			Message: "un producto serializado se recibe en unidades enteras",
			Product: product,
			Err:     domain.ErrSerialMismatch,
		}
	}
	if int64(len(serials)) != qty.IntPart() {
		return &domain.ValidationError{
			Code:    domain.CodeSerialMismatch,
			Message: fmt.Sprintf("se esperaban %s seriales y llegaron %d", qty.String(), len(serials)),
			Product: product,
			Err:     domain.ErrSerialMismatch,
		}
	}
	seen := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		code := strings.TrimSpace(s.Code)
		if code == "" {
			return &domain.ValidationError{
				Code:    domain.CodeSerialMismatch,
				Message: "el código de serial es obligatorio",
				Field:   "serials",
				Product: product,
				Err:     domain.ErrSerialMismatch,
			}
		}
		if _, dup := seen[code]; dup {
			return &domain.ValidationError{
				Code:    domain.CodeDuplicateSerial,
				Message: "serial repetido en el envío: " + code,
				Product: product,
				Err:     domain.ErrDuplicateSerial,
			}
		}
		seen[code] = struct{}{}
	}
	return nil
}

// Placement dónde queda la unidad recibida.
type Placement struct {
	WarehouseID     string
	LocationID      *string
	PurchaseOrderID *string
}

// Register crea un serial in_stock por cada entrada. Un código ya registrado para el producto es
// un error de validación. Debe llamarse dentro de la transacción de la recepción.
func Register(ctx context.Context, repo repository.ProductSerialRepository, product *entity.Product, at Placement, inputs []Input) ([]*entity.ProductSerial, error) {
	now := time.Now()
	out := make([]*entity.ProductSerial, 0, len(inputs))
	for _, in := range inputs {
		code := strings.TrimSpace(in.Code)
		exists, err := repo.ExistsByProductAndCode(ctx, product.ID, code)
		if err != nil {
			return nil, fmt.Errorf("verificar serial %s: %w", code, err)
		}
		if exists {
			return nil, &domain.ValidationError{
				Code:    domain.CodeDuplicateSerial,
				Message: "el serial " + code + " ya está registrado",
				Product: product.Label(),
				Err:     domain.ErrDuplicateSerial,
			}
		}
		s := &entity.ProductSerial{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			SerialCode:      code,
			VIN:             strings.TrimSpace(in.VIN),
			EngineNumber:    strings.TrimSpace(in.EngineNumber),
			Year:            in.Year,
			Color:           strings.TrimSpace(in.Color),
			WarehouseID:     at.WarehouseID,
			LocationID:      at.LocationID,
			Status:          entity.SerialInStock,
			PurchaseOrderID: at.PurchaseOrderID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.Create(ctx, s); err != nil {
			return nil, fmt.Errorf("registrar serial %s: %w", code, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CheckSellable verifica que el serial exista, sea del producto, esté en la bodega que vende y siga
// disponible. Es una lectura previa: la venta sólo queda firme con MarkSold.
func CheckSellable(ctx context.Context, repo repository.ProductSerialRepository, serialID, productID, warehouseID string) (*entity.ProductSerial, error) {
	s, err := repo.GetByID(ctx, serialID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("serial %s: %w", serialID, domain.ErrNotFound)
	}
	if s.ProductID != productID {
		return nil, &domain.ValidationError{
			Code:    domain.CodeSerialUnavailable,
			Message: "el serial " + s.SerialCode + " no pertenece al producto",
			Err:     domain.ErrSerialUnavailable,
		}
	}
	if s.WarehouseID != warehouseID {
		return nil, &domain.ValidationError{
			Code:    domain.CodeSerialUnavailable,
			Message: "el serial " + s.SerialCode + " no está en la bodega de la factura",
			Err:     domain.ErrSerialUnavailable,
		}
	}
	if !s.IsAvailable() {
		return nil, &domain.ValidationError{
			Code:    domain.CodeSerialUnavailable,
			Message: "el serial " + s.SerialCode + " ya fue vendido",
			Err:     domain.ErrSerialUnavailable,
		}
	}
	return s, nil
}

// MarkSold pasa el serial de in_stock a sold. Si otra transacción lo vendió primero devuelve
// ErrSerialUnavailable y la transacción que llama debe revertirse. Sólo la emisión de facturas lo llama.
func MarkSold(ctx context.Context, repo repository.ProductSerialRepository, serialID string) error {
	ok, err := repo.TransitionStatus(ctx, serialID, entity.SerialInStock, entity.SerialSold)
	if err != nil {
		return fmt.Errorf("marcar serial vendido: %w", err)
	}
	if !ok {
		return &domain.ValidationError{
			Code:    domain.CodeSerialUnavailable,
			Message: "el serial ya no está disponible para la venta",
			Err:     domain.ErrSerialUnavailable,
		}
	}
	return nil
}

// MarkReturned devuelve el serial de sold a in_stock cuando se revierte la salida que lo vendió.
// Un serial que ya estaba en stock no es error.
func MarkReturned(ctx context.Context, repo repository.ProductSerialRepository, serialID string) error {
	ok, err := repo.TransitionStatus(ctx, serialID, entity.SerialSold, entity.SerialInStock)
	if err != nil {
		return fmt.Errorf("devolver serial a stock: %w", err)
	}
	if ok {
		return nil
	}
	s, err := repo.GetByID(ctx, serialID)
	if err != nil {
		return fmt.Errorf("devolver serial a stock: %w", err)
	}
	if s == nil {
		return fmt.Errorf("serial %s: %w", serialID, domain.ErrNotFound)
	}
	if s.Status != entity.SerialInStock {
		return domain.InvalidState("el serial " + s.SerialCode + " está en estado " + s.Status)
	}
	return nil
}
