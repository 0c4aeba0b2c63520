package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// MovementInput datos de un movimiento. Quantity siempre positiva; el signo lo da el tipo.
type MovementInput struct {
	ProductID   string
	WarehouseID string
	LocationID  *string
	Quantity    decimal.Decimal
	TypeCode    string
	Date        time.Time
	Reference   string
	Notes       string
	RelatedID   *string
	SerialID    *string
	UserID      string
}

// Key devuelve la clave de stock afectada.
func (in MovementInput) Key() entity.StockKey {
	return entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID, LocationID: in.LocationID}
}

func (in MovementInput) validate() error {
	if in.ProductID == "" {
		return domain.NewValidationError("product_id", "el producto es obligatorio")
	}
	if in.WarehouseID == "" {
		return domain.NewValidationError("warehouse_id", "la bodega es obligatoria")
	}
	if !in.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	return nil
}

// Demand cantidad que una operación va a sacar de una clave de stock.
type Demand struct {
	Key      entity.StockKey
	Quantity decimal.Decimal
}

// Writer agrega movimientos al kardex dentro de una transacción ya abierta.
// Toda salida pasa por Guard: bloqueo por producto+bodega y relectura de la proyección.
type Writer struct {
	repos  repository.Repos
	policy Policy
	now    func() time.Time
}

// NewWriter crea un Writer atado a los repositorios de la transacción.
func NewWriter(repos repository.Repos, policy Policy) *Writer {
	return &Writer{repos: repos, policy: policy, now: time.Now}
}

// Append valida y persiste un movimiento del tipo ya resuelto.
func (w *Writer) Append(ctx context.Context, mt *entity.MovementType, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if mt == nil || mt.Sign() == 0 {
		return nil, domain.MissingMovementType(in.TypeCode)
	}
	if mt.IsOutbound() {
		if err := w.Guard(ctx, []Demand{{Key: in.Key(), Quantity: in.Quantity}}); err != nil {
			return nil, err
		}
	}

	now := w.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	m := &entity.StockMovement{
		ID:               uuid.New().String(),
		ProductID:        in.ProductID,
		WarehouseID:      in.WarehouseID,
		LocationID:       in.LocationID,
		MovementTypeID:   mt.ID,
		MovementTypeCode: mt.Code,
		Quantity:         in.Quantity,
		MovementDate:     date,
		Reference:        in.Reference,
		Notes:            in.Notes,
		RelatedID:        in.RelatedID,
		SerialID:         in.SerialID,
		CreatedAt:        now,
		CreatedBy:        in.UserID,
	}
	if err := w.repos.Movements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("registrar movimiento: %w", err)
	}
	return m, nil
}

// Guard bloquea las claves en orden y verifica que cada demanda agregada quepa en el stock actual.
// El bloqueo se mantiene hasta el fin de la transacción.
func (w *Writer) Guard(ctx context.Context, demands []Demand) error {
	if w.policy.AllowNegativeStock || len(demands) == 0 {
		return nil
	}

	totals := make(map[string]*Demand)
	var order []string
	lockSet := make(map[string]struct{})
	for _, d := range demands {
		k := d.Key.String()
		if agg, ok := totals[k]; ok {
			agg.Quantity = agg.Quantity.Add(d.Quantity)
		} else {
			cp := d
			totals[k] = &cp
			order = append(order, k)
		}
		lockSet[d.Key.LockKey()] = struct{}{}
	}

	locks := make([]string, 0, len(lockSet))
	for k := range lockSet {
		locks = append(locks, k)
	}
	sort.Strings(locks)
	for _, k := range locks {
		if err := w.repos.Locks.Lock(ctx, k); err != nil {
			return fmt.Errorf("bloquear %s: %w", k, err)
		}
	}

	for _, k := range order {
		d := totals[k]
		available, err := w.repos.Stock.CurrentQuantity(ctx, d.Key.ProductID, d.Key.WarehouseID, d.Key.LocationID)
		if err != nil {
			return fmt.Errorf("consultar stock: %w", err)
		}
		if available.LessThan(d.Quantity) {
			product, location := w.labels(ctx, d.Key)
			return domain.InsufficientStock(product, location, d.Quantity, available)
		}
	}
	return nil
}

// labels arma los nombres legibles de producto y ubicación para el mensaje de error.
func (w *Writer) labels(ctx context.Context, key entity.StockKey) (string, string) {
	product := key.ProductID
	if p, err := w.repos.Products.GetByID(ctx, key.ProductID); err == nil && p != nil {
		product = p.Label()
	}
	location := key.WarehouseID
	if wh, err := w.repos.Warehouses.GetByID(ctx, key.WarehouseID); err == nil && wh != nil {
		location = wh.Name
	}
	if key.LocationID != nil {
		if loc, err := w.repos.Locations.GetByID(ctx, *key.LocationID); err == nil && loc != nil {
			location += " / " + loc.Name
		} else {
			location += " / " + *key.LocationID
		}
	}
	return product, location
}

// CheckRefs verifica que producto, bodega y ubicación existan y que la ubicación pertenezca a la bodega.
func (w *Writer) CheckRefs(ctx context.Context, key entity.StockKey) (*entity.Product, *entity.Warehouse, error) {
	product, err := w.repos.Products.GetByID(ctx, key.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("producto %s: %w", key.ProductID, domain.ErrNotFound)
	}
	wh, err := w.repos.Warehouses.GetByID(ctx, key.WarehouseID)
	if err != nil {
		return nil, nil, err
	}
	if wh == nil {
		return nil, nil, fmt.Errorf("bodega %s: %w", key.WarehouseID, domain.ErrNotFound)
	}
	if key.LocationID != nil {
		loc, err := w.repos.Locations.GetByID(ctx, *key.LocationID)
		if err != nil {
			return nil, nil, err
		}
		if loc == nil {
			return nil, nil, fmt.Errorf("ubicación %s: %w", *key.LocationID, domain.ErrNotFound)
		}
		if loc.WarehouseID != nil && *loc.WarehouseID != key.WarehouseID {
			return nil, nil, domain.NewValidationError("location_id", "la ubicación "+loc.Name+" no pertenece a la bodega "+wh.Name)
		}
	}
	return product, wh, nil
}
