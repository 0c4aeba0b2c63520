package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var (
	_ repository.MovementTypeRepository    = (*MovementTypeRepo)(nil)
	_ repository.StockMovementRepository   = (*StockMovementRepo)(nil)
	_ repository.StockProjectionRepository = (*StockProjectionRepo)(nil)
	_ repository.LockRepository            = (*AdvisoryLockRepo)(nil)
)

// MovementTypeRepo lectura del catálogo movement_types.
type MovementTypeRepo struct {
	q Querier
}

// NewMovementTypeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementTypeRepository(q Querier) *MovementTypeRepo {
	return &MovementTypeRepo{q: q}
}

// GetByCode busca un tipo por código exacto.
func (r *MovementTypeRepo) GetByCode(ctx context.Context, code string) (*entity.MovementType, error) {
	var mt entity.MovementType
	err := r.q.QueryRow(ctx, `SELECT id, code, name FROM movement_types WHERE code = $1`, code).
		Scan(&mt.ID, &mt.Code, &mt.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement type: %w", err)
	}
	return &mt, nil
}

// List devuelve el catálogo completo ordenado por código.
func (r *MovementTypeRepo) List(ctx context.Context) ([]*entity.MovementType, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name FROM movement_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list movement types: %w", err)
	}
	defer rows.Close()
	var out []*entity.MovementType
	for rows.Next() {
		var mt entity.MovementType
		if err := rows.Scan(&mt.ID, &mt.Code, &mt.Name); err != nil {
			return nil, err
		}
		out = append(out, &mt)
	}
	return out, rows.Err()
}

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `
	sm.id, sm.product_id, sm.warehouse_id, sm.location_id, sm.movement_type_id, mt.code,
	sm.quantity, sm.movement_date, sm.reference, sm.notes, sm.related_id, sm.serial_id,
	sm.created_at, sm.created_by`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var createdBy *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.WarehouseID, &m.LocationID, &m.MovementTypeID, &m.MovementTypeCode,
		&m.Quantity, &m.MovementDate, &m.Reference, &m.Notes, &m.RelatedID, &m.SerialID,
		&m.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}

// Create agrega una fila al kardex.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, warehouse_id, location_id, movement_type_id, quantity,
			movement_date, reference, notes, related_id, serial_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.WarehouseID, m.LocationID, m.MovementTypeID, m.Quantity,
		m.MovementDate, m.Reference, m.Notes, m.RelatedID, m.SerialID, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListByRelatedID movimientos de un id de correlación en orden de inserción.
func (r *StockMovementRepo) ListByRelatedID(ctx context.Context, relatedID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+`
		FROM stock_movements sm JOIN movement_types mt ON mt.id = sm.movement_type_id
		WHERE sm.related_id = $1
		ORDER BY sm.created_at, sm.id`, relatedID)
}

// ListByProduct kardex de un producto, más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+`
		FROM stock_movements sm JOIN movement_types mt ON mt.id = sm.movement_type_id
		WHERE sm.product_id = $1
		ORDER BY sm.movement_date DESC, sm.created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
}

// ExistsByRelatedIDAndType indica si ya hay movimientos de ese tipo para el id de correlación.
func (r *StockMovementRepo) ExistsByRelatedIDAndType(ctx context.Context, relatedID, movementTypeID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM stock_movements WHERE related_id = $1 AND movement_type_id = $2)`,
		relatedID, movementTypeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists stock movement: %w", err)
	}
	return exists, nil
}

// DeleteByRelatedID elimina los movimientos de un id de correlación (resincronización de facturas).
func (r *StockMovementRepo) DeleteByRelatedID(ctx context.Context, relatedID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE related_id = $1`, relatedID)
	if err != nil {
		return 0, fmt.Errorf("delete stock movements: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StockProjectionRepo lee las vistas current_stock_by_location y current_stock.
type StockProjectionRepo struct {
	q Querier
}

// NewStockProjectionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockProjectionRepository(q Querier) *StockProjectionRepo {
	return &StockProjectionRepo{q: q}
}

// CurrentQuantity suma la vista por ubicación; locationID nil agrega toda la bodega.
func (r *StockProjectionRepo) CurrentQuantity(ctx context.Context, productID, warehouseID string, locationID *string) (decimal.Decimal, error) {
	var q decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM current_stock_by_location
		WHERE product_id = $1 AND warehouse_id = $2
		  AND ($3::uuid IS NULL OR location_id = $3::uuid)`,
		productID, warehouseID, locationID).Scan(&q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("current quantity: %w", err)
	}
	return q, nil
}

// ByLocation filas de current_stock_by_location de un producto.
func (r *StockProjectionRepo) ByLocation(ctx context.Context, productID string) ([]entity.CurrentStockByLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, warehouse_id, location_id, quantity
		FROM current_stock_by_location
		WHERE product_id = $1
		ORDER BY warehouse_id, location_id NULLS FIRST`, productID)
	if err != nil {
		return nil, fmt.Errorf("stock by location: %w", err)
	}
	defer rows.Close()
	var out []entity.CurrentStockByLocation
	for rows.Next() {
		var s entity.CurrentStockByLocation
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.LocationID, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ByWarehouse filas de current_stock de un producto.
func (r *StockProjectionRepo) ByWarehouse(ctx context.Context, productID string) ([]entity.CurrentStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, warehouse_id, quantity
		FROM current_stock
		WHERE product_id = $1
		ORDER BY warehouse_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("stock by warehouse: %w", err)
	}
	defer rows.Close()
	var out []entity.CurrentStock
	for rows.Next() {
		var s entity.CurrentStock
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AdvisoryLockRepo bloqueos consultivos de transacción (pg_advisory_xact_lock).
// Fuera de una tx el bloqueo se libera de inmediato, por eso sólo se usa dentro de TxRunner.Run.
type AdvisoryLockRepo struct {
	q Querier
}

// NewAdvisoryLockRepository construye el adaptador.
func NewAdvisoryLockRepository(q Querier) *AdvisoryLockRepo {
	return &AdvisoryLockRepo{q: q}
}

// Lock espera hasta obtener el bloqueo exclusivo de key.
func (r *AdvisoryLockRepo) Lock(ctx context.Context, key string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
