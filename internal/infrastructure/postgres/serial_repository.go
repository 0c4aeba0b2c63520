package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.ProductSerialRepository = (*ProductSerialRepo)(nil)

// ProductSerialRepo registro de seriales (usable con pool o tx).
type ProductSerialRepo struct {
	q Querier
}

// NewProductSerialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductSerialRepository(q Querier) *ProductSerialRepo {
	return &ProductSerialRepo{q: q}
}

const serialColumns = `id, product_id, serial_code, vin, engine_number, year, color, warehouse_id, location_id,
	status, purchase_order_id, created_at, updated_at`

func scanSerial(row pgx.Row) (*entity.ProductSerial, error) {
	var s entity.ProductSerial
	var vin, engine, color *string
	err := row.Scan(&s.ID, &s.ProductID, &s.SerialCode, &vin, &engine, &s.Year, &color, &s.WarehouseID, &s.LocationID,
		&s.Status, &s.PurchaseOrderID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.VIN, s.EngineNumber, s.Color = derefString(vin), derefString(engine), derefString(color)
	return &s, nil
}

// Create inserta un serial; un código repetido para el producto devuelve ErrDuplicate.
func (r *ProductSerialRepo) Create(ctx context.Context, s *entity.ProductSerial) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_serials (id, product_id, serial_code, vin, engine_number, year, color, warehouse_id,
			location_id, status, purchase_order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.ProductID, s.SerialCode, nullIfEmpty(s.VIN), nullIfEmpty(s.EngineNumber), s.Year, nullIfEmpty(s.Color),
		s.WarehouseID, s.LocationID, s.Status, s.PurchaseOrderID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("serial %s: %w", s.SerialCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert product serial: %w", err)
	}
	return nil
}

// GetByID obtiene un serial.
func (r *ProductSerialRepo) GetByID(ctx context.Context, id string) (*entity.ProductSerial, error) {
	s, err := scanSerial(r.q.QueryRow(ctx, `SELECT `+serialColumns+` FROM product_serials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product serial: %w", err)
	}
	return s, nil
}

// ExistsByProductAndCode indica si el código ya existe para el producto.
func (r *ProductSerialRepo) ExistsByProductAndCode(ctx context.Context, productID, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM product_serials WHERE product_id = $1 AND serial_code = $2)`,
		productID, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists product serial: %w", err)
	}
	return exists, nil
}

// TransitionStatus cambia el estado del serial con la condición en el mismo UPDATE: de dos
// transacciones que venden la misma unidad, la segunda espera el bloqueo de fila y luego no coincide.
func (r *ProductSerialRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE product_serials SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, fmt.Errorf("update product serial: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListAvailable seriales in_stock de un producto; warehouseID vacío no filtra por bodega.
func (r *ProductSerialRepo) ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.ProductSerial, error) {
	rows, err := r.q.Query(ctx, `SELECT `+serialColumns+`
		FROM product_serials
		WHERE product_id = $1 AND status = 'in_stock' AND ($2 = '' OR warehouse_id::text = $2)
		ORDER BY serial_code`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list product serials: %w", err)
	}
	defer rows.Close()
	var out []*entity.ProductSerial
	for rows.Next() {
		s, err := scanSerial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
