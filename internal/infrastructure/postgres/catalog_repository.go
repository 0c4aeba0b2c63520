package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.LocationRepository  = (*LocationRepo)(nil)
)

// ProductRepo lectura de productos (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, sku, name, price, tax_rate, tracking_method, default_location_id, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	var sku *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &sku, &p.Name, &p.Price, &p.TaxRate, &p.TrackingMethod, &p.DefaultLocationID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.SKU = derefString(sku)
	return &p, nil
}

// WarehouseRepo lectura de bodegas.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de bodegas. Pasar pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	var address *string
	err := r.q.QueryRow(ctx, `SELECT id, name, address, created_at, updated_at FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &address, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	w.Address = derefString(address)
	return &w, nil
}

// LocationRepo lectura de ubicaciones.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, `SELECT id, warehouse_id, code, name FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.WarehouseID, &l.Code, &l.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
