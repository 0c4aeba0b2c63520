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

var (
	_ repository.InvoiceRepository    = (*InvoiceRepo)(nil)
	_ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)
)

// InvoiceRepo facturas y líneas (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (id, number, customer_id, warehouse_id, status, date, net_total, tax_total, grand_total,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.Number, inv.CustomerID, inv.WarehouseID, string(inv.Status), inv.Date,
		inv.NetTotal, inv.TaxTotal, inv.GrandTotal, nullIfEmpty(inv.CreatedBy), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update reemplaza cabecera, estado y totales.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET number = $2, customer_id = $3, warehouse_id = $4, status = $5, date = $6,
			net_total = $7, tax_total = $8, grand_total = $9, updated_at = $10
		WHERE id = $1`,
		inv.ID, inv.Number, inv.CustomerID, inv.WarehouseID, string(inv.Status), inv.Date,
		inv.NetTotal, inv.TaxTotal, inv.GrandTotal, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene la cabecera de la factura.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	var inv entity.Invoice
	var createdBy *string
	err := r.q.QueryRow(ctx, `
		SELECT id, number, customer_id, warehouse_id, status, sales_order_id, date, net_total, tax_total, grand_total,
			created_by, created_at, updated_at
		FROM invoices WHERE id = $1`, id).Scan(
		&inv.ID, &inv.Number, &inv.CustomerID, &inv.WarehouseID, &inv.Status, &inv.SalesOrderID, &inv.Date,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &createdBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.CreatedBy = derefString(createdBy)
	return &inv, nil
}

// ListItems líneas de la factura.
func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, product_id, serial_id, quantity, unit_price, tax_rate, discount, subtotal
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var out []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.SerialID, &it.Quantity, &it.UnitPrice,
			&it.TaxRate, &it.Discount, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// ReplaceItems borra las líneas de la factura e inserta las nuevas en orden.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []*entity.InvoiceItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	for i, it := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, position, product_id, serial_id, quantity, unit_price, tax_rate, discount, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, invoiceID, i+1, it.ProductID, it.SerialID, it.Quantity, it.UnitPrice, it.TaxRate, it.Discount, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

// UpdateStatus cambia el estado de la factura.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkConverted fija pagada y sales_order_id; sólo aplica si aún no tenía orden de venta.
func (r *InvoiceRepo) MarkConverted(ctx context.Context, id, salesOrderID string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET status = 'pagada', sales_order_id = $2, updated_at = now()
		WHERE id = $1 AND sales_order_id IS NULL`, id, salesOrderID)
	if err != nil {
		return fmt.Errorf("mark invoice converted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// SalesOrderRepo órdenes de venta (usable con pool o tx).
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create inserta la orden; la restricción única sobre invoice_id impide una segunda orden por factura.
func (r *SalesOrderRepo) Create(ctx context.Context, so *entity.SalesOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales_orders (id, invoice_id, customer_id, warehouse_id, status, order_date, total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		so.ID, so.InvoiceID, so.CustomerID, so.WarehouseID, so.Status, so.OrderDate, so.Total, nullIfEmpty(so.CreatedBy), so.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("orden de venta para factura %s: %w", so.InvoiceID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert sales order: %w", err)
	}
	return nil
}

// CreateItems inserta las líneas de la orden.
func (r *SalesOrderRepo) CreateItems(ctx context.Context, items []*entity.SalesOrderItem) error {
	for _, it := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sales_order_items (id, sales_order_id, product_id, serial_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.SalesOrderID, it.ProductID, it.SerialID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert sales order item: %w", err)
		}
	}
	return nil
}

// GetByInvoiceID obtiene la orden de venta de una factura.
func (r *SalesOrderRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.SalesOrder, error) {
	var so entity.SalesOrder
	var createdBy *string
	err := r.q.QueryRow(ctx, `
		SELECT id, invoice_id, customer_id, warehouse_id, status, order_date, total, created_by, created_at
		FROM sales_orders WHERE invoice_id = $1`, invoiceID).Scan(
		&so.ID, &so.InvoiceID, &so.CustomerID, &so.WarehouseID, &so.Status, &so.OrderDate, &so.Total, &createdBy, &so.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	so.CreatedBy = derefString(createdBy)
	return &so, nil
}

// Delete elimina la orden y sus líneas.
func (r *SalesOrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sales_order_items WHERE sales_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete sales order items: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete sales order: %w", err)
	}
	return nil
}
