package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra, líneas y recepciones (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseOrderColumns = `id, number, supplier_id, warehouse_id, status, order_date, created_at, updated_at`

func (r *PurchaseOrderRepo) get(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	var supplier *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Number, &supplier, &o.WarehouseID, &o.Status, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	o.SupplierID = derefString(supplier)
	return &o, nil
}

// GetByID obtiene la cabecera de la orden.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate obtiene la orden y bloquea la fila (SELECT FOR UPDATE).
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

// ListItems líneas de la orden.
func (r *PurchaseOrderRepo) ListItems(ctx context.Context, orderID string) ([]*entity.PurchaseOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, received_quantity, unit_cost
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	var out []*entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.ReceivedQuantity, &it.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// UpdateStatus cambia el estado de la orden.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id string, status entity.PurchaseOrderStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItemReceived fija la cantidad recibida de una línea. La BD rechaza superar la cantidad pedida.
func (r *PurchaseOrderRepo) UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE purchase_order_items SET received_quantity = $2 WHERE id = $1`, itemID, received)
	if err != nil {
		return fmt.Errorf("update received quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateReceipt registra una recepción.
func (r *PurchaseOrderRepo) CreateReceipt(ctx context.Context, rc *entity.PurchaseReceipt) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_receipts (id, purchase_order_id, purchase_order_item_id, product_id, quantity, received_at, received_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rc.ID, rc.PurchaseOrderID, rc.PurchaseOrderItemID, rc.ProductID, rc.Quantity, rc.ReceivedAt, nullIfEmpty(rc.ReceivedBy),
	)
	if err != nil {
		return fmt.Errorf("insert purchase receipt: %w", err)
	}
	return nil
}
