package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia de órdenes de compra y recepciones.
type PurchaseOrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la fila de la orden hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	ListItems(ctx context.Context, orderID string) ([]*entity.PurchaseOrderItem, error)
	UpdateStatus(ctx context.Context, id string, status entity.PurchaseOrderStatus) error
	UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error
	CreateReceipt(ctx context.Context, r *entity.PurchaseReceipt) error
}
