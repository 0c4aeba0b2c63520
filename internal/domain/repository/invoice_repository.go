package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	// Update reemplaza cabecera y totales (no cambia sales_order_id).
	Update(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	ReplaceItems(ctx context.Context, invoiceID string, items []*entity.InvoiceItem) error
	UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus) error
	// MarkConverted fija status pagada y sales_order_id en una sola escritura.
	MarkConverted(ctx context.Context, id, salesOrderID string) error
}

// SalesOrderRepository define el puerto de persistencia de órdenes de venta.
type SalesOrderRepository interface {
	Create(ctx context.Context, so *entity.SalesOrder) error
	CreateItems(ctx context.Context, items []*entity.SalesOrderItem) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.SalesOrder, error)
	// Delete elimina la orden y sus líneas.
	Delete(ctx context.Context, id string) error
}
