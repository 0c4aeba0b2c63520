package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaveInvoiceRequest body para POST /api/invoices y PUT /api/invoices/:id.
// Status borrador guarda sin tocar inventario; emitida descuenta stock (OUT_SALE).
type SaveInvoiceRequest struct {
	Number      string               `json:"number" validate:"required,max=50"`
	CustomerID  string               `json:"customer_id" validate:"required,uuid"`
	WarehouseID string               `json:"warehouse_id" validate:"required,uuid"`
	Date        *time.Time           `json:"date,omitempty"`
	Status      string               `json:"status" validate:"omitempty,oneof=borrador emitida"`
	Items       []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest línea de factura.
type InvoiceItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	SerialID  *string         `json:"serial_id,omitempty" validate:"omitempty,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// InvoiceResponse factura con detalle.
type InvoiceResponse struct {
	ID           string                  `json:"id"`
	Number       string                  `json:"number"`
	CustomerID   string                  `json:"customer_id"`
	WarehouseID  string                  `json:"warehouse_id"`
	Status       string                  `json:"status"`
	SalesOrderID *string                 `json:"sales_order_id,omitempty"`
	Date         time.Time               `json:"date"`
	NetTotal     decimal.Decimal         `json:"net_total"`
	TaxTotal     decimal.Decimal         `json:"tax_total"`
	GrandTotal   decimal.Decimal         `json:"grand_total"`
	SalesOrder   *SalesOrderResponse     `json:"sales_order,omitempty"`
	Details      []InvoiceDetailResponse `json:"details"`
	Movements    []MovementResponse      `json:"movements,omitempty"`
}

// SalesOrderResponse orden de venta creada al convertir la factura.
type SalesOrderResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	OrderDate time.Time       `json:"order_date"`
	Total     decimal.Decimal `json:"total"`
}

// InvoiceDetailResponse línea de detalle en la respuesta.
type InvoiceDetailResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	SerialID  *string         `json:"serial_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ConversionResponse resultado de POST /api/invoices/:id/convert.
// InventorySync es "sincronizado" o "degradado"; en el segundo caso el reintento queda encolado.
type ConversionResponse struct {
	InvoiceID        string `json:"invoice_id"`
	SalesOrderID     string `json:"sales_order_id"`
	Status           string `json:"status"`
	InventorySync    string `json:"inventory_sync"`
	MovementsCreated int    `json:"movements_created"`
	Warning          string `json:"warning,omitempty"`
}

// InventorySyncResponse resultado de POST /api/invoices/:id/inventory-sync.
type InventorySyncResponse struct {
	InvoiceID        string `json:"invoice_id"`
	MovementsCreated int    `json:"movements_created"`
}
