package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la orden de venta creada por conversión.
const SalesOrderConfirmed = "confirmada"

// SalesOrder orden de venta derivada de una factura (máximo una por factura).
type SalesOrder struct {
	ID          string
	InvoiceID   string
	CustomerID  string
	WarehouseID string
	Status      string
	OrderDate   time.Time
	Total       decimal.Decimal
	CreatedBy   string
	CreatedAt   time.Time
}

// SalesOrderItem línea de la orden de venta.
type SalesOrderItem struct {
	ID           string
	SalesOrderID string
	ProductID    string
	SerialID     *string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
}
