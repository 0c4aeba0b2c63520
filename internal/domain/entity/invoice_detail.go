package entity

import "github.com/shopspring/decimal"

// InvoiceItem línea de una factura. SerialID apunta a la unidad vendida si el producto es serializado.
type InvoiceItem struct {
	ID        string
	InvoiceID string
	ProductID string
	SerialID  *string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
}
