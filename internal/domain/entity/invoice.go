package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de una factura.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "borrador"
	InvoiceIssued    InvoiceStatus = "emitida"
	InvoicePaid      InvoiceStatus = "pagada"
	InvoiceCancelled InvoiceStatus = "anulada"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:  {InvoiceDraft, InvoiceIssued, InvoiceCancelled, InvoicePaid},
	InvoiceIssued: {InvoiceIssued, InvoicePaid, InvoiceCancelled},
}

// CanTransitionTo valida la máquina de estados de la factura.
// borrador → pagada sólo ocurre por conversión a venta, que escribe el juego de salidas.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, t := range invoiceTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal indica pagada o anulada.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoicePaid || s == InvoiceCancelled
}

// Invoice cabecera de una factura.
type Invoice struct {
	ID           string
	Number       string
	CustomerID   string
	WarehouseID  string
	Status       InvoiceStatus
	SalesOrderID *string
	Date         time.Time
	NetTotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	GrandTotal   decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
