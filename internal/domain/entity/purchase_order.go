package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus estado de una orden de compra.
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft             PurchaseOrderStatus = "borrador"
	PurchaseOrderSent              PurchaseOrderStatus = "enviada"
	PurchaseOrderPartiallyReceived PurchaseOrderStatus = "recibida_parcialmente"
	PurchaseOrderCompleted         PurchaseOrderStatus = "completada"
	PurchaseOrderCancelled         PurchaseOrderStatus = "cancelada"
)

var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderDraft:             {PurchaseOrderSent, PurchaseOrderCancelled},
	PurchaseOrderSent:              {PurchaseOrderPartiallyReceived, PurchaseOrderCompleted, PurchaseOrderCancelled},
	PurchaseOrderPartiallyReceived: {PurchaseOrderPartiallyReceived, PurchaseOrderCompleted},
}

// CanTransitionTo valida la máquina de estados de la orden.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, t := range purchaseOrderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanReceive indica si se aceptan recepciones en este estado.
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderSent || s == PurchaseOrderPartiallyReceived
}

// CanCancel indica si la orden aún no tiene recepciones.
func (s PurchaseOrderStatus) CanCancel() bool {
	return s == PurchaseOrderDraft || s == PurchaseOrderSent
}

// PurchaseOrder cabecera de una orden de compra.
type PurchaseOrder struct {
	ID          string
	Number      string
	SupplierID  string
	WarehouseID *string
	Status      PurchaseOrderStatus
	OrderDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PurchaseOrderItem línea de una orden de compra. ReceivedQuantity nunca supera Quantity.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	Quantity         decimal.Decimal
	ReceivedQuantity decimal.Decimal
	UnitCost         decimal.Decimal
}

// Remaining cantidad pendiente por recibir.
func (i *PurchaseOrderItem) Remaining() decimal.Decimal {
	r := i.Quantity.Sub(i.ReceivedQuantity)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// IsComplete indica si la línea ya se recibió por completo.
func (i *PurchaseOrderItem) IsComplete() bool {
	return i.ReceivedQuantity.GreaterThanOrEqual(i.Quantity)
}

// PurchaseReceipt registra una recepción de una línea.
type PurchaseReceipt struct {
	ID                  string
	PurchaseOrderID     string
	PurchaseOrderItemID string
	ProductID           string
	Quantity            decimal.Decimal
	ReceivedAt          time.Time
	ReceivedBy          string
}
