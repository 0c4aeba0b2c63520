package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMovementSign_PrefijoDecide(t *testing.T) {
	assert.Equal(t, 1, MovementSign(MovementCodeInPurchase))
	assert.Equal(t, 1, MovementSign("IN_RETURN"))
	assert.Equal(t, -1, MovementSign(MovementCodeOutSale))
	assert.Equal(t, -1, MovementSign("OUT_DAMAGE"))
	assert.Equal(t, -1, MovementSign("OUTMERMA"))
	assert.Equal(t, 1, MovementSign("INAJUSTE"))
	assert.Equal(t, 0, MovementSign("AJUSTE"))
	assert.Equal(t, 0, MovementSign(""))

	q := decimal.NewFromInt(3)
	assert.True(t, SignedQuantity(MovementCodeOutTransfer, q).Equal(decimal.NewFromInt(-3)))
	assert.True(t, SignedQuantity(MovementCodeInTransfer, q).Equal(q))
	assert.True(t, SignedQuantity("X", q).IsZero())
}

func TestFoldMovements_ProyeccionPorUbicacion(t *testing.T) {
	loc := "loc-1"
	ms := []*StockMovement{
		{ProductID: "p", WarehouseID: "w", LocationID: &loc, MovementTypeCode: MovementCodeInPurchase, Quantity: decimal.NewFromInt(10)},
		{ProductID: "p", WarehouseID: "w", LocationID: &loc, MovementTypeCode: MovementCodeOutSale, Quantity: decimal.NewFromInt(3)},
		{ProductID: "p", WarehouseID: "w", MovementTypeCode: MovementCodeInAdjust, Quantity: decimal.NewFromInt(2)},
	}
	rows := FoldMovements(ms)
	assert.Len(t, rows, 2)
	assert.True(t, rows[0].Quantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, rows[1].Quantity.Equal(decimal.NewFromInt(2)))

	wh := RollupByWarehouse(rows)
	assert.Len(t, wh, 1)
	assert.True(t, wh[0].Quantity.Equal(decimal.NewFromInt(9)))
}

func TestPurchaseOrderStatus_Transiciones(t *testing.T) {
	assert.True(t, PurchaseOrderDraft.CanTransitionTo(PurchaseOrderSent))
	assert.False(t, PurchaseOrderDraft.CanReceive())
	assert.True(t, PurchaseOrderSent.CanReceive())
	assert.True(t, PurchaseOrderPartiallyReceived.CanReceive())
	assert.False(t, PurchaseOrderCompleted.CanReceive())
	assert.False(t, PurchaseOrderCancelled.CanReceive())
	assert.True(t, PurchaseOrderSent.CanCancel())
	assert.False(t, PurchaseOrderPartiallyReceived.CanCancel())
	assert.False(t, PurchaseOrderCompleted.CanTransitionTo(PurchaseOrderPartiallyReceived))

	it := &PurchaseOrderItem{Quantity: decimal.NewFromInt(10), ReceivedQuantity: decimal.NewFromInt(6)}
	assert.True(t, it.Remaining().Equal(decimal.NewFromInt(4)))
	assert.False(t, it.IsComplete())
	it.ReceivedQuantity = decimal.NewFromInt(10)
	assert.True(t, it.Remaining().IsZero())
	assert.True(t, it.IsComplete())
}

func TestInvoiceStatus_Transiciones(t *testing.T) {
	assert.True(t, InvoiceDraft.CanTransitionTo(InvoiceIssued))
	assert.True(t, InvoiceDraft.CanTransitionTo(InvoicePaid))
	assert.True(t, InvoiceIssued.CanTransitionTo(InvoiceIssued))
	assert.True(t, InvoiceIssued.CanTransitionTo(InvoiceCancelled))
	assert.False(t, InvoiceIssued.CanTransitionTo(InvoiceDraft))
	assert.False(t, InvoicePaid.CanTransitionTo(InvoiceCancelled))
	assert.False(t, InvoiceCancelled.CanTransitionTo(InvoiceIssued))
	assert.True(t, InvoicePaid.IsTerminal())
	assert.True(t, InvoiceCancelled.IsTerminal())
	assert.False(t, InvoiceIssued.IsTerminal())
}
