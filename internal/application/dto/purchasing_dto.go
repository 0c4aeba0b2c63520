package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceivePurchaseOrderRequest body para POST /api/purchase-orders/:id/receive.
type ReceivePurchaseOrderRequest struct {
	Items []ReceiveItemRequest `json:"items" validate:"required,min=1,dive"`
	Date  *time.Time           `json:"date,omitempty"`
}

// ReceiveItemRequest cantidad recibida de una línea; serials sólo para productos serializados.
type ReceiveItemRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity"`
	Serials  []SerialInput   `json:"serials,omitempty" validate:"dive"`
}

// SerialInput datos de una unidad recibida.
type SerialInput struct {
	SerialCode   string `json:"serial_code" validate:"required,max=100"`
	VIN          string `json:"vin,omitempty" validate:"max=50"`
	EngineNumber string `json:"engine_number,omitempty" validate:"max=50"`
	Year         *int   `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Color        string `json:"color,omitempty" validate:"max=50"`
}

// ReceiptResponse línea recibida.
type ReceiptResponse struct {
	ID       string          `json:"id"`
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReceivePurchaseOrderResponse resultado de la recepción.
type ReceivePurchaseOrderResponse struct {
	OrderID   string             `json:"order_id"`
	Status    string             `json:"status"`
	Receipts  []ReceiptResponse  `json:"receipts"`
	Movements []MovementResponse `json:"movements"`
	Serials   []SerialResponse   `json:"serials,omitempty"`
}

// PurchaseOrderStatusResponse respuesta de send y cancel.
type PurchaseOrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
