package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Type es un código del catálogo (IN_ADJUST, OUT_ADJUST, ...); quantity siempre positiva.
type RegisterMovementRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	LocationID  *string         `json:"location_id,omitempty" validate:"omitempty,uuid"`
	Type        string          `json:"type" validate:"required,min=3,max=50"`
	Quantity    decimal.Decimal `json:"quantity"`
	Date        *time.Time      `json:"date,omitempty"`
	Reference   string          `json:"reference,omitempty" validate:"max=200"`
	Notes       string          `json:"notes,omitempty"`
	RelatedID   *string         `json:"related_id,omitempty" validate:"omitempty,uuid"`
	SerialID    *string         `json:"serial_id,omitempty" validate:"omitempty,uuid"`
}

// MovementResponse movimiento del kardex.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	LocationID     *string         `json:"location_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	SignedQuantity decimal.Decimal `json:"signed_quantity"`
	Date           time.Time       `json:"date"`
	Reference      string          `json:"reference,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	RelatedID      *string         `json:"related_id,omitempty"`
	SerialID       *string         `json:"serial_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MovementTypeResponse entrada del catálogo de tipos; Direction es "in" u "out".
type MovementTypeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

// StockQuery parámetros de GET /api/inventory/stock.
type StockQuery struct {
	ProductID   string `query:"product_id" validate:"required,uuid"`
	WarehouseID string `query:"warehouse_id" validate:"required,uuid"`
	LocationID  string `query:"location_id" validate:"omitempty,uuid"`
}

// StockResponse cantidad disponible en una clave de stock. LocationID nulo = toda la bodega.
type StockResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	LocationID  *string         `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	Lines     []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
	Date      *time.Time            `json:"date,omitempty"`
	Reference string                `json:"reference,omitempty" validate:"max=200"`
	Notes     string                `json:"notes,omitempty"`
}

// TransferLineRequest una línea del traslado.
type TransferLineRequest struct {
	ProductID       string          `json:"product_id" validate:"required,uuid"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required,uuid"`
	FromLocationID  *string         `json:"from_location_id,omitempty" validate:"omitempty,uuid"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required,uuid"`
	ToLocationID    *string         `json:"to_location_id,omitempty" validate:"omitempty,uuid"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// TransferPairResponse las dos patas de una línea trasladada.
type TransferPairResponse struct {
	CorrelationID string           `json:"correlation_id"`
	Out           MovementResponse `json:"out"`
	In            MovementResponse `json:"in"`
}

// TransferResponse resultado de POST /api/inventory/transfers.
type TransferResponse struct {
	Pairs []TransferPairResponse `json:"pairs"`
}

// SerialResponse unidad serializada.
type SerialResponse struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	SerialCode      string  `json:"serial_code"`
	VIN             string  `json:"vin,omitempty"`
	EngineNumber    string  `json:"engine_number,omitempty"`
	Year            *int    `json:"year,omitempty"`
	Color           string  `json:"color,omitempty"`
	WarehouseID     string  `json:"warehouse_id"`
	LocationID      *string `json:"location_id"`
	Status          string  `json:"status"`
	PurchaseOrderID *string `json:"purchase_order_id,omitempty"`
}
