package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovement es una fila inmutable del kardex. Quantity siempre es positiva;
// el signo lo da MovementTypeCode. LocationID nil significa "sin ubicación asignada".
type StockMovement struct {
	ID               string
	ProductID        string
	WarehouseID      string
	LocationID       *string
	MovementTypeID   string
	MovementTypeCode string
	Quantity         decimal.Decimal
	MovementDate     time.Time
	Reference        string
	Notes            string
	RelatedID        *string // id de correlación: factura, traslado, etc.
	SerialID         *string
	CreatedAt        time.Time
	CreatedBy        string
}

// Signed devuelve la cantidad con signo según el código del tipo.
func (m *StockMovement) Signed() decimal.Decimal {
	return SignedQuantity(m.MovementTypeCode, m.Quantity)
}

// SameLocation compara dos ubicaciones opcionales.
func SameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
