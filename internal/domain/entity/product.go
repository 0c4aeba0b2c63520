package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de seguimiento de un producto.
const (
	TrackingBulk       = "bulk"
	TrackingSerialized = "serialized"
)

// Product representa un producto o SKU del inventario.
// DefaultLocationID es la ubicación donde se registran las entradas por compra.
type Product struct {
	ID                string
	SKU               string
	Name              string
	Price             decimal.Decimal
	TaxRate           decimal.Decimal // IVA: 0, 0.05, 0.19 (o 19 como porcentaje)
	TrackingMethod    string
	DefaultLocationID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSerialized indica si cada unidad se registra con serial.
func (p *Product) IsSerialized() bool { return p.TrackingMethod == TrackingSerialized }

// Label devuelve el texto legible usado en mensajes de error.
func (p *Product) Label() string {
	if p.SKU != "" {
		return p.SKU + " " + p.Name
	}
	return p.Name
}
