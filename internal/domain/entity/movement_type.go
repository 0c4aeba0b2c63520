package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Códigos del catálogo de tipos de movimiento usados por los flujos.
// El signo de cualquier código (incluidos ajustes ad hoc) se deriva del prefijo.
const (
	MovementCodeInPurchase  = "IN_PURCHASE"
	MovementCodeInTransfer  = "IN_TRANSFER"
	MovementCodeInAdjust    = "IN_ADJUST"
	MovementCodeOutSale     = "OUT_SALE"
	MovementCodeOutTransfer = "OUT_TRANSFER"
	MovementCodeOutAdjust   = "OUT_ADJUST"
)

const (
	inboundPrefix  = "IN"
	outboundPrefix = "OUT"
)

// MovementType es una entrada del catálogo movement_types (sólo lectura para este sistema).
type MovementType struct {
	ID   string
	Code string
	Name string
}

// MovementSign devuelve +1 para códigos IN*, -1 para OUT* y 0 si el código no tiene prefijo reconocido.
func MovementSign(code string) int {
	switch {
	case strings.HasPrefix(code, outboundPrefix):
		return -1
	case strings.HasPrefix(code, inboundPrefix):
		return 1
	default:
		return 0
	}
}

// Sign aplica MovementSign al código del tipo.
func (t *MovementType) Sign() int { return MovementSign(t.Code) }

// IsInbound indica si el tipo suma al stock.
func (t *MovementType) IsInbound() bool { return t.Sign() > 0 }

// IsOutbound indica si el tipo resta del stock.
func (t *MovementType) IsOutbound() bool { return t.Sign() < 0 }

// SignedQuantity aplica el signo del código a una cantidad positiva.
func SignedQuantity(code string, qty decimal.Decimal) decimal.Decimal {
	switch MovementSign(code) {
	case 1:
		return qty
	case -1:
		return qty.Neg()
	default:
		return decimal.Zero
	}
}
