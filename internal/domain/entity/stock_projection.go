package entity

import "github.com/shopspring/decimal"

// CurrentStockByLocation es una fila de la proyección current_stock_by_location.
type CurrentStockByLocation struct {
	ProductID   string
	WarehouseID string
	LocationID  *string
	Quantity    decimal.Decimal
}

// CurrentStock es una fila de la proyección current_stock (sumada por bodega).
type CurrentStock struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
}

// StockKey identifica un punto de stock. LocationID nil agrega toda la bodega.
type StockKey struct {
	ProductID   string
	WarehouseID string
	LocationID  *string
}

// LockKey devuelve la clave de bloqueo por producto y bodega.
func (k StockKey) LockKey() string {
	return "stock:" + k.ProductID + ":" + k.WarehouseID
}

// String representa la clave para mapas y logs.
func (k StockKey) String() string {
	loc := "-"
	if k.LocationID != nil {
		loc = *k.LocationID
	}
	return k.ProductID + "/" + k.WarehouseID + "/" + loc
}

// FoldMovements reduce movimientos a cantidades por (producto, bodega, ubicación).
func FoldMovements(movements []*StockMovement) []CurrentStockByLocation {
	index := make(map[string]int)
	var out []CurrentStockByLocation
	for _, m := range movements {
		key := StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID, LocationID: m.LocationID}.String()
		i, ok := index[key]
		if !ok {
			out = append(out, CurrentStockByLocation{
				ProductID:   m.ProductID,
				WarehouseID: m.WarehouseID,
				LocationID:  m.LocationID,
				Quantity:    decimal.Zero,
			})
			i = len(out) - 1
			index[key] = i
		}
		out[i].Quantity = out[i].Quantity.Add(m.Signed())
	}
	return out
}

// RollupByWarehouse suma la proyección por ubicación a nivel de bodega.
func RollupByWarehouse(rows []CurrentStockByLocation) []CurrentStock {
	index := make(map[string]int)
	var out []CurrentStock
	for _, r := range rows {
		key := r.ProductID + "/" + r.WarehouseID
		i, ok := index[key]
		if !ok {
			out = append(out, CurrentStock{ProductID: r.ProductID, WarehouseID: r.WarehouseID, Quantity: decimal.Zero})
			i = len(out) - 1
			index[key] = i
		}
		out[i].Quantity = out[i].Quantity.Add(r.Quantity)
	}
	return out
}
