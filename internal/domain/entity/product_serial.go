package entity

import "time"

// Estados de un serial.
const (
	SerialInStock = "in_stock"
	SerialSold    = "sold"
)

// ProductSerial representa una unidad física de un producto serializado.
// SerialCode es único por producto.
type ProductSerial struct {
	ID              string
	ProductID       string
	SerialCode      string
	VIN             string
	EngineNumber    string
	Year            *int
	Color           string
	WarehouseID     string
	LocationID      *string
	Status          string
	PurchaseOrderID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAvailable indica si el serial puede venderse.
func (s *ProductSerial) IsAvailable() bool { return s.Status == SerialInStock }
