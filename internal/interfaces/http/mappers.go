package http

import (
	"github.com/jhoicas/inventario-kardex/internal/application/billing"
	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		WarehouseID:    m.WarehouseID,
		LocationID:     m.LocationID,
		Type:           m.MovementTypeCode,
		Quantity:       m.Quantity,
		SignedQuantity: m.Signed(),
		Date:           m.MovementDate,
		Reference:      m.Reference,
		Notes:          m.Notes,
		RelatedID:      m.RelatedID,
		SerialID:       m.SerialID,
		CreatedAt:      m.CreatedAt,
	}
}

func toMovementResponses(ms []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toMovementTypeResponses(types []*entity.MovementType) []dto.MovementTypeResponse {
	out := make([]dto.MovementTypeResponse, 0, len(types))
	for _, mt := range types {
		direction := "in"
		if mt.IsOutbound() {
			direction = "out"
		}
		out = append(out, dto.MovementTypeResponse{ID: mt.ID, Code: mt.Code, Name: mt.Name, Direction: direction})
	}
	return out
}

func toSerialResponse(s *entity.ProductSerial) dto.SerialResponse {
	return dto.SerialResponse{
		ID:              s.ID,
		ProductID:       s.ProductID,
		SerialCode:      s.SerialCode,
		VIN:             s.VIN,
		EngineNumber:    s.EngineNumber,
		Year:            s.Year,
		Color:           s.Color,
		WarehouseID:     s.WarehouseID,
		LocationID:      s.LocationID,
		Status:          s.Status,
		PurchaseOrderID: s.PurchaseOrderID,
	}
}

func toInvoiceResponse(r *billing.InvoiceResult) dto.InvoiceResponse {
	inv := r.Invoice
	resp := dto.InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		WarehouseID:  inv.WarehouseID,
		Status:       string(inv.Status),
		SalesOrderID: inv.SalesOrderID,
		Date:         inv.Date,
		NetTotal:     inv.NetTotal,
		TaxTotal:     inv.TaxTotal,
		GrandTotal:   inv.GrandTotal,
		Details:      make([]dto.InvoiceDetailResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		resp.Details = append(resp.Details, dto.InvoiceDetailResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			SerialID:  it.SerialID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			TaxRate:   it.TaxRate,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal,
		})
	}
	if len(r.Movements) > 0 {
		resp.Movements = toMovementResponses(r.Movements)
	}
	if so := r.SalesOrder; so != nil {
		resp.SalesOrder = &dto.SalesOrderResponse{ID: so.ID, Status: so.Status, OrderDate: so.OrderDate, Total: so.Total}
	}
	return resp
}
