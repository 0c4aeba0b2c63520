package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/application/purchasing"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// PurchaseOrderHandler ciclo de vida y recepción de órdenes de compra (protegido).
type PurchaseOrderHandler struct {
	uc *purchasing.ReceivingUseCase
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(uc *purchasing.ReceivingUseCase) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{uc: uc}
}

// Send godoc
// @Summary      Enviar orden de compra al proveedor
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/send [post]
func (h *PurchaseOrderHandler) Send(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.uc.SendOrder(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PurchaseOrderStatusResponse{OrderID: id, Status: string(entity.PurchaseOrderSent)})
}

// Receive godoc
// @Summary      Recibir mercancía
// @Description  Cantidades mayores al pendiente se recortan. Productos serializados exigen un serial por unidad.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                           true  "ID de la orden"
// @Param        body  body  dto.ReceivePurchaseOrderRequest  true  "líneas recibidas"
// @Success      200   {object}  dto.ReceivePurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceivePurchaseOrderRequest
	if !bindBody(c, &in) {
		return nil
	}
	lines := make([]purchasing.ReceiveLine, 0, len(in.Items))
	for _, it := range in.Items {
		line := purchasing.ReceiveLine{ItemID: it.ItemID, Quantity: it.Quantity}
		for _, s := range it.Serials {
			line.Serials = append(line.Serials, serials.Input{
				Code:         s.SerialCode,
				VIN:          s.VIN,
				EngineNumber: s.EngineNumber,
				Year:         s.Year,
				Color:        s.Color,
			})
		}
		lines = append(lines, line)
	}
	res, err := h.uc.Receive(c.UserContext(), purchasing.ReceiveInput{
		OrderID: c.Params("id"),
		Lines:   lines,
		Date:    dateOrNow(in.Date),
		UserID:  GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReceivePurchaseOrderResponse{
		OrderID:   res.OrderID,
		Status:    string(res.Status),
		Receipts:  make([]dto.ReceiptResponse, 0, len(res.Receipts)),
		Movements: toMovementResponses(res.Movements),
	}
	for _, r := range res.Receipts {
		out.Receipts = append(out.Receipts, dto.ReceiptResponse{ID: r.ID, ItemID: r.PurchaseOrderItemID, Quantity: r.Quantity})
	}
	for _, s := range res.Serials {
		out.Serials = append(out.Serials, toSerialResponse(s))
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderStatusResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.uc.CancelOrder(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PurchaseOrderStatusResponse{OrderID: id, Status: string(entity.PurchaseOrderCancelled)})
}
