package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/billing"
	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// Estados de sincronización de inventario en la conversión.
const (
	InventorySynced   = "sincronizado"
	InventoryDegraded = "degradado"
)

// InvoiceHandler facturas: guardado, anulación y conversión en venta (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Crear factura
// @Description  status borrador no toca inventario; emitida valida stock y escribe las salidas OUT_SALE.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveInvoiceRequest  true  "cabecera, status y líneas"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	return h.save(c, "", fiber.StatusCreated)
}

// Update godoc
// @Summary      Guardar factura existente
// @Description  Reemplaza líneas y reescribe las salidas de inventario de la factura.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la factura"
// @Param        body  body  dto.SaveInvoiceRequest  true  "cabecera, status y líneas"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	return h.save(c, c.Params("id"), fiber.StatusOK)
}

func (h *InvoiceHandler) save(c *fiber.Ctx, id string, status int) error {
	var in dto.SaveInvoiceRequest
	if !bindBody(c, &in) {
		return nil
	}
	target := entity.InvoiceStatus(in.Status)
	if target == "" {
		target = entity.InvoiceDraft
	}
	lines := make([]billing.LineInput, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, billing.LineInput{
			ProductID: it.ProductID,
			SerialID:  it.SerialID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
		})
	}
	res, err := h.uc.Save(c.UserContext(), billing.SaveInput{
		InvoiceID:   id,
		Number:      in.Number,
		CustomerID:  in.CustomerID,
		WarehouseID: in.WarehouseID,
		Date:        dateOrNow(in.Date),
		Lines:       lines,
		Status:      target,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(toInvoiceResponse(res))
}

// GetByID godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toInvoiceResponse(res))
}

// Cancel godoc
// @Summary      Anular factura
// @Description  Si estaba emitida devuelve el stock con IN_ADJUST. Requiere rol autorizado.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	res, err := h.uc.Cancel(c.UserContext(), c.Params("id"), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toInvoiceResponse(res))
}

// Convert godoc
// @Summary      Convertir factura en venta
// @Description  Crea la orden de venta y marca la factura pagada. Si las salidas de inventario fallan la venta
// @Description  queda registrada con inventory_sync "degradado" y el reintento se encola.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.ConversionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/convert [post]
func (h *InvoiceHandler) Convert(c *fiber.Ctx) error {
	res, err := h.uc.ConvertToSale(c.UserContext(), c.Params("id"), actor(c))
	var pf *domain.PartialFailure
	degraded := err != nil && errors.As(err, &pf) && pf.Degraded && res != nil
	if err != nil && !degraded {
		return writeError(c, err)
	}
	out := dto.ConversionResponse{
		InvoiceID:        res.InvoiceID,
		SalesOrderID:     res.SalesOrderID,
		Status:           string(res.Status),
		InventorySync:    InventorySynced,
		MovementsCreated: res.MovementsCreated,
	}
	if degraded {
		out.InventorySync = InventoryDegraded
		out.Warning = pf.Err.Error()
	}
	return c.JSON(out)
}

// SyncInventory godoc
// @Summary      Reintentar salidas de inventario de una factura convertida
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InventorySyncResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/inventory-sync [post]
func (h *InvoiceHandler) SyncInventory(c *fiber.Ctx) error {
	id := c.Params("id")
	n, err := h.uc.SyncSaleMovements(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InventorySyncResponse{InvoiceID: id, MovementsCreated: n})
}

func actor(c *fiber.Ctx) billing.Actor {
	return billing.Actor{UserID: GetUserID(c), Role: GetRole(c)}
}
