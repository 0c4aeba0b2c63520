package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
)

// InventoryHandler kardex: movimientos manuales, traslados, stock y seriales (protegido).
type InventoryHandler struct {
	ledger    *ledger.Service
	transfers *ledger.TransferCoordinator
	serials   *serials.Service
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc *ledger.Service, transfers *ledger.TransferCoordinator, serialSvc *serials.Service) *InventoryHandler {
	return &InventoryHandler{ledger: svc, transfers: transfers, serials: serialSvc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entrada o salida manual. El tipo se resuelve contra el catálogo movement_types.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id, location_id opcional, type, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if !bindBody(c, &in) {
		return nil
	}
	m, err := h.ledger.RecordMovement(c.UserContext(), ledger.MovementInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		LocationID:  in.LocationID,
		Quantity:    in.Quantity,
		TypeCode:    in.Type,
		Date:        dateOrNow(in.Date),
		Reference:   in.Reference,
		Notes:       in.Notes,
		RelatedID:   in.RelatedID,
		SerialID:    in.SerialID,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// ListMovements godoc
// @Summary      Consultar movimientos
// @Description  Por documento origen (related_id) o por producto paginado (product_id, limit, offset).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        related_id  query  string  false  "Documento origen (factura, orden de compra)"
// @Param        product_id  query  string  false  "Producto"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	if relatedID := c.Query("related_id"); relatedID != "" {
		list, err := h.ledger.MovementsByRelatedID(c.UserContext(), relatedID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(toMovementResponses(list))
	}
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "related_id o product_id es obligatorio"})
	}
	var page dto.PageRequest
	if !bindQuery(c, &page) {
		return nil
	}
	page.DefaultPage()
	list, err := h.ledger.MovementsByProduct(c.UserContext(), productID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponses(list))
}

// ListMovementTypes godoc
// @Summary      Catálogo de tipos de movimiento
// @Description  Códigos utilizables en movimientos manuales, con su dirección (in/out).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.MovementTypeResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/movement-types [get]
func (h *InventoryHandler) ListMovementTypes(c *fiber.Ctx) error {
	types, err := h.ledger.MovementTypes(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementTypeResponses(types))
}

// GetStock godoc
// @Summary      Stock disponible
// @Description  Sin location_id suma toda la bodega, incluidos los movimientos sin ubicación.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        location_id   query  string  false  "Ubicación"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	var q dto.StockQuery
	if !bindQuery(c, &q) {
		return nil
	}
	var loc *string
	if q.LocationID != "" {
		loc = &q.LocationID
	}
	qty, err := h.ledger.CurrentQuantity(c.UserContext(), q.ProductID, q.WarehouseID, loc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockResponse{ProductID: q.ProductID, WarehouseID: q.WarehouseID, LocationID: loc, Quantity: qty})
}

// StockByLocation godoc
// @Summary      Stock por ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "Producto"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/inventory/stock/locations [get]
func (h *InventoryHandler) StockByLocation(c *fiber.Ctx) error {
	rows, err := h.ledger.StockByLocation(c.UserContext(), c.Query("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockResponse{ProductID: r.ProductID, WarehouseID: r.WarehouseID, LocationID: r.LocationID, Quantity: r.Quantity})
	}
	return c.JSON(out)
}

// StockByWarehouse godoc
// @Summary      Stock por bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "Producto"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/inventory/stock/warehouses [get]
func (h *InventoryHandler) StockByWarehouse(c *fiber.Ctx) error {
	rows, err := h.ledger.StockByWarehouse(c.UserContext(), c.Query("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockResponse{ProductID: r.ProductID, WarehouseID: r.WarehouseID, Quantity: r.Quantity})
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Trasladar stock
// @Description  Cada línea genera un par OUT_TRANSFER/IN_TRANSFER. Todas las líneas se confirman juntas o ninguna.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "líneas del traslado"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if !bindBody(c, &in) {
		return nil
	}
	lines := make([]ledger.TransferLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ledger.TransferLine{
			ProductID:       l.ProductID,
			FromWarehouseID: l.FromWarehouseID,
			FromLocationID:  l.FromLocationID,
			ToWarehouseID:   l.ToWarehouseID,
			ToLocationID:    l.ToLocationID,
			Quantity:        l.Quantity,
		})
	}
	res, err := h.transfers.Transfer(c.UserContext(), ledger.TransferInput{
		Lines:     lines,
		Date:      dateOrNow(in.Date),
		Reference: in.Reference,
		Notes:     in.Notes,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TransferResponse{Pairs: make([]dto.TransferPairResponse, 0, len(res.Pairs))}
	for _, p := range res.Pairs {
		out.Pairs = append(out.Pairs, dto.TransferPairResponse{
			CorrelationID: p.CorrelationID,
			Out:           toMovementResponse(p.Out),
			In:            toMovementResponse(p.In),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetSerial godoc
// @Summary      Consultar serial
// @Tags         serials
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del serial"
// @Success      200  {object}  dto.SerialResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/serials/{id} [get]
func (h *InventoryHandler) GetSerial(c *fiber.Ctx) error {
	s, err := h.serials.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSerialResponse(s))
}

// ListSerials godoc
// @Summary      Seriales disponibles
// @Tags         serials
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {array}  dto.SerialResponse
// @Router       /api/serials [get]
func (h *InventoryHandler) ListSerials(c *fiber.Ctx) error {
	list, err := h.serials.ListAvailable(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SerialResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSerialResponse(s))
	}
	return c.JSON(out)
}

func dateOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return *t
}
