package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/billing"
	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/purchasing"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *ledger.Service
	Transfers   *ledger.TransferCoordinator
	Serials     *serials.Service
	Receiving   *purchasing.ReceivingUseCase
	Invoices    *billing.InvoiceUseCase
	CancelRoles []string
	JWTSecret   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Transfers, deps.Serials)
	inv := protected.Group("/inventory")
	inv.Post("/movements", inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movement-types", inventoryHandler.ListMovementTypes)
	inv.Get("/stock", inventoryHandler.GetStock)
	inv.Get("/stock/locations", inventoryHandler.StockByLocation)
	inv.Get("/stock/warehouses", inventoryHandler.StockByWarehouse)
	inv.Post("/transfers", inventoryHandler.Transfer)

	serialsGroup := protected.Group("/serials")
	serialsGroup.Get("/", inventoryHandler.ListSerials)
	serialsGroup.Get("/:id", inventoryHandler.GetSerial)

	poHandler := NewPurchaseOrderHandler(deps.Receiving)
	po := protected.Group("/purchase-orders")
	po.Post("/:id/send", poHandler.Send)
	po.Post("/:id/receive", poHandler.Receive)
	po.Post("/:id/cancel", poHandler.Cancel)

	cancelRoles := deps.CancelRoles
	if len(cancelRoles) == 0 {
		cancelRoles = []string{"admin"}
	}
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	invoices := protected.Group("/invoices")
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Post("/:id/cancel", RequireRole(cancelRoles...), invoiceHandler.Cancel)
	invoices.Post("/:id/convert", invoiceHandler.Convert)
	invoices.Post("/:id/inventory-sync", invoiceHandler.SyncInventory)
}
