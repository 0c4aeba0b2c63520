package repository

// Repos agrupa los repositorios ligados a una misma transacción (o al pool fuera de ella).
type Repos struct {
	Movements      StockMovementRepository
	MovementTypes  MovementTypeRepository
	Stock          StockProjectionRepository
	Locks          LockRepository
	Products       ProductRepository
	Warehouses     WarehouseRepository
	Locations      LocationRepository
	PurchaseOrders PurchaseOrderRepository
	Serials        ProductSerialRepository
	Invoices       InvoiceRepository
	SalesOrders    SalesOrderRepository
}
