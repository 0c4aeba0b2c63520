package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/saga"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Config parámetros del flujo de facturas.
type Config struct {
	CancelRoles []string
	LockTTL     time.Duration
	Policy      ledger.Policy
}

// InvoiceUseCase flujo de facturas: guardar/emitir, anular y convertir en venta.
// Es el único camino que escribe salidas por venta y cambia el estado de la factura.
type InvoiceUseCase struct {
	txRunner ledger.TxRunner
	registry *ledger.Registry
	invoices repository.InvoiceRepository
	saga     *saga.Coordinator
	locker   Locker
	enqueuer ResyncEnqueuer
	cfg      Config
	log      zerolog.Logger
}

// NewInvoiceUseCase construye el caso de uso. enqueuer puede ser nil (sin cola de reintentos).
func NewInvoiceUseCase(
	txRunner ledger.TxRunner,
	registry *ledger.Registry,
	invoices repository.InvoiceRepository,
	locker Locker,
	enqueuer ResyncEnqueuer,
	cfg Config,
	log zerolog.Logger,
) *InvoiceUseCase {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if len(cfg.CancelRoles) == 0 {
		cfg.CancelRoles = []string{"admin"}
	}
	return &InvoiceUseCase{
		txRunner: txRunner,
		registry: registry,
		invoices: invoices,
		saga:     saga.New(log),
		locker:   locker,
		enqueuer: enqueuer,
		cfg:      cfg,
		log:      log,
	}
}

// LineInput línea de factura enviada por el cliente.
type LineInput struct {
	ProductID string
	SerialID  *string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// SaveInput factura completa con el estado destino (borrador o emitida). InvoiceID vacío crea una nueva.
type SaveInput struct {
	InvoiceID   string
	Number      string
	CustomerID  string
	WarehouseID string
	Date        time.Time
	Lines       []LineInput
	Status      entity.InvoiceStatus
	UserID      string
}

// InvoiceResult factura con sus líneas y los movimientos que quedaron asociados.
// SalesOrder sólo se llena en Get, cuando la factura ya fue convertida.
type InvoiceResult struct {
	Invoice    *entity.Invoice
	Items      []*entity.InvoiceItem
	Movements  []*entity.StockMovement
	SalesOrder *entity.SalesOrder
}

func invoiceLockKey(id string) string { return "invoice:" + id }

// Get devuelve la factura con sus líneas y, si ya se convirtió, su orden de venta.
// Las tres lecturas van en una transacción para no mezclar estados de una conversión en curso.
func (uc *InvoiceUseCase) Get(ctx context.Context, id string) (*InvoiceResult, error) {
	var result *InvoiceResult
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		inv, err := repos.Invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
		}
		items, err := repos.Invoices.ListItems(ctx, id)
		if err != nil {
			return err
		}
		result = &InvoiceResult{Invoice: inv, Items: items}
		if inv.SalesOrderID == nil {
			return nil
		}
		so, err := repos.SalesOrders.GetByInvoiceID(ctx, id)
		if err != nil {
			return fmt.Errorf("consultar orden de venta: %w", err)
		}
		result.SalesOrder = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Save persiste la factura y resincroniza sus movimientos: borra los que tengan related_id = factura
// y, si el estado destino es emitida, escribe una salida OUT_SALE por línea y marca los seriales vendidos.
// Todo ocurre en una transacción con la factura bloqueada.
func (uc *InvoiceUseCase) Save(ctx context.Context, in SaveInput) (*InvoiceResult, error) {
	if err := validateSave(in); err != nil {
		return nil, err
	}
	var outType *entity.MovementType
	if in.Status == entity.InvoiceIssued {
		mt, err := uc.registry.Resolve(ctx, entity.MovementCodeOutSale)
		if err != nil {
			return nil, err
		}
		outType = mt
	}

	id := in.InvoiceID
	if id == "" {
		id = uuid.New().String()
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var result *InvoiceResult
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, invoiceLockKey(id)); err != nil {
			return err
		}
		existing, err := repos.Invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil && in.InvoiceID != "" {
			return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
		}
		if existing != nil {
			if existing.SalesOrderID != nil || !existing.Status.CanTransitionTo(in.Status) {
				return domain.InvalidState("la factura en estado " + string(existing.Status) + " no puede pasar a " + string(in.Status))
			}
		}
		wh, err := repos.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("bodega %s: %w", in.WarehouseID, domain.ErrNotFound)
		}

		// Resincronización: las salidas previas se eliminan y sus seriales vuelven a stock.
		if err := uc.unwindMovements(ctx, repos, id); err != nil {
			return err
		}

		items, net, tax, err := buildItems(ctx, repos, id, in.WarehouseID, in.Lines)
		if err != nil {
			return err
		}

		now := time.Now()
		inv := &entity.Invoice{
			ID:          id,
			Number:      in.Number,
			CustomerID:  in.CustomerID,
			WarehouseID: in.WarehouseID,
			Status:      in.Status,
			Date:        date,
			NetTotal:    net,
			TaxTotal:    tax,
			GrandTotal:  net.Add(tax),
			CreatedBy:   in.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if existing == nil {
			err = repos.Invoices.Create(ctx, inv)
		} else {
			inv.CreatedAt = existing.CreatedAt
			inv.CreatedBy = existing.CreatedBy
			err = repos.Invoices.Update(ctx, inv)
		}
		if err != nil {
			return fmt.Errorf("guardar factura: %w", err)
		}
		if err := repos.Invoices.ReplaceItems(ctx, id, items); err != nil {
			return fmt.Errorf("guardar líneas: %w", err)
		}

		result = &InvoiceResult{Invoice: inv, Items: items}
		if in.Status != entity.InvoiceIssued {
			return nil
		}
		movs, err := uc.writeSaleMovements(ctx, repos, inv, items, outType, in.UserID)
		if err != nil {
			return err
		}
		result.Movements = movs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateSave(in SaveInput) error {
	if in.Status != entity.InvoiceDraft && in.Status != entity.InvoiceIssued {
		return domain.NewValidationError("status", "el estado destino debe ser borrador o emitida")
	}
	if in.CustomerID == "" {
		return domain.NewValidationError("customer_id", "el cliente es obligatorio")
	}
	if in.WarehouseID == "" {
		return domain.NewValidationError("warehouse_id", "la bodega es obligatoria")
	}
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", "la factura debe tener al menos una línea")
	}
	for _, l := range in.Lines {
		if l.ProductID == "" {
			return domain.NewValidationError("product_id", "el producto es obligatorio en cada línea")
		}
		if !l.Quantity.IsPositive() {
			return domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
		}
		if l.UnitPrice.IsNegative() || l.Discount.IsNegative() {
			return domain.NewValidationError("unit_price", "precio y descuento no pueden ser negativos")
		}
	}
	return nil
}

// buildItems valida productos y seriales contra la bodega de la factura y calcula subtotales e IVA por línea.
func buildItems(ctx context.Context, repos repository.Repos, invoiceID, warehouseID string, lines []LineInput) ([]*entity.InvoiceItem, decimal.Decimal, decimal.Decimal, error) {
	net, tax := decimal.Zero, decimal.Zero
	items := make([]*entity.InvoiceItem, 0, len(lines))
	usedSerials := make(map[string]struct{})
	for _, l := range lines {
		product, err := repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, net, tax, err
		}
		if product == nil {
			return nil, net, tax, fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
		}
		if l.SerialID != nil {
			if !product.IsSerialized() {
				return nil, net, tax, domain.NewValidationError("serial_id", "el producto "+product.Label()+" no maneja seriales")
			}
			if !l.Quantity.Equal(decimal.NewFromInt(1)) {
				return nil, net, tax, domain.NewValidationError("quantity", "una línea con serial debe tener cantidad 1")
			}
			if _, dup := usedSerials[*l.SerialID]; dup {
				return nil, net, tax, &domain.ValidationError{Code: domain.CodeDuplicateSerial, Message: "serial repetido en la factura", Err: domain.ErrDuplicateSerial}
			}
			usedSerials[*l.SerialID] = struct{}{}
			if _, err := serials.CheckSellable(ctx, repos.Serials, *l.SerialID, product.ID, warehouseID); err != nil {
				return nil, net, tax, err
			}
		}

		rate := taxRate(product.TaxRate)
		subtotal := l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
		if subtotal.IsNegative() {
			return nil, net, tax, domain.NewValidationError("discount", "el descuento supera el valor de la línea")
		}
		net = net.Add(subtotal)
		tax = tax.Add(subtotal.Mul(rate).Round(2))
		items = append(items, &entity.InvoiceItem{
			ID:        uuid.New().String(),
			InvoiceID: invoiceID,
			ProductID: product.ID,
			SerialID:  l.SerialID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   rate,
			Discount:  l.Discount,
			Subtotal:  subtotal,
		})
	}
	return items, net, tax, nil
}

// taxRate acepta la tasa como fracción (0.19) o como porcentaje (19).
func taxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// unwindMovements borra los movimientos de la factura y devuelve a stock los seriales de sus salidas.
func (uc *InvoiceUseCase) unwindMovements(ctx context.Context, repos repository.Repos, invoiceID string) error {
	prev, err := repos.Movements.ListByRelatedID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("listar movimientos de la factura: %w", err)
	}
	if len(prev) == 0 {
		return nil
	}
	for _, m := range prev {
		if m.SerialID != nil && entity.MovementSign(m.MovementTypeCode) < 0 {
			if err := serials.MarkReturned(ctx, repos.Serials, *m.SerialID); err != nil {
				return err
			}
		}
	}
	if _, err := repos.Movements.DeleteByRelatedID(ctx, invoiceID); err != nil {
		return fmt.Errorf("eliminar movimientos de la factura: %w", err)
	}
	return nil
}

// writeSaleMovements escribe una salida por línea en la bodega de la factura y marca los seriales vendidos.
func (uc *InvoiceUseCase) writeSaleMovements(
	ctx context.Context,
	repos repository.Repos,
	inv *entity.Invoice,
	items []*entity.InvoiceItem,
	outType *entity.MovementType,
	userID string,
) ([]*entity.StockMovement, error) {
	w := ledger.NewWriter(repos, uc.cfg.Policy)
	invoiceID := inv.ID
	out := make([]*entity.StockMovement, 0, len(items))
	for _, it := range items {
		m, err := w.Append(ctx, outType, ledger.MovementInput{
			ProductID:   it.ProductID,
			WarehouseID: inv.WarehouseID,
			Quantity:    it.Quantity,
			TypeCode:    outType.Code,
			Date:        inv.Date,
			Reference:   "Factura " + inv.Number,
			RelatedID:   &invoiceID,
			SerialID:    it.SerialID,
			UserID:      userID,
		})
		if err != nil {
			return nil, err
		}
		if it.SerialID != nil {
			if err := serials.MarkSold(ctx, repos.Serials, *it.SerialID); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// Cancel anula la factura. Sólo los roles configurados pueden hacerlo. Si estaba emitida se escribe
// un IN_ADJUST por línea con el mismo related_id; las salidas originales no se tocan.
func (uc *InvoiceUseCase) Cancel(ctx context.Context, invoiceID string, actor Actor) (*InvoiceResult, error) {
	if !uc.canCancel(actor) {
		return nil, fmt.Errorf("el rol %q no puede anular facturas: %w", actor.Role, domain.ErrForbidden)
	}
	adjType, err := uc.registry.Resolve(ctx, entity.MovementCodeInAdjust)
	if err != nil {
		return nil, err
	}

	var result *InvoiceResult
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, invoiceLockKey(invoiceID)); err != nil {
			return err
		}
		inv, err := repos.Invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
		}
		if inv.Status == entity.InvoiceCancelled {
			return domain.InvalidState("la factura ya está anulada")
		}
		if !inv.Status.CanTransitionTo(entity.InvoiceCancelled) {
			return domain.InvalidState("la factura en estado " + string(inv.Status) + " no puede anularse")
		}
		items, err := repos.Invoices.ListItems(ctx, invoiceID)
		if err != nil {
			return err
		}

		result = &InvoiceResult{Items: items}
		if inv.Status == entity.InvoiceIssued {
			w := ledger.NewWriter(repos, uc.cfg.Policy)
			for _, it := range items {
				m, err := w.Append(ctx, adjType, ledger.MovementInput{
					ProductID:   it.ProductID,
					WarehouseID: inv.WarehouseID,
					Quantity:    it.Quantity,
					TypeCode:    adjType.Code,
					Reference:   "Anulación factura " + inv.Number,
					RelatedID:   &invoiceID,
					SerialID:    it.SerialID,
					UserID:      actor.UserID,
				})
				if err != nil {
					return err
				}
				if it.SerialID != nil {
					if err := serials.MarkReturned(ctx, repos.Serials, *it.SerialID); err != nil {
						return err
					}
				}
				result.Movements = append(result.Movements, m)
			}
		}

		if err := repos.Invoices.UpdateStatus(ctx, invoiceID, entity.InvoiceCancelled); err != nil {
			return fmt.Errorf("anular factura: %w", err)
		}
		inv.Status = entity.InvoiceCancelled
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *InvoiceUseCase) canCancel(actor Actor) bool {
	for _, r := range uc.cfg.CancelRoles {
		if actor.Role == r {
			return true
		}
	}
	return false
}
