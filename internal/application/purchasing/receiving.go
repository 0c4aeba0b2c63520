package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// ReceiveLine cantidad recibida de una línea de la orden y, si el producto es serializado, sus seriales.
type ReceiveLine struct {
	ItemID   string
	Quantity decimal.Decimal
	Serials  []serials.Input
}

// ReceiveInput recepción de mercancía contra una orden de compra.
type ReceiveInput struct {
	OrderID string
	Lines   []ReceiveLine
	Date    time.Time
	UserID  string
}

// ReceiveResult lo escrito por una recepción.
type ReceiveResult struct {
	OrderID   string
	Status    entity.PurchaseOrderStatus
	Receipts  []*entity.PurchaseReceipt
	Movements []*entity.StockMovement
	Serials   []*entity.ProductSerial
}

// ReceivingUseCase flujo de recepción de órdenes de compra. Cada recepción es una sola
// transacción con la fila de la orden bloqueada (SELECT FOR UPDATE).
type ReceivingUseCase struct {
	txRunner ledger.TxRunner
	registry *ledger.Registry
	policy   ledger.Policy
}

// NewReceivingUseCase construye el caso de uso.
func NewReceivingUseCase(txRunner ledger.TxRunner, registry *ledger.Registry, policy ledger.Policy) *ReceivingUseCase {
	return &ReceivingUseCase{txRunner: txRunner, registry: registry, policy: policy}
}

type plannedLine struct {
	item    *entity.PurchaseOrderItem
	product *entity.Product
	qty     decimal.Decimal
	serials []serials.Input
}

// Receive registra recepciones, entradas IN_PURCHASE, seriales y cantidades recibidas, y
// recalcula el estado de la orden. Toda la validación ocurre antes de la primera escritura.
func (uc *ReceivingUseCase) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	if in.OrderID == "" {
		return nil, domain.NewValidationError("order_id", "la orden es obligatoria")
	}
	inType, err := uc.registry.Resolve(ctx, entity.MovementCodeInPurchase)
	if err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var result *ReceiveResult
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		order, err := repos.PurchaseOrders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden de compra %s: %w", in.OrderID, domain.ErrNotFound)
		}
		if !order.Status.CanReceive() {
			return domain.InvalidState("la orden en estado " + string(order.Status) + " no admite recepciones")
		}
		if order.WarehouseID == nil || *order.WarehouseID == "" {
			return domain.NewValidationError("warehouse_id", "la orden no tiene bodega de destino")
		}
		items, err := repos.PurchaseOrders.ListItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("listar líneas: %w", err)
		}

		plan, err := uc.plan(ctx, repos, items, in.Lines)
		if err != nil {
			return err
		}

		res, err := uc.commit(ctx, repos, order, items, plan, inType, date, in.UserID)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// plan acota cada cantidad a [0, pendiente] y valida seriales.
func (uc *ReceivingUseCase) plan(ctx context.Context, repos repository.Repos, items []*entity.PurchaseOrderItem, lines []ReceiveLine) ([]plannedLine, error) {
	byID := make(map[string]*entity.PurchaseOrderItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var plan []plannedLine
	seen := make(map[string]struct{}, len(lines))
	// Códigos de serial ya usados en el envío, por producto: dos líneas del mismo producto comparten espacio.
	codes := make(map[string]map[string]struct{})
	for _, l := range lines {
		item, ok := byID[l.ItemID]
		if !ok {
			return nil, domain.NewValidationError("item_id", "la línea "+l.ItemID+" no pertenece a la orden")
		}
		if _, dup := seen[l.ItemID]; dup {
			return nil, domain.NewValidationError("item_id", "la línea "+l.ItemID+" viene repetida")
		}
		seen[l.ItemID] = struct{}{}

		q := clamp(l.Quantity, item.Remaining())
		if q.IsZero() {
			continue
		}
		product, err := repos.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("producto %s: %w", item.ProductID, domain.ErrNotFound)
		}
		if product.IsSerialized() {
			if err := serials.ValidateSubmission(product.Label(), q, l.Serials); err != nil {
				return nil, err
			}
			used, ok := codes[product.ID]
			if !ok {
				used = make(map[string]struct{}, len(l.Serials))
				codes[product.ID] = used
			}
			for _, in := range l.Serials {
				code := strings.TrimSpace(in.Code)
				if _, dup := used[code]; dup {
					return nil, &domain.ValidationError{
						Code:    domain.CodeDuplicateSerial,
						Message: "serial repetido en el envío: " + code,
						Product: product.Label(),
						Err:     domain.ErrDuplicateSerial,
					}
				}
				used[code] = struct{}{}
			}
		}
		plan = append(plan, plannedLine{item: item, product: product, qty: q, serials: l.Serials})
	}
	if len(plan) == 0 {
		return nil, &domain.ValidationError{
			Code:    domain.CodeNothingToReceive,
			Message: "no hay cantidades por recibir",
			Field:   "lines",
		}
	}
	return plan, nil
}

func (uc *ReceivingUseCase) commit(
	ctx context.Context,
	repos repository.Repos,
	order *entity.PurchaseOrder,
	items []*entity.PurchaseOrderItem,
	plan []plannedLine,
	inType *entity.MovementType,
	date time.Time,
	userID string,
) (*ReceiveResult, error) {
	res := &ReceiveResult{OrderID: order.ID}
	orderID := order.ID

	for _, p := range plan {
		receipt := &entity.PurchaseReceipt{
			ID:                  uuid.New().String(),
			PurchaseOrderID:     order.ID,
			PurchaseOrderItemID: p.item.ID,
			ProductID:           p.product.ID,
			Quantity:            p.qty,
			ReceivedAt:          date,
			ReceivedBy:          userID,
		}
		if err := repos.PurchaseOrders.CreateReceipt(ctx, receipt); err != nil {
			return nil, fmt.Errorf("registrar recepción: %w", err)
		}
		res.Receipts = append(res.Receipts, receipt)
	}

	w := ledger.NewWriter(repos, uc.policy)
	for _, p := range plan {
		m, err := w.Append(ctx, inType, ledger.MovementInput{
			ProductID:   p.product.ID,
			WarehouseID: *order.WarehouseID,
			LocationID:  p.product.DefaultLocationID,
			Quantity:    p.qty,
			TypeCode:    inType.Code,
			Date:        date,
			Reference:   "Recepción OC " + order.Number,
			RelatedID:   &orderID,
			UserID:      userID,
		})
		if err != nil {
			return nil, err
		}
		res.Movements = append(res.Movements, m)
	}

	for _, p := range plan {
		if !p.product.IsSerialized() {
			continue
		}
		created, err := serials.Register(ctx, repos.Serials, p.product, serials.Placement{
			WarehouseID:     *order.WarehouseID,
			LocationID:      p.product.DefaultLocationID,
			PurchaseOrderID: &orderID,
		}, p.serials)
		if err != nil {
			return nil, err
		}
		res.Serials = append(res.Serials, created...)
	}

	for _, p := range plan {
		p.item.ReceivedQuantity = p.item.ReceivedQuantity.Add(p.qty)
		if err := repos.PurchaseOrders.UpdateItemReceived(ctx, p.item.ID, p.item.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("actualizar cantidad recibida: %w", err)
		}
	}

	status := entity.PurchaseOrderCompleted
	for _, it := range items {
		if !it.IsComplete() {
			status = entity.PurchaseOrderPartiallyReceived
			break
		}
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, domain.InvalidState("transición " + string(order.Status) + " → " + string(status) + " no permitida")
	}
	if err := repos.PurchaseOrders.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("actualizar estado de la orden: %w", err)
	}
	res.Status = status
	return res, nil
}

// SendOrder pasa la orden de borrador a enviada.
func (uc *ReceivingUseCase) SendOrder(ctx context.Context, orderID string) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		order, err := repos.PurchaseOrders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden de compra %s: %w", orderID, domain.ErrNotFound)
		}
		if !order.Status.CanTransitionTo(entity.PurchaseOrderSent) {
			return domain.InvalidState("la orden en estado " + string(order.Status) + " no puede enviarse")
		}
		if order.WarehouseID == nil || *order.WarehouseID == "" {
			return domain.NewValidationError("warehouse_id", "la orden no tiene bodega de destino")
		}
		items, err := repos.PurchaseOrders.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.NewValidationError("items", "la orden no tiene líneas")
		}
		return repos.PurchaseOrders.UpdateStatus(ctx, orderID, entity.PurchaseOrderSent)
	})
}

// CancelOrder cancela una orden sin recepciones. No escribe movimientos.
func (uc *ReceivingUseCase) CancelOrder(ctx context.Context, orderID string) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		order, err := repos.PurchaseOrders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden de compra %s: %w", orderID, domain.ErrNotFound)
		}
		if !order.Status.CanCancel() {
			return domain.InvalidState("la orden en estado " + string(order.Status) + " no puede cancelarse")
		}
		return repos.PurchaseOrders.UpdateStatus(ctx, orderID, entity.PurchaseOrderCancelled)
	})
}

func clamp(q, remaining decimal.Decimal) decimal.Decimal {
	if q.IsNegative() {
		return decimal.Zero
	}
	if q.GreaterThan(remaining) {
		return remaining
	}
	return q
}
