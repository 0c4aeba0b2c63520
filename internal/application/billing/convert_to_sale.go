package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/saga"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Nombres de los pasos de la conversión (aparecen en PartialFailure y en logs).
const (
	StepCreateSalesOrder = "crear_orden_venta"
	StepCreateOrderItems = "crear_lineas_orden"
	StepSyncInventory    = "sincronizar_inventario"
	StepMarkInvoicePaid  = "marcar_factura_pagada"
)

// ConversionResult resultado de convertir una factura en venta.
type ConversionResult struct {
	InvoiceID        string
	SalesOrderID     string
	Status           entity.InvoiceStatus
	InventorySynced  bool
	MovementsCreated int
}

// ConvertToSale crea la orden de venta de la factura y la marca pagada. Los pasos son:
// orden de venta, líneas (si fallan se borra la orden), salidas de inventario sólo si la factura
// aún no tiene su juego OUT_SALE, y estado pagada con sales_order_id. Una falla en las salidas no
// deshace la venta: se devuelve el resultado junto con un *domain.PartialFailure degradado.
func (uc *InvoiceUseCase) ConvertToSale(ctx context.Context, invoiceID string, actor Actor) (*ConversionResult, error) {
	release, err := uc.locker.Acquire(ctx, "invoice:"+invoiceID+":conversion", uc.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", invoiceID).Msg("no se pudo liberar el bloqueo de conversión")
		}
	}()

	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	items, err := uc.invoices.ListItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := checkConvertible(inv, items); err != nil {
		return nil, err
	}
	outType, err := uc.registry.Resolve(ctx, entity.MovementCodeOutSale)
	if err != nil {
		return nil, err
	}
	if err := uc.preflight(ctx, inv, items, outType); err != nil {
		return nil, err
	}

	now := time.Now()
	so := &entity.SalesOrder{
		ID:          uuid.New().String(),
		InvoiceID:   inv.ID,
		CustomerID:  inv.CustomerID,
		WarehouseID: inv.WarehouseID,
		Status:      entity.SalesOrderConfirmed,
		OrderDate:   now,
		Total:       inv.GrandTotal,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
	}
	soItems := make([]*entity.SalesOrderItem, 0, len(items))
	for _, it := range items {
		soItems = append(soItems, &entity.SalesOrderItem{
			ID:           uuid.New().String(),
			SalesOrderID: so.ID,
			ProductID:    it.ProductID,
			SerialID:     it.SerialID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Subtotal:     it.Subtotal,
		})
	}

	result := &ConversionResult{InvoiceID: inv.ID, SalesOrderID: so.ID}
	outcome, err := uc.saga.Run(ctx,
		saga.Step{
			Name: StepCreateSalesOrder,
			Action: func(ctx context.Context) error {
				return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
					if err := repos.SalesOrders.Create(ctx, so); err != nil {
						if errors.Is(err, domain.ErrDuplicate) {
							return &domain.ValidationError{Code: domain.CodeAlreadyConverted, Message: "la factura ya tiene orden de venta", Err: domain.ErrAlreadyConverted}
						}
						return err
					}
					return nil
				})
			},
			Compensate: func(ctx context.Context) error {
				return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
					return repos.SalesOrders.Delete(ctx, so.ID)
				})
			},
		},
		saga.Step{
			Name: StepCreateOrderItems,
			Action: func(ctx context.Context) error {
				return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
					return repos.SalesOrders.CreateItems(ctx, soItems)
				})
			},
		},
		saga.Step{
			Name:       StepSyncInventory,
			Degradable: true,
			Action: func(ctx context.Context) error {
				n, err := uc.syncSaleMovements(ctx, inv, items, outType, actor.UserID)
				result.MovementsCreated = n
				return err
			},
		},
		saga.Step{
			Name: StepMarkInvoicePaid,
			Action: func(ctx context.Context) error {
				return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
					if err := repos.Locks.Lock(ctx, invoiceLockKey(inv.ID)); err != nil {
						return err
					}
					cur, err := repos.Invoices.GetByID(ctx, inv.ID)
					if err != nil {
						return err
					}
					if cur == nil {
						return fmt.Errorf("factura %s: %w", inv.ID, domain.ErrNotFound)
					}
					if cur.SalesOrderID != nil || !cur.Status.CanTransitionTo(entity.InvoicePaid) {
						return domain.InvalidState("la factura cambió de estado durante la conversión")
					}
					return repos.Invoices.MarkConverted(ctx, inv.ID, so.ID)
				})
			},
		},
	)
	if err != nil {
		return nil, err
	}

	result.Status = entity.InvoicePaid
	result.InventorySynced = !outcome.IsDegraded()
	if !outcome.IsDegraded() {
		return result, nil
	}

	failure := outcome.Degraded[0]
	uc.log.Warn().Err(failure.Err).Str("invoice_id", inv.ID).Str("sales_order_id", so.ID).
		Msg("venta registrada con inventario sin sincronizar")
	if uc.enqueuer != nil {
		if err := uc.enqueuer.EnqueueInventoryResync(ctx, inv.ID); err != nil {
			uc.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo encolar la resincronización")
		}
	}
	return result, &domain.PartialFailure{
		Step:      failure.Step,
		Completed: outcome.Completed,
		Err:       failure.Err,
		Degraded:  true,
	}
}

func checkConvertible(inv *entity.Invoice, items []*entity.InvoiceItem) error {
	if inv.Status == entity.InvoiceCancelled {
		return domain.InvalidState("una factura anulada no puede convertirse en venta")
	}
	if inv.SalesOrderID != nil || inv.Status == entity.InvoicePaid {
		return &domain.ValidationError{Code: domain.CodeAlreadyConverted, Message: "la factura ya fue convertida en venta", Err: domain.ErrAlreadyConverted}
	}
	if len(items) == 0 {
		return domain.NewValidationError("lines", "la factura no tiene líneas")
	}
	if inv.CustomerID == "" {
		return domain.NewValidationError("customer_id", "la factura no tiene cliente")
	}
	if inv.WarehouseID == "" {
		return domain.NewValidationError("warehouse_id", "la factura no tiene bodega")
	}
	return nil
}

// preflight verifica stock y seriales antes del primer paso cuando la factura aún no tiene salidas.
// No escribe nada.
func (uc *InvoiceUseCase) preflight(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, outType *entity.MovementType) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		exists, err := repos.Movements.ExistsByRelatedIDAndType(ctx, inv.ID, outType.ID)
		if err != nil || exists {
			return err
		}
		demands := make([]ledger.Demand, 0, len(items))
		for _, it := range items {
			if it.SerialID != nil {
				if _, err := serials.CheckSellable(ctx, repos.Serials, *it.SerialID, it.ProductID, inv.WarehouseID); err != nil {
					return err
				}
			}
			demands = append(demands, ledger.Demand{
				Key:      entity.StockKey{ProductID: it.ProductID, WarehouseID: inv.WarehouseID},
				Quantity: it.Quantity,
			})
		}
		return ledger.NewWriter(repos, uc.cfg.Policy).Guard(ctx, demands)
	})
}

// syncSaleMovements escribe el juego de salidas de la factura si todavía no existe. La verificación
// y las escrituras ocurren bajo el bloqueo de la factura, así que dos llamadas concurrentes producen
// un único juego.
func (uc *InvoiceUseCase) syncSaleMovements(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem, outType *entity.MovementType, userID string) (int, error) {
	created := 0
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Locks.Lock(ctx, invoiceLockKey(inv.ID)); err != nil {
			return err
		}
		exists, err := repos.Movements.ExistsByRelatedIDAndType(ctx, inv.ID, outType.ID)
		if err != nil {
			return fmt.Errorf("verificar salidas de la factura: %w", err)
		}
		if exists {
			return nil
		}
		for _, it := range items {
			if it.SerialID != nil {
				if _, err := serials.CheckSellable(ctx, repos.Serials, *it.SerialID, it.ProductID, inv.WarehouseID); err != nil {
					return err
				}
			}
		}
		movs, err := uc.writeSaleMovements(ctx, repos, inv, items, outType, userID)
		if err != nil {
			return err
		}
		created = len(movs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// SyncSaleMovements reintenta la sincronización de inventario de una factura ya convertida.
// Es idempotente: si el juego OUT_SALE existe no escribe nada.
func (uc *InvoiceUseCase) SyncSaleMovements(ctx context.Context, invoiceID string) (int, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	if inv == nil {
		return 0, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	if inv.SalesOrderID == nil {
		return 0, domain.InvalidState("la factura no ha sido convertida en venta")
	}
	items, err := uc.invoices.ListItems(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	outType, err := uc.registry.Resolve(ctx, entity.MovementCodeOutSale)
	if err != nil {
		return 0, err
	}
	return uc.syncSaleMovements(ctx, inv, items, outType, inv.CreatedBy)
}
