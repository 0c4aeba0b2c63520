package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var (
	_ repository.PurchaseOrderRepository = purchaseOrderRepo{}
	_ repository.ProductSerialRepository = serialRepo{}
	_ repository.InvoiceRepository       = invoiceRepo{}
	_ repository.SalesOrderRepository    = salesOrderRepo{}
)

type purchaseOrderRepo struct{ access }

func (r purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := r.do(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			cp := *o
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r purchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r purchaseOrderRepo) ListItems(_ context.Context, orderID string) ([]*entity.PurchaseOrderItem, error) {
	var out []*entity.PurchaseOrderItem
	err := r.do(func(st *state) error {
		for _, it := range st.orderItems[orderID] {
			cp := *it
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r purchaseOrderRepo) UpdateStatus(_ context.Context, id string, status entity.PurchaseOrderStatus) error {
	return r.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		o.Status = status
		o.UpdatedAt = time.Now()
		return nil
	})
}

func (r purchaseOrderRepo) UpdateItemReceived(_ context.Context, itemID string, received decimal.Decimal) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("purchase_orders.update_item"); err != nil {
			return err
		}
		for _, items := range st.orderItems {
			for _, it := range items {
				if it.ID == itemID {
					it.ReceivedQuantity = received
					return nil
				}
			}
		}
		return domain.ErrNotFound
	})
}

func (r purchaseOrderRepo) CreateReceipt(_ context.Context, rc *entity.PurchaseReceipt) error {
	return r.do(func(st *state) error {
		cp := *rc
		st.receipts = append(st.receipts, &cp)
		return nil
	})
}

type serialRepo struct{ access }

func (r serialRepo) Create(_ context.Context, s *entity.ProductSerial) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("serials.create"); err != nil {
			return err
		}
		for _, existing := range st.serials {
			if existing.ProductID == s.ProductID && existing.SerialCode == s.SerialCode {
				return fmt.Errorf("serial %s: %w", s.SerialCode, domain.ErrDuplicate)
			}
		}
		cp := *s
		st.serials[s.ID] = &cp
		return nil
	})
}

func (r serialRepo) GetByID(_ context.Context, id string) (*entity.ProductSerial, error) {
	var out *entity.ProductSerial
	err := r.do(func(st *state) error {
		if s, ok := st.serials[id]; ok {
			cp := *s
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r serialRepo) ExistsByProductAndCode(_ context.Context, productID, code string) (bool, error) {
	found := false
	err := r.do(func(st *state) error {
		for _, s := range st.serials {
			if s.ProductID == productID && s.SerialCode == code {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r serialRepo) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	changed := false
	err := r.do(func(st *state) error {
		s, ok := st.serials[id]
		if !ok || s.Status != from {
			return nil
		}
		s.Status = to
		s.UpdatedAt = time.Now()
		changed = true
		return nil
	})
	return changed, err
}

func (r serialRepo) ListAvailable(_ context.Context, productID, warehouseID string) ([]*entity.ProductSerial, error) {
	var out []*entity.ProductSerial
	err := r.do(func(st *state) error {
		for _, s := range st.serials {
			if s.ProductID != productID || s.Status != entity.SerialInStock {
				continue
			}
			if warehouseID != "" && s.WarehouseID != warehouseID {
				continue
			}
			cp := *s
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SerialCode < out[j].SerialCode })
	return out, err
}

type invoiceRepo struct{ access }

func (r invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	return r.do(func(st *state) error {
		if _, ok := st.invoices[inv.ID]; ok {
			return domain.ErrDuplicate
		}
		cp := *inv
		st.invoices[inv.ID] = &cp
		return nil
	})
}

func (r invoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	return r.do(func(st *state) error {
		cur, ok := st.invoices[inv.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *inv
		cp.SalesOrderID = cur.SalesOrderID
		st.invoices[inv.ID] = &cp
		return nil
	})
}

func (r invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.do(func(st *state) error {
		if inv, ok := st.invoices[id]; ok {
			cp := *inv
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r invoiceRepo) ListItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	err := r.do(func(st *state) error {
		for _, it := range st.invoiceItems[invoiceID] {
			cp := *it
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r invoiceRepo) ReplaceItems(_ context.Context, invoiceID string, items []*entity.InvoiceItem) error {
	return r.do(func(st *state) error {
		copies := make([]*entity.InvoiceItem, 0, len(items))
		for _, it := range items {
			cp := *it
			copies = append(copies, &cp)
		}
		st.invoiceItems[invoiceID] = copies
		return nil
	})
}

func (r invoiceRepo) UpdateStatus(_ context.Context, id string, status entity.InvoiceStatus) error {
	return r.do(func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok {
			return domain.ErrNotFound
		}
		inv.Status = status
		inv.UpdatedAt = time.Now()
		return nil
	})
}

func (r invoiceRepo) MarkConverted(_ context.Context, id, salesOrderID string) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("invoices.mark_converted"); err != nil {
			return err
		}
		inv, ok := st.invoices[id]
		if !ok {
			return domain.ErrNotFound
		}
		soID := salesOrderID
		inv.SalesOrderID = &soID
		inv.Status = entity.InvoicePaid
		inv.UpdatedAt = time.Now()
		return nil
	})
}

type salesOrderRepo struct{ access }

func (r salesOrderRepo) Create(_ context.Context, so *entity.SalesOrder) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("sales_orders.create"); err != nil {
			return err
		}
		for _, existing := range st.salesOrders {
			if existing.InvoiceID == so.InvoiceID {
				return fmt.Errorf("orden de venta para factura %s: %w", so.InvoiceID, domain.ErrDuplicate)
			}
		}
		cp := *so
		st.salesOrders[so.ID] = &cp
		return nil
	})
}

func (r salesOrderRepo) CreateItems(_ context.Context, items []*entity.SalesOrderItem) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("sales_orders.create_items"); err != nil {
			return err
		}
		for _, it := range items {
			if _, ok := st.salesOrders[it.SalesOrderID]; !ok {
				return fmt.Errorf("orden de venta %s: %w", it.SalesOrderID, domain.ErrNotFound)
			}
			cp := *it
			st.salesOrderItems[it.SalesOrderID] = append(st.salesOrderItems[it.SalesOrderID], &cp)
		}
		return nil
	})
}

func (r salesOrderRepo) GetByInvoiceID(_ context.Context, invoiceID string) (*entity.SalesOrder, error) {
	var out *entity.SalesOrder
	err := r.do(func(st *state) error {
		for _, so := range st.salesOrders {
			if so.InvoiceID == invoiceID {
				cp := *so
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r salesOrderRepo) Delete(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("sales_orders.delete"); err != nil {
			return err
		}
		delete(st.salesOrderItems, id)
		delete(st.salesOrders, id)
		return nil
	})
}
