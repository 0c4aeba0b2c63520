package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// Altas directas de datos maestros y documentos (seed en modo dev y pruebas).

// AddProduct registra un producto; genera ID si viene vacío.
func (s *Store) AddProduct(p *entity.Product) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.TrackingMethod == "" {
		p.TrackingMethod = entity.TrackingBulk
	}
	cp := *p
	s.st.products[p.ID] = &cp
	return p
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w *entity.Warehouse) *entity.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	cp := *w
	s.st.warehouses[w.ID] = &cp
	return w
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l *entity.Location) *entity.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	cp := *l
	s.st.locations[l.ID] = &cp
	return l
}

// AddPurchaseOrder registra una orden de compra con sus líneas.
func (s *Store) AddPurchaseOrder(o *entity.PurchaseOrder, items ...*entity.PurchaseOrderItem) *entity.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = entity.PurchaseOrderDraft
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now()
	}
	cp := *o
	s.st.orders[o.ID] = &cp
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.PurchaseOrderID = o.ID
		ic := *it
		s.st.orderItems[o.ID] = append(s.st.orderItems[o.ID], &ic)
	}
	return o
}

// AddSerial registra un serial existente (p. ej. inventario inicial).
func (s *Store) AddSerial(ps *entity.ProductSerial) *entity.ProductSerial {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps.ID == "" {
		ps.ID = uuid.New().String()
	}
	if ps.Status == "" {
		ps.Status = entity.SerialInStock
	}
	cp := *ps
	s.st.serials[ps.ID] = &cp
	return ps
}

// Movements devuelve una copia de todo el kardex.
func (s *Store) Movements() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, 0, len(s.st.movements))
	for _, m := range s.st.movements {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

// Receipts devuelve una copia de las recepciones registradas.
func (s *Store) Receipts() []*entity.PurchaseReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.PurchaseReceipt, 0, len(s.st.receipts))
	for _, r := range s.st.receipts {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

// SalesOrders devuelve una copia de las órdenes de venta.
func (s *Store) SalesOrders() []*entity.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.SalesOrder, 0, len(s.st.salesOrders))
	for _, so := range s.st.salesOrders {
		cp := *so
		out = append(out, &cp)
	}
	return out
}
