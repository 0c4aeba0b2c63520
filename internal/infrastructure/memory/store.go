package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Store implementa todos los puertos en memoria (modo dev sin DATABASE_URL y pruebas).
// Run serializa las transacciones con un único mutex y restaura una copia del estado si fn falla.
type Store struct {
	mu sync.Mutex
	st *state

	catMu   sync.RWMutex
	catalog map[string]*entity.MovementType

	faultMu sync.Mutex
	faults  map[string]*fault
}

type fault struct {
	skip int
	err  error
}

type state struct {
	movements       []*entity.StockMovement
	products        map[string]*entity.Product
	warehouses      map[string]*entity.Warehouse
	locations       map[string]*entity.Location
	orders          map[string]*entity.PurchaseOrder
	orderItems      map[string][]*entity.PurchaseOrderItem
	receipts        []*entity.PurchaseReceipt
	serials         map[string]*entity.ProductSerial
	invoices        map[string]*entity.Invoice
	invoiceItems    map[string][]*entity.InvoiceItem
	salesOrders     map[string]*entity.SalesOrder
	salesOrderItems map[string][]*entity.SalesOrderItem
}

func newState() *state {
	return &state{
		products:        make(map[string]*entity.Product),
		warehouses:      make(map[string]*entity.Warehouse),
		locations:       make(map[string]*entity.Location),
		orders:          make(map[string]*entity.PurchaseOrder),
		orderItems:      make(map[string][]*entity.PurchaseOrderItem),
		serials:         make(map[string]*entity.ProductSerial),
		invoices:        make(map[string]*entity.Invoice),
		invoiceItems:    make(map[string][]*entity.InvoiceItem),
		salesOrders:     make(map[string]*entity.SalesOrder),
		salesOrderItems: make(map[string][]*entity.SalesOrderItem),
	}
}

// NewStore crea un store vacío. El catálogo de tipos se carga con SeedCatalog o AddMovementType.
func NewStore() *Store {
	return &Store{
		st:      newState(),
		catalog: make(map[string]*entity.MovementType),
		faults:  make(map[string]*fault),
	}
}

// DefaultMovementCodes códigos con los que se siembra el catálogo en modo dev.
var DefaultMovementCodes = map[string]string{
	entity.MovementCodeInPurchase:  "Entrada por compra",
	entity.MovementCodeInTransfer:  "Entrada por traslado",
	entity.MovementCodeInAdjust:    "Ajuste de entrada",
	"IN_RETURN":                    "Devolución de cliente",
	entity.MovementCodeOutSale:     "Salida por venta",
	entity.MovementCodeOutTransfer: "Salida por traslado",
	entity.MovementCodeOutAdjust:   "Ajuste de salida",
	"OUT_DAMAGE":                   "Baja por daño",
}

// SeedCatalog carga DefaultMovementCodes.
func (s *Store) SeedCatalog() {
	for code, name := range DefaultMovementCodes {
		s.AddMovementType(&entity.MovementType{Code: code, Name: name})
	}
}

// AddMovementType agrega un código al catálogo.
func (s *Store) AddMovementType(mt *entity.MovementType) *entity.MovementType {
	s.catMu.Lock()
	defer s.catMu.Unlock()
	if mt.ID == "" {
		mt.ID = uuid.New().String()
	}
	cp := *mt
	s.catalog[mt.Code] = &cp
	return mt
}

// InjectFault hace fallar la operación op una vez, después de dejar pasar skip llamadas.
func (s *Store) InjectFault(op string, skip int, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = &fault{skip: skip, err: err}
}

func (s *Store) fail(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(s.faults, op)
	return fmt.Errorf("%s: %w", op, f.err)
}

// Run ejecuta fn de forma exclusiva; si fn devuelve error el estado vuelve a la copia previa.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Repos devuelve repositorios fuera de transacción; cada llamada toma el mutex.
func (s *Store) Repos() repository.Repos { return s.repos(false) }

func (s *Store) repos(tx bool) repository.Repos {
	a := access{s: s, tx: tx}
	return repository.Repos{
		Movements:      movementRepo{a},
		MovementTypes:  movementTypeRepo{s},
		Stock:          projectionRepo{a},
		Locks:          lockRepo{},
		Products:       productRepo{a},
		Warehouses:     warehouseRepo{a},
		Locations:      locationRepo{a},
		PurchaseOrders: purchaseOrderRepo{a},
		Serials:        serialRepo{a},
		Invoices:       invoiceRepo{a},
		SalesOrders:    salesOrderRepo{a},
	}
}

type access struct {
	s  *Store
	tx bool
}

func (a access) do(fn func(st *state) error) error {
	if !a.tx {
		a.s.mu.Lock()
		defer a.s.mu.Unlock()
	}
	return fn(a.s.st)
}

// lockRepo no hace nada: Run ya es exclusivo.
type lockRepo struct{}

func (lockRepo) Lock(context.Context, string) error { return nil }

func (st *state) clone() *state {
	c := newState()
	for _, m := range st.movements {
		cp := *m
		c.movements = append(c.movements, &cp)
	}
	for k, v := range st.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range st.warehouses {
		cp := *v
		c.warehouses[k] = &cp
	}
	for k, v := range st.locations {
		cp := *v
		c.locations[k] = &cp
	}
	for k, v := range st.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, items := range st.orderItems {
		for _, it := range items {
			cp := *it
			c.orderItems[k] = append(c.orderItems[k], &cp)
		}
	}
	for _, r := range st.receipts {
		cp := *r
		c.receipts = append(c.receipts, &cp)
	}
	for k, v := range st.serials {
		cp := *v
		c.serials[k] = &cp
	}
	for k, v := range st.invoices {
		cp := *v
		c.invoices[k] = &cp
	}
	for k, items := range st.invoiceItems {
		for _, it := range items {
			cp := *it
			c.invoiceItems[k] = append(c.invoiceItems[k], &cp)
		}
	}
	for k, v := range st.salesOrders {
		cp := *v
		c.salesOrders[k] = &cp
	}
	for k, items := range st.salesOrderItems {
		for _, it := range items {
			cp := *it
			c.salesOrderItems[k] = append(c.salesOrderItems[k], &cp)
		}
	}
	return c
}
