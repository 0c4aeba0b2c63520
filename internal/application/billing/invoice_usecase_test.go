package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/billing"
	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
)

type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (e *recordingEnqueuer) EnqueueInventoryResync(_ context.Context, invoiceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, invoiceID)
	return nil
}

type fixture struct {
	store    *memory.Store
	uc       *billing.InvoiceUseCase
	ledger   *ledger.Service
	enqueuer *recordingEnqueuer
	wh       *entity.Warehouse
	oil      *entity.Product
	moto     *entity.Product
	serialID string
}

var (
	admin  = billing.Actor{UserID: "u-admin", Role: "admin"}
	seller = billing.Actor{UserID: "u-vend", Role: "vendedor"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedCatalog()
	repos := store.Repos()
	registry := ledger.NewRegistry(repos.MovementTypes)

	f := &fixture{
		store:    store,
		ledger:   ledger.NewService(store, registry, repos.Stock, repos.Movements, ledger.Policy{}),
		enqueuer: &recordingEnqueuer{},
		wh:       store.AddWarehouse(&entity.Warehouse{Name: "Central"}),
		oil:      store.AddProduct(&entity.Product{SKU: "ACE-1", Name: "Aceite 1L", TaxRate: dec("19")}),
		moto:     store.AddProduct(&entity.Product{SKU: "MOT-150", Name: "Moto 150", TrackingMethod: entity.TrackingSerialized}),
	}
	f.uc = billing.NewInvoiceUseCase(store, registry, repos.Invoices, memory.NewLocker(), f.enqueuer,
		billing.Config{CancelRoles: []string{"admin"}, LockTTL: time.Second}, zerolog.Nop())

	f.stockIn(t, f.oil.ID, "10")
	f.stockIn(t, f.moto.ID, "1")
	f.serialID = store.AddSerial(&entity.ProductSerial{ProductID: f.moto.ID, SerialCode: "CH-1", WarehouseID: f.wh.ID}).ID
	return f
}

func (f *fixture) stockIn(t *testing.T, productID, qty string) {
	t.Helper()
	f.stockInAt(t, productID, f.wh.ID, qty)
}

func (f *fixture) stockInAt(t *testing.T, productID, warehouseID, qty string) {
	t.Helper()
	_, err := f.ledger.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    dec(qty),
		TypeCode:    entity.MovementCodeInAdjust,
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), productID, f.wh.ID, nil)
	require.NoError(t, err)
	return q
}

func (f *fixture) related(t *testing.T, invoiceID, code string) []*entity.StockMovement {
	t.Helper()
	all, err := f.ledger.MovementsByRelatedID(context.Background(), invoiceID)
	require.NoError(t, err)
	var out []*entity.StockMovement
	for _, m := range all {
		if m.MovementTypeCode == code {
			out = append(out, m)
		}
	}
	return out
}

func (f *fixture) save(t *testing.T, id string, status entity.InvoiceStatus, oilQty string) (*billing.InvoiceResult, error) {
	t.Helper()
	return f.uc.Save(context.Background(), billing.SaveInput{
		InvoiceID:   id,
		Number:      "F-001",
		CustomerID:  "c-1",
		WarehouseID: f.wh.ID,
		Status:      status,
		UserID:      seller.UserID,
		Lines: []billing.LineInput{
			{ProductID: f.oil.ID, Quantity: dec(oilQty), UnitPrice: dec("20000")},
			{ProductID: f.moto.ID, SerialID: &f.serialID, Quantity: dec("1"), UnitPrice: dec("5000000")},
		},
	})
}

func (f *fixture) serialStatus(t *testing.T) string {
	t.Helper()
	s, err := f.store.Repos().Serials.GetByID(context.Background(), f.serialID)
	require.NoError(t, err)
	return s.Status
}

// staleSerials devuelve los seriales como in_stock aunque ya estén vendidos: es la lectura que ve una
// transacción cuando otra vendió la unidad después de su verificación.
type staleSerials struct {
	repository.ProductSerialRepository
}

func (s staleSerials) GetByID(ctx context.Context, id string) (*entity.ProductSerial, error) {
	ps, err := s.ProductSerialRepository.GetByID(ctx, id)
	if ps != nil {
		ps.Status = entity.SerialInStock
	}
	return ps, err
}

type staleRunner struct {
	store *memory.Store
}

func (r staleRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return r.store.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		repos.Serials = staleSerials{repos.Serials}
		return fn(ctx, repos)
	})
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Code
}

func TestSave_BorradorNoMueveInventario(t *testing.T) {
	f := newFixture(t)

	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, res.Invoice.Status)
	assert.Empty(t, res.Movements)
	assert.True(t, dec("5060000").Equal(res.Invoice.NetTotal))
	assert.True(t, dec("11400").Equal(res.Invoice.TaxTotal), "el IVA sólo aplica al aceite")
	assert.True(t, dec("10").Equal(f.stock(t, f.oil.ID)))
	assert.Equal(t, entity.SerialInStock, f.serialStatus(t))
}

func TestSave_EmitirEsIdempotente(t *testing.T) {
	f := newFixture(t)

	res, err := f.save(t, "", entity.InvoiceIssued, "3")
	require.NoError(t, err)
	id := res.Invoice.ID
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "Factura F-001", res.Movements[0].Reference)
	assert.True(t, dec("7").Equal(f.stock(t, f.oil.ID)))
	assert.Equal(t, entity.SerialSold, f.serialStatus(t))

	_, err = f.save(t, id, entity.InvoiceIssued, "3")
	require.NoError(t, err)
	assert.Len(t, f.related(t, id, entity.MovementCodeOutSale), 2)
	assert.True(t, dec("7").Equal(f.stock(t, f.oil.ID)))

	_, err = f.save(t, id, entity.InvoiceIssued, "4")
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(f.stock(t, f.oil.ID)), "la resincronización reemplaza las salidas")
	assert.Equal(t, entity.SerialSold, f.serialStatus(t))
}

func TestSave_StockInsuficienteNoEscribe(t *testing.T) {
	f := newFixture(t)

	_, err := f.save(t, "", entity.InvoiceIssued, "11")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeInsufficientStock, ve.Code)
	assert.Equal(t, "ACE-1 Aceite 1L", ve.Product)
	assert.True(t, dec("11").Equal(*ve.Requested))
	assert.True(t, dec("10").Equal(*ve.Available))

	assert.Len(t, f.store.Movements(), 2, "sólo las entradas iniciales")
	assert.Equal(t, entity.SerialInStock, f.serialStatus(t))
}

func TestSave_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Save(ctx, billing.SaveInput{CustomerID: "c-1", WarehouseID: f.wh.ID, Status: entity.InvoicePaid,
		Lines: []billing.LineInput{{ProductID: f.oil.ID, Quantity: dec("1")}}})
	assert.Equal(t, domain.CodeValidation, validationCode(t, err))

	_, err = f.uc.Save(ctx, billing.SaveInput{CustomerID: "c-1", WarehouseID: f.wh.ID, Status: entity.InvoiceDraft,
		Lines: []billing.LineInput{{ProductID: f.oil.ID, SerialID: &f.serialID, Quantity: dec("1")}}})
	assert.Equal(t, domain.CodeValidation, validationCode(t, err), "serial en producto a granel")

	_, err = f.uc.Save(ctx, billing.SaveInput{CustomerID: "c-1", WarehouseID: f.wh.ID, Status: entity.InvoiceDraft,
		Lines: []billing.LineInput{{ProductID: f.oil.ID, Quantity: dec("1"), UnitPrice: dec("10"), Discount: dec("20")}}})
	assert.Equal(t, domain.CodeValidation, validationCode(t, err))

	_, err = f.uc.Save(ctx, billing.SaveInput{InvoiceID: "no-existe", CustomerID: "c-1", WarehouseID: f.wh.ID, Status: entity.InvoiceDraft,
		Lines: []billing.LineInput{{ProductID: f.oil.ID, Quantity: dec("1")}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_EmitidaDevuelveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.save(t, "", entity.InvoiceIssued, "3")
	require.NoError(t, err)
	id := res.Invoice.ID

	_, err = f.uc.Cancel(ctx, id, seller)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.related(t, id, entity.MovementCodeInAdjust))

	out, err := f.uc.Cancel(ctx, id, admin)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCancelled, out.Invoice.Status)
	require.Len(t, out.Movements, 2)
	assert.Len(t, f.related(t, id, entity.MovementCodeInAdjust), 2)
	assert.Len(t, f.related(t, id, entity.MovementCodeOutSale), 2, "las salidas originales se conservan")
	assert.True(t, dec("10").Equal(f.stock(t, f.oil.ID)))
	assert.Equal(t, entity.SerialInStock, f.serialStatus(t))

	_, err = f.uc.Cancel(ctx, id, admin)
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, err))
	assert.Len(t, f.related(t, id, entity.MovementCodeInAdjust), 2)

	_, err = f.save(t, id, entity.InvoiceIssued, "1")
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, err))
}

func TestCancel_BorradorSinMovimientos(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)

	out, err := f.uc.Cancel(context.Background(), res.Invoice.ID, admin)
	require.NoError(t, err)
	assert.Empty(t, out.Movements)
	assert.Len(t, f.store.Movements(), 2)
}

func TestConvertToSale_DesdeBorrador(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	id := res.Invoice.ID

	conv, err := f.uc.ConvertToSale(ctx, id, seller)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePaid, conv.Status)
	assert.True(t, conv.InventorySynced)
	assert.Equal(t, 2, conv.MovementsCreated)
	assert.Len(t, f.related(t, id, entity.MovementCodeOutSale), 2)
	assert.Equal(t, entity.SerialSold, f.serialStatus(t))

	inv, err := f.uc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, inv.Invoice.SalesOrderID)
	assert.Equal(t, conv.SalesOrderID, *inv.Invoice.SalesOrderID)
	assert.Equal(t, entity.InvoicePaid, inv.Invoice.Status)
	require.NotNil(t, inv.SalesOrder, "la factura convertida trae su orden de venta")
	assert.Equal(t, conv.SalesOrderID, inv.SalesOrder.ID)
	assert.Equal(t, entity.SalesOrderConfirmed, inv.SalesOrder.Status)
	assert.True(t, inv.Invoice.GrandTotal.Equal(inv.SalesOrder.Total))

	_, err = f.uc.ConvertToSale(ctx, id, seller)
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)
	assert.Len(t, f.store.SalesOrders(), 1)
}

// Una factura emitida ya tiene su juego de salidas: la conversión no escribe otro.
func TestConvertToSale_DesdeEmitidaNoDuplicaSalidas(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceIssued, "3")
	require.NoError(t, err)

	conv, err := f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, 0, conv.MovementsCreated)
	assert.Len(t, f.related(t, res.Invoice.ID, entity.MovementCodeOutSale), 2)
	assert.True(t, dec("7").Equal(f.stock(t, f.oil.ID)))
}

func TestConvertToSale_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.ConvertToSale(ctx, "no-existe", seller)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, res.Invoice.ID, admin)
	require.NoError(t, err)
	_, err = f.uc.ConvertToSale(ctx, res.Invoice.ID, seller)
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, err))

	g := newFixture(t)
	res, err = g.save(t, "", entity.InvoiceDraft, "12")
	require.NoError(t, err)
	_, err = g.uc.ConvertToSale(ctx, res.Invoice.ID, seller)
	assert.Equal(t, domain.CodeInsufficientStock, validationCode(t, err))
	assert.Empty(t, g.store.SalesOrders(), "la verificación previa no escribe")
}

func TestConvertToSale_Concurrente(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyConverted), err.Error())
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.store.SalesOrders(), 1)
	assert.Len(t, f.related(t, res.Invoice.ID, entity.MovementCodeOutSale), 2)
}

func TestConvertToSale_FallaLineasCompensaOrden(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	boom := errors.New("timeout")
	f.store.InjectFault("sales_orders.create_items", 0, boom)

	_, err = f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	require.ErrorIs(t, err, boom)
	var pf *domain.PartialFailure
	assert.False(t, errors.As(err, &pf))
	assert.Empty(t, f.store.SalesOrders())
	assert.Empty(t, f.related(t, res.Invoice.ID, entity.MovementCodeOutSale))

	inv, err := f.uc.Get(context.Background(), res.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, inv.Invoice.Status)

	conv, err := f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	require.NoError(t, err, "tras compensar se puede reintentar")
	assert.Equal(t, entity.InvoicePaid, conv.Status)
}

func TestConvertToSale_CompensacionFallidaEsFallaParcial(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	f.store.InjectFault("sales_orders.create_items", 0, errors.New("timeout"))
	f.store.InjectFault("sales_orders.delete", 0, errors.New("conexión perdida"))

	_, err = f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	var pf *domain.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, billing.StepCreateOrderItems, pf.Step)
	assert.Equal(t, []string{billing.StepCreateSalesOrder}, pf.Completed)
	assert.Error(t, pf.CompensationErr)
	assert.False(t, pf.Degraded)
	assert.Len(t, f.store.SalesOrders(), 1, "la orden huérfana queda para revisión")
}

// Si falla la sincronización de inventario la venta se mantiene y se encola el reintento.
func TestConvertToSale_Degradado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	id := res.Invoice.ID
	f.store.InjectFault("movements.create", 0, errors.New("lock timeout"))

	conv, err := f.uc.ConvertToSale(ctx, id, seller)
	require.NotNil(t, conv)
	var pf *domain.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.True(t, pf.Degraded)
	assert.Equal(t, billing.StepSyncInventory, pf.Step)
	assert.False(t, conv.InventorySynced)
	assert.Equal(t, entity.InvoicePaid, conv.Status)
	assert.Equal(t, []string{id}, f.enqueuer.ids)
	assert.Empty(t, f.related(t, id, entity.MovementCodeOutSale))
	assert.Len(t, f.store.SalesOrders(), 1)

	n, err := f.uc.SyncSaleMovements(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = f.uc.SyncSaleMovements(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, f.related(t, id, entity.MovementCodeOutSale), 2)
	assert.True(t, dec("7").Equal(f.stock(t, f.oil.ID)))
}

// Si falla el último paso se borra la orden de venta; las salidas ya escritas se conservan.
func TestConvertToSale_FallaMarcarPagada(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "3")
	require.NoError(t, err)
	boom := errors.New("deadlock")
	f.store.InjectFault("invoices.mark_converted", 0, boom)

	_, err = f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.store.SalesOrders())
	assert.Len(t, f.related(t, res.Invoice.ID, entity.MovementCodeOutSale), 2)

	conv, err := f.uc.ConvertToSale(context.Background(), res.Invoice.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, 0, conv.MovementsCreated)
	assert.Len(t, f.related(t, res.Invoice.ID, entity.MovementCodeOutSale), 2)
}

func TestSyncSaleMovements_SinConvertir(t *testing.T) {
	f := newFixture(t)
	res, err := f.save(t, "", entity.InvoiceDraft, "1")
	require.NoError(t, err)

	_, err = f.uc.SyncSaleMovements(context.Background(), res.Invoice.ID)
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, err))
}

func TestSave_SerialVendidoEntreVerificacionYEscrituraSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.moto.ID, "1")

	first, err := f.save(t, "", entity.InvoiceIssued, "1")
	require.NoError(t, err)
	require.Equal(t, entity.SerialSold, f.serialStatus(t))

	// Segundo flujo cuya verificación previa todavía ve el serial disponible.
	repos := f.store.Repos()
	racer := billing.NewInvoiceUseCase(staleRunner{store: f.store}, ledger.NewRegistry(repos.MovementTypes), repos.Invoices,
		memory.NewLocker(), f.enqueuer, billing.Config{LockTTL: time.Second}, zerolog.Nop())
	_, err = racer.Save(ctx, billing.SaveInput{
		Number:      "F-002",
		CustomerID:  "c-2",
		WarehouseID: f.wh.ID,
		Status:      entity.InvoiceIssued,
		UserID:      seller.UserID,
		Lines:       []billing.LineInput{{ProductID: f.moto.ID, SerialID: &f.serialID, Quantity: dec("1"), UnitPrice: dec("5000000")}},
	})
	assert.Equal(t, domain.CodeSerialUnavailable, validationCode(t, err))
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)

	var sales int
	for _, m := range f.store.Movements() {
		if m.MovementTypeCode == entity.MovementCodeOutSale && m.SerialID != nil && *m.SerialID == f.serialID {
			sales++
			assert.Equal(t, first.Invoice.ID, *m.RelatedID)
		}
	}
	assert.Equal(t, 1, sales, "la unidad se vende una sola vez")
	assert.True(t, dec("1").Equal(f.stock(t, f.moto.ID)))
}

func TestSave_SerialDeOtraBodegaSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	norte := f.store.AddWarehouse(&entity.Warehouse{Name: "Norte"})
	f.stockInAt(t, f.moto.ID, norte.ID, "1")
	north := f.store.AddSerial(&entity.ProductSerial{ProductID: f.moto.ID, SerialCode: "CH-NORTE", WarehouseID: norte.ID}).ID
	before := len(f.store.Movements())

	_, err := f.uc.Save(ctx, billing.SaveInput{
		Number:      "F-003",
		CustomerID:  "c-1",
		WarehouseID: f.wh.ID,
		Status:      entity.InvoiceIssued,
		UserID:      seller.UserID,
		Lines:       []billing.LineInput{{ProductID: f.moto.ID, SerialID: &north, Quantity: dec("1"), UnitPrice: dec("5000000")}},
	})
	assert.Equal(t, domain.CodeSerialUnavailable, validationCode(t, err))

	assert.Len(t, f.store.Movements(), before)
	assert.True(t, dec("1").Equal(f.stock(t, f.moto.ID)))
	s, err := f.store.Repos().Serials.GetByID(ctx, north)
	require.NoError(t, err)
	assert.Equal(t, entity.SerialInStock, s.Status)

	res, err := f.uc.Save(ctx, billing.SaveInput{
		Number:      "F-004",
		CustomerID:  "c-1",
		WarehouseID: norte.ID,
		Status:      entity.InvoiceIssued,
		UserID:      seller.UserID,
		Lines:       []billing.LineInput{{ProductID: f.moto.ID, SerialID: &north, Quantity: dec("1"), UnitPrice: dec("5000000")}},
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, norte.ID, res.Movements[0].WarehouseID)
}
