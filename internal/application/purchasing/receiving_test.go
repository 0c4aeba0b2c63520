package purchasing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/purchasing"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
)

type fixture struct {
	store   *memory.Store
	uc      *purchasing.ReceivingUseCase
	ledger  *ledger.Service
	wh      *entity.Warehouse
	bulk    *entity.Product
	moto    *entity.Product
	order   *entity.PurchaseOrder
	bulkRow *entity.PurchaseOrderItem
	motoRow *entity.PurchaseOrderItem
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T, status entity.PurchaseOrderStatus) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedCatalog()
	repos := store.Repos()
	registry := ledger.NewRegistry(repos.MovementTypes)

	f := &fixture{
		store:  store,
		uc:     purchasing.NewReceivingUseCase(store, registry, ledger.Policy{}),
		ledger: ledger.NewService(store, registry, repos.Stock, repos.Movements, ledger.Policy{}),
		wh:     store.AddWarehouse(&entity.Warehouse{Name: "Central"}),
		bulk:   store.AddProduct(&entity.Product{SKU: "ACE-1", Name: "Aceite 1L"}),
		moto:   store.AddProduct(&entity.Product{SKU: "MOT-150", Name: "Moto 150", TrackingMethod: entity.TrackingSerialized}),
	}
	f.bulkRow = &entity.PurchaseOrderItem{ProductID: f.bulk.ID, Quantity: dec("10")}
	f.motoRow = &entity.PurchaseOrderItem{ProductID: f.moto.ID, Quantity: dec("2")}
	f.order = store.AddPurchaseOrder(&entity.PurchaseOrder{
		Number:      "OC-0007",
		WarehouseID: &f.wh.ID,
		Status:      status,
	}, f.bulkRow, f.motoRow)
	return f
}

func (f *fixture) receive(lines ...purchasing.ReceiveLine) (*purchasing.ReceiveResult, error) {
	return f.uc.Receive(context.Background(), purchasing.ReceiveInput{OrderID: f.order.ID, Lines: lines, UserID: "u-1"})
}

func (f *fixture) status(t *testing.T) entity.PurchaseOrderStatus {
	t.Helper()
	o, err := f.store.Repos().PurchaseOrders.GetByID(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o.Status
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), productID, f.wh.ID, nil)
	require.NoError(t, err)
	return q
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Code
}

func TestReceive_ParcialYLuegoCompleta(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)

	res, err := f.receive(purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("6")})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderPartiallyReceived, res.Status)
	require.Len(t, res.Movements, 1)
	m := res.Movements[0]
	assert.Equal(t, entity.MovementCodeInPurchase, m.MovementTypeCode)
	require.NotNil(t, m.RelatedID)
	assert.Equal(t, f.order.ID, *m.RelatedID)
	assert.Equal(t, "Recepción OC OC-0007", m.Reference)
	assert.True(t, dec("6").Equal(f.stock(t, f.bulk.ID)))

	res, err = f.receive(
		purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("4")},
		purchasing.ReceiveLine{ItemID: f.motoRow.ID, Quantity: dec("2"), Serials: []serials.Input{{Code: "CH-1"}, {Code: "CH-2"}}},
	)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseOrderCompleted, res.Status)
	assert.Len(t, res.Serials, 2)
	assert.Equal(t, entity.PurchaseOrderCompleted, f.status(t))
	assert.True(t, dec("10").Equal(f.stock(t, f.bulk.ID)))
	assert.True(t, dec("2").Equal(f.stock(t, f.moto.ID)))
	assert.Len(t, f.store.Receipts(), 3)

	_, err = f.receive(purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("1")})
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, err))
}

func TestReceive_AcotaAlPendiente(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)

	res, err := f.receive(purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("15")})
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(res.Movements[0].Quantity))

	items, err := f.store.Repos().PurchaseOrders.ListItems(context.Background(), f.order.ID)
	require.NoError(t, err)
	for _, it := range items {
		assert.True(t, it.ReceivedQuantity.LessThanOrEqual(it.Quantity))
	}
	assert.Equal(t, entity.PurchaseOrderPartiallyReceived, res.Status, "la línea serializada sigue pendiente")
}

func TestReceive_NadaPorRecibir(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)

	_, err := f.receive(
		purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("0")},
		purchasing.ReceiveLine{ItemID: f.motoRow.ID, Quantity: dec("-3")},
	)
	assert.Equal(t, domain.CodeNothingToReceive, validationCode(t, err))
	assert.Empty(t, f.store.Movements())
	assert.Equal(t, entity.PurchaseOrderSent, f.status(t))
}

func TestReceive_Rechazos(t *testing.T) {
	tests := []struct {
		name   string
		status entity.PurchaseOrderStatus
		lines  func(f *fixture) []purchasing.ReceiveLine
		code   string
	}{
		{
			name:   "orden en borrador",
			status: entity.PurchaseOrderDraft,
			lines: func(f *fixture) []purchasing.ReceiveLine {
				return []purchasing.ReceiveLine{{ItemID: f.bulkRow.ID, Quantity: dec("1")}}
			},
			code: domain.CodeInvalidState,
		},
		{
			name:   "orden cancelada",
			status: entity.PurchaseOrderCancelled,
			lines: func(f *fixture) []purchasing.ReceiveLine {
				return []purchasing.ReceiveLine{{ItemID: f.bulkRow.ID, Quantity: dec("1")}}
			},
			code: domain.CodeInvalidState,
		},
		{
			name:   "faltan seriales",
			status: entity.PurchaseOrderSent,
			lines: func(f *fixture) []purchasing.ReceiveLine {
				return []purchasing.ReceiveLine{
					{ItemID: f.bulkRow.ID, Quantity: dec("5")},
					{ItemID: f.motoRow.ID, Quantity: dec("2"), Serials: []serials.Input{{Code: "CH-1"}}},
				}
			},
			code: domain.CodeSerialMismatch,
		},
		{
			name:   "serial repetido",
			status: entity.PurchaseOrderSent,
			lines: func(f *fixture) []purchasing.ReceiveLine {
				return []purchasing.ReceiveLine{
					{ItemID: f.motoRow.ID, Quantity: dec("2"), Serials: []serials.Input{{Code: "CH-1"}, {Code: "CH-1"}}},
				}
			},
			code: domain.CodeDuplicateSerial,
		},
		{
			name:   "línea ajena a la orden",
			status: entity.PurchaseOrderSent,
			lines: func(f *fixture) []purchasing.ReceiveLine {
				return []purchasing.ReceiveLine{{ItemID: "otra", Quantity: dec("1")}}
			},
			code: domain.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status)
			_, err := f.receive(tt.lines(f)...)
			assert.Equal(t, tt.code, validationCode(t, err))
			assert.Empty(t, f.store.Movements())
			assert.Empty(t, f.store.Receipts())
			assert.Equal(t, tt.status, f.status(t))
		})
	}
}

func TestReceive_SerialYaRegistrado(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)
	f.store.AddSerial(&entity.ProductSerial{ProductID: f.moto.ID, SerialCode: "CH-1", WarehouseID: f.wh.ID})

	_, err := f.receive(purchasing.ReceiveLine{
		ItemID:   f.motoRow.ID,
		Quantity: dec("2"),
		Serials:  []serials.Input{{Code: "CH-1"}, {Code: "CH-2"}},
	})
	assert.Equal(t, domain.CodeDuplicateSerial, validationCode(t, err))
	assert.Empty(t, f.store.Movements())
}

// Una falla a mitad de la recepción no deja recepciones, movimientos ni cantidades parciales.
func TestReceive_FallaEsAtomica(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)
	boom := errors.New("disco lleno")
	f.store.InjectFault("purchase_orders.update_item", 1, boom)

	_, err := f.receive(
		purchasing.ReceiveLine{ItemID: f.bulkRow.ID, Quantity: dec("3")},
		purchasing.ReceiveLine{ItemID: f.motoRow.ID, Quantity: dec("1"), Serials: []serials.Input{{Code: "CH-9"}}},
	)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.store.Movements())
	assert.Empty(t, f.store.Receipts())
	assert.True(t, f.stock(t, f.bulk.ID).IsZero())

	available, err := f.store.Repos().Serials.ListAvailable(context.Background(), f.moto.ID, "")
	require.NoError(t, err)
	assert.Empty(t, available)

	items, err := f.store.Repos().PurchaseOrders.ListItems(context.Background(), f.order.ID)
	require.NoError(t, err)
	for _, it := range items {
		assert.True(t, it.ReceivedQuantity.IsZero())
	}
}

func TestSendOrder_EnviarYAnular(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, entity.PurchaseOrderDraft)
	require.NoError(t, f.uc.SendOrder(ctx, f.order.ID))
	assert.Equal(t, entity.PurchaseOrderSent, f.status(t))
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, f.uc.SendOrder(ctx, f.order.ID)))

	require.NoError(t, f.uc.CancelOrder(ctx, f.order.ID))
	assert.Equal(t, entity.PurchaseOrderCancelled, f.status(t))
	assert.Empty(t, f.store.Movements())

	g := newFixture(t, entity.PurchaseOrderSent)
	_, err := g.receive(purchasing.ReceiveLine{ItemID: g.bulkRow.ID, Quantity: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, domain.CodeInvalidState, validationCode(t, g.uc.CancelOrder(ctx, g.order.ID)))

	assert.ErrorIs(t, g.uc.CancelOrder(ctx, "no-existe"), domain.ErrNotFound)
}

// Dos líneas del mismo producto comparten los códigos del envío: el repetido se rechaza antes de escribir.
func TestReceive_SerialRepetidoEntreLineasDelMismoProducto(t *testing.T) {
	f := newFixture(t, entity.PurchaseOrderSent)
	order := f.store.AddPurchaseOrder(&entity.PurchaseOrder{
		Number:      "OC-0008",
		WarehouseID: &f.wh.ID,
		Status:      entity.PurchaseOrderSent,
	},
		&entity.PurchaseOrderItem{ProductID: f.moto.ID, Quantity: dec("1")},
		&entity.PurchaseOrderItem{ProductID: f.moto.ID, Quantity: dec("1")},
	)
	items, err := f.store.Repos().PurchaseOrders.ListItems(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Cualquier escritura fallaría: el rechazo tiene que venir de la validación previa.
	f.store.InjectFault("purchase_orders.update_item", 0, errors.New("no debió escribir"))
	f.store.InjectFault("serials.create", 0, errors.New("no debió escribir"))

	_, err = f.uc.Receive(context.Background(), purchasing.ReceiveInput{
		OrderID: order.ID,
		UserID:  "u-1",
		Lines: []purchasing.ReceiveLine{
			{ItemID: items[0].ID, Quantity: dec("1"), Serials: []serials.Input{{Code: "CH-7"}}},
			{ItemID: items[1].ID, Quantity: dec("1"), Serials: []serials.Input{{Code: " CH-7 "}}},
		},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeDuplicateSerial, ve.Code)
	assert.Equal(t, "MOT-150 Moto 150", ve.Product)
	assert.Empty(t, f.store.Movements())
	assert.Empty(t, f.store.Receipts())
}
