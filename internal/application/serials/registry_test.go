package serials_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
)

func codes(cs ...string) []serials.Input {
	out := make([]serials.Input, 0, len(cs))
	for _, c := range cs {
		out = append(out, serials.Input{Code: c})
	}
	return out
}

func TestValidateSubmission_CantidadYRepetidos(t *testing.T) {
	tests := []struct {
		name    string
		qty     string
		serials []serials.Input
		code    string
	}{
		{"cantidad coincide", "2", codes("M-1", "M-2"), ""},
		{"faltan seriales", "3", codes("M-1", "M-2"), domain.CodeSerialMismatch},
		{"sobran seriales", "1", codes("M-1", "M-2"), domain.CodeSerialMismatch},
		{"cantidad fraccionada", "1.5", codes("M-1"), domain.CodeSerialMismatch},
		{"código vacío", "2", codes("M-1", "  "), domain.CodeSerialMismatch},
		{"repetido en el envío", "2", codes("M-1", " M-1 "), domain.CodeDuplicateSerial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := serials.ValidateSubmission("Moto 150", decimal.RequireFromString(tt.qty), tt.serials)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.code, ve.Code)
			assert.Equal(t, "Moto 150", ve.Product)
		})
	}
}

func TestRegister_RegistraYVende(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	product := store.AddProduct(&entity.Product{Name: "Moto 150", TrackingMethod: entity.TrackingSerialized})
	other := store.AddProduct(&entity.Product{Name: "Casco"})
	wh := store.AddWarehouse(&entity.Warehouse{Name: "Central"})
	ctx := context.Background()

	year := 2025
	created, err := serials.Register(ctx, repos.Serials, product, serials.Placement{WarehouseID: wh.ID},
		[]serials.Input{{Code: "CH-001", VIN: "9C2KC", Year: &year}, {Code: "CH-002"}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, entity.SerialInStock, created[0].Status)
	assert.Equal(t, 2025, *created[0].Year)

	_, err = serials.Register(ctx, repos.Serials, product, serials.Placement{WarehouseID: wh.ID}, codes("CH-001"))
	assert.ErrorIs(t, err, domain.ErrDuplicateSerial)

	_, err = serials.CheckSellable(ctx, repos.Serials, created[0].ID, other.ID, wh.ID)
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)

	s, err := serials.CheckSellable(ctx, repos.Serials, created[0].ID, product.ID, wh.ID)
	require.NoError(t, err)
	assert.Equal(t, "CH-001", s.SerialCode)

	require.NoError(t, serials.MarkSold(ctx, repos.Serials, created[0].ID))
	_, err = serials.CheckSellable(ctx, repos.Serials, created[0].ID, product.ID, wh.ID)
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)

	svc := serials.NewService(repos.Serials)
	available, err := svc.ListAvailable(ctx, product.ID, wh.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "CH-002", available[0].SerialCode)

	require.NoError(t, serials.MarkReturned(ctx, repos.Serials, created[0].ID))
	available, err = svc.ListAvailable(ctx, product.ID, "")
	require.NoError(t, err)
	assert.Len(t, available, 2)

	_, err = svc.Get(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkSold_SegundaVentaDelMismoSerialFalla(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	product := store.AddProduct(&entity.Product{Name: "Moto 150", TrackingMethod: entity.TrackingSerialized})
	wh := store.AddWarehouse(&entity.Warehouse{Name: "Central"})
	ctx := context.Background()

	created, err := serials.Register(ctx, repos.Serials, product, serials.Placement{WarehouseID: wh.ID}, codes("CH-010"))
	require.NoError(t, err)
	id := created[0].ID

	// Las dos ventas pasaron la lectura previa antes de que cualquiera marcara el serial.
	_, err = serials.CheckSellable(ctx, repos.Serials, id, product.ID, wh.ID)
	require.NoError(t, err)
	_, err = serials.CheckSellable(ctx, repos.Serials, id, product.ID, wh.ID)
	require.NoError(t, err)

	require.NoError(t, serials.MarkSold(ctx, repos.Serials, id))
	err = serials.MarkSold(ctx, repos.Serials, id)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeSerialUnavailable, ve.Code)
	assert.ErrorIs(t, err, domain.ErrSerialUnavailable)

	require.NoError(t, serials.MarkReturned(ctx, repos.Serials, id))
	require.NoError(t, serials.MarkReturned(ctx, repos.Serials, id), "devolver dos veces no es error")

	assert.ErrorIs(t, serials.MarkSold(ctx, repos.Serials, "no-existe"), domain.ErrSerialUnavailable)
	assert.ErrorIs(t, serials.MarkReturned(ctx, repos.Serials, "no-existe"), domain.ErrNotFound)
}

func TestCheckSellable_RechazaSerialDeOtraBodega(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	product := store.AddProduct(&entity.Product{Name: "Moto 150", TrackingMethod: entity.TrackingSerialized})
	central := store.AddWarehouse(&entity.Warehouse{Name: "Central"})
	norte := store.AddWarehouse(&entity.Warehouse{Name: "Norte"})
	ctx := context.Background()

	created, err := serials.Register(ctx, repos.Serials, product, serials.Placement{WarehouseID: norte.ID}, codes("CH-NORTE"))
	require.NoError(t, err)

	_, err = serials.CheckSellable(ctx, repos.Serials, created[0].ID, product.ID, central.ID)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeSerialUnavailable, ve.Code)

	s, err := serials.CheckSellable(ctx, repos.Serials, created[0].ID, product.ID, norte.ID)
	require.NoError(t, err)
	assert.Equal(t, "CH-NORTE", s.SerialCode)
}
