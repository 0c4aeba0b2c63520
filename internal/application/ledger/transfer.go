package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// TransferLine una línea de traslado: origen y destino pueden diferir en bodega, ubicación o ambas.
type TransferLine struct {
	ProductID       string
	FromWarehouseID string
	FromLocationID  *string
	ToWarehouseID   string
	ToLocationID    *string
	Quantity        decimal.Decimal
}

func (l TransferLine) source() entity.StockKey {
	return entity.StockKey{ProductID: l.ProductID, WarehouseID: l.FromWarehouseID, LocationID: l.FromLocationID}
}

func (l TransferLine) destination() entity.StockKey {
	return entity.StockKey{ProductID: l.ProductID, WarehouseID: l.ToWarehouseID, LocationID: l.ToLocationID}
}

// TransferInput traslado de una o varias líneas. Reference vacía usa el texto espejo por defecto.
type TransferInput struct {
	Lines     []TransferLine
	Date      time.Time
	Reference string
	Notes     string
	UserID    string
}

// TransferPair las dos patas de una línea, unidas por CorrelationID.
type TransferPair struct {
	CorrelationID string
	Out           *entity.StockMovement
	In            *entity.StockMovement
}

// TransferResult resultado de un traslado.
type TransferResult struct {
	Pairs []TransferPair
}

// TransferCoordinator escribe traslados como pares OUT_TRANSFER/IN_TRANSFER.
// Todas las patas de todas las líneas van en una sola transacción.
type TransferCoordinator struct {
	txRunner TxRunner
	registry *Registry
	policy   Policy
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(txRunner TxRunner, registry *Registry, policy Policy) *TransferCoordinator {
	return &TransferCoordinator{txRunner: txRunner, registry: registry, policy: policy}
}

// Transfer valida todas las líneas contra el stock disponible y luego escribe un par por línea.
// Si alguna línea o pata falla no queda ningún movimiento.
func (c *TransferCoordinator) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "el traslado debe tener al menos una línea")
	}
	for _, l := range in.Lines {
		if err := validateLine(l); err != nil {
			return nil, err
		}
	}
	types, err := c.registry.ResolveAll(ctx, entity.MovementCodeOutTransfer, entity.MovementCodeInTransfer)
	if err != nil {
		return nil, err
	}
	outType, inType := types[entity.MovementCodeOutTransfer], types[entity.MovementCodeInTransfer]

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	result := &TransferResult{}
	err = c.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		w := NewWriter(repos, c.policy)

		names := make(map[string]string)
		demands := make([]Demand, 0, len(in.Lines))
		for _, l := range in.Lines {
			_, from, err := w.CheckRefs(ctx, l.source())
			if err != nil {
				return err
			}
			_, to, err := w.CheckRefs(ctx, l.destination())
			if err != nil {
				return err
			}
			names[from.ID] = from.Name
			names[to.ID] = to.Name
			demands = append(demands, Demand{Key: l.source(), Quantity: l.Quantity})
		}
		if err := w.Guard(ctx, demands); err != nil {
			return err
		}

		pairs := make([]TransferPair, 0, len(in.Lines))
		for _, l := range in.Lines {
			correlation := uuid.New().String()
			outRef, inRef := in.Reference, in.Reference
			if outRef == "" {
				outRef = "Traslado a " + names[l.ToWarehouseID]
				inRef = "Traslado desde " + names[l.FromWarehouseID]
			}
			out, err := w.Append(ctx, outType, MovementInput{
				ProductID:   l.ProductID,
				WarehouseID: l.FromWarehouseID,
				LocationID:  l.FromLocationID,
				Quantity:    l.Quantity,
				TypeCode:    outType.Code,
				Date:        date,
				Reference:   outRef,
				Notes:       in.Notes,
				RelatedID:   &correlation,
				UserID:      in.UserID,
			})
			if err != nil {
				return err
			}
			inMov, err := w.Append(ctx, inType, MovementInput{
				ProductID:   l.ProductID,
				WarehouseID: l.ToWarehouseID,
				LocationID:  l.ToLocationID,
				Quantity:    l.Quantity,
				TypeCode:    inType.Code,
				Date:        date,
				Reference:   inRef,
				Notes:       in.Notes,
				RelatedID:   &correlation,
				UserID:      in.UserID,
			})
			if err != nil {
				return err
			}
			pairs = append(pairs, TransferPair{CorrelationID: correlation, Out: out, In: inMov})
		}
		result.Pairs = pairs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateLine(l TransferLine) error {
	if l.ProductID == "" || l.FromWarehouseID == "" || l.ToWarehouseID == "" {
		return domain.NewValidationError("lines", "producto, bodega origen y bodega destino son obligatorios")
	}
	if !l.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	if l.FromWarehouseID == l.ToWarehouseID && entity.SameLocation(l.FromLocationID, l.ToLocationID) {
		return domain.NewValidationError("lines", "origen y destino son iguales: debe cambiar la bodega o la ubicación")
	}
	return nil
}
