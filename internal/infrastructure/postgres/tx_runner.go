package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los bloqueos consultivos tomados por los repos se liberan al terminar la tx.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Repos devuelve los repositorios sobre el pool (fuera de transacción).
func (r *TxRunner) Repos() repository.Repos {
	return NewRepos(r.pool)
}

// NewRepos arma el conjunto de repositorios sobre un Querier (pool o tx).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Movements:      NewStockMovementRepository(q),
		MovementTypes:  NewMovementTypeRepository(q),
		Stock:          NewStockProjectionRepository(q),
		Locks:          NewAdvisoryLockRepository(q),
		Products:       NewProductRepository(q),
		Warehouses:     NewWarehouseRepository(q),
		Locations:      NewLocationRepository(q),
		PurchaseOrders: NewPurchaseOrderRepository(q),
		Serials:        NewProductSerialRepository(q),
		Invoices:       NewInvoiceRepository(q),
		SalesOrders:    NewSalesOrderRepository(q),
	}
}
