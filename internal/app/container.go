// Package app arma las dependencias compartidas por la API y el worker.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-kardex/internal/application/billing"
	"github.com/jhoicas/inventario-kardex/internal/application/ledger"
	"github.com/jhoicas/inventario-kardex/internal/application/purchasing"
	"github.com/jhoicas/inventario-kardex/internal/application/serials"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/redislock"
	"github.com/jhoicas/inventario-kardex/internal/jobs"
	"github.com/jhoicas/inventario-kardex/pkg/config"
)

// Container casos de uso listos para los handlers y el worker.
type Container struct {
	Ledger    *ledger.Service
	Transfers *ledger.TransferCoordinator
	Serials   *serials.Service
	Receiving *purchasing.ReceivingUseCase
	Invoices  *billing.InvoiceUseCase
	Store     *memory.Store // sólo en modo memoria

	closers []func() error
}

// store lo mínimo que los casos de uso necesitan del almacenamiento.
type store interface {
	ledger.TxRunner
	Repos() repository.Repos
}

// Build conecta almacenamiento, lock de conversión y cola según la configuración.
// Con DB_HOST=memory todo queda en proceso; sin REDIS_ADDR el lock es local y no se encolan reintentos.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{}

	var st store
	if cfg.DB.InMemory() {
		mem := memory.NewStore()
		mem.SeedCatalog()
		c.Store = mem
		st = mem
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB, log.With().Str("component", "pgx").Logger())
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		st = postgres.NewTxRunner(pool)
	}

	var locker billing.Locker = memory.NewLocker()
	var enqueuer billing.ResyncEnqueuer
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		locker = redislock.New(rdb)

		client := jobs.NewClient(RedisOpt(cfg.Redis))
		c.closers = append(c.closers, client.Close)
		enqueuer = client
	}

	repos := st.Repos()
	policy := ledger.Policy{AllowNegativeStock: cfg.Inventory.AllowNegativeStock}
	registry := ledger.NewRegistry(repos.MovementTypes)

	c.Ledger = ledger.NewService(st, registry, repos.Stock, repos.Movements, policy)
	c.Transfers = ledger.NewTransferCoordinator(st, registry, policy)
	c.Serials = serials.NewService(repos.Serials)
	c.Receiving = purchasing.NewReceivingUseCase(st, registry, policy)
	c.Invoices = billing.NewInvoiceUseCase(st, registry, repos.Invoices, locker, enqueuer, billing.Config{
		CancelRoles: cfg.Inventory.CancelRoles,
		LockTTL:     cfg.Inventory.LockTTL(),
		Policy:      policy,
	}, log.With().Str("component", "billing").Logger())
	return c, nil
}

// RedisOpt opciones de conexión de Asynq.
func RedisOpt(c config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Close libera conexiones en orden inverso.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
