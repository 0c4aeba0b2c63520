package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-kardex/internal/app"
	"github.com/jhoicas/inventario-kardex/internal/jobs"
	"github.com/jhoicas/inventario-kardex/pkg/config"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

// Procesa los reintentos de sincronización de inventario encolados por la conversión de facturas.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-worker"})

	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}
	if cfg.DB.InMemory() {
		log.Fatal().Msg("el worker necesita PostgreSQL: el almacenamiento en memoria no se comparte entre procesos")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer container.Close()

	resync := jobs.NewInventoryResyncJob(container.Invoices, log.Component("resync"))
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   app.RedisOpt(cfg.Redis),
		Concurrency: cfg.Inventory.WorkerConcurrency,
		Logger:      log.Zerolog(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInventoryResync, Handler: resync.Handle},
		},
	})

	log.Info().Int("concurrency", cfg.Inventory.WorkerConcurrency).Msg("worker iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
		return
	}
	log.Info().Msg("worker detenido")
}
