package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskHandler asocia un tipo de tarea con su handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      zerolog.Logger
	Handlers    []TaskHandler
}

// Worker envuelve el servidor Asynq.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

// NewWorker construye el worker.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, log: cfg.Logger}
}

// Run procesa tareas hasta que se cancele ctx.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: no configurado")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.log.Info().Msg("deteniendo worker")
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
