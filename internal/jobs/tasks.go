package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// QueueDefault cola de trabajos en segundo plano.
	QueueDefault = "default"
	// TaskInventoryResync reintenta la sincronización de inventario de una factura convertida.
	TaskInventoryResync = "inventario:resincronizar_factura"
)

// InventoryResyncPayload datos de la tarea.
type InventoryResyncPayload struct {
	InvoiceID string `json:"invoice_id"`
}

// NewInventoryResyncTask construye la tarea; el id de tarea evita duplicados en cola por factura.
func NewInventoryResyncTask(invoiceID string) (*asynq.Task, error) {
	body, err := json.Marshal(InventoryResyncPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryResync, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(10),
		asynq.TaskID("resync:"+invoiceID),
		asynq.Retention(24*time.Hour),
	), nil
}

// InvoiceSyncer lo que la tarea necesita del flujo de facturas.
type InvoiceSyncer interface {
	SyncSaleMovements(ctx context.Context, invoiceID string) (int, error)
}

// InventoryResyncJob ejecuta TaskInventoryResync.
type InventoryResyncJob struct {
	syncer InvoiceSyncer
	log    zerolog.Logger
}

// NewInventoryResyncJob construye el job.
func NewInventoryResyncJob(syncer InvoiceSyncer, log zerolog.Logger) *InventoryResyncJob {
	return &InventoryResyncJob{syncer: syncer, log: log}
}

// Handle procesa la tarea. Un payload inválido no se reintenta.
func (j *InventoryResyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InventoryResyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.InvoiceID == "" {
		return fmt.Errorf("payload inválido: %w", asynq.SkipRetry)
	}
	n, err := j.syncer.SyncSaleMovements(ctx, payload.InvoiceID)
	if err != nil {
		j.log.Warn().Err(err).Str("invoice_id", payload.InvoiceID).Msg("resincronización de inventario fallida")
		return err
	}
	j.log.Info().Str("invoice_id", payload.InvoiceID).Int("movimientos", n).Msg("inventario de la factura sincronizado")
	return nil
}
