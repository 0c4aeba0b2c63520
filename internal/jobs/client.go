package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client encola tareas.
type Client struct {
	client *asynq.Client
}

// NewClient construye un cliente Asynq.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueInventoryResync encola la resincronización de una factura. Si ya hay una en cola no es error.
func (c *Client) EnqueueInventoryResync(ctx context.Context, invoiceID string) error {
	task, err := NewInventoryResyncTask(invoiceID)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("encolar resincronización: %w", err)
	}
	return nil
}

// Close libera el cliente.
func (c *Client) Close() error {
	return c.client.Close()
}
