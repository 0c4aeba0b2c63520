package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/jobs"
)

type fakeSyncer struct {
	calls []string
	err   error
}

func (f *fakeSyncer) SyncSaleMovements(_ context.Context, invoiceID string) (int, error) {
	f.calls = append(f.calls, invoiceID)
	return 2, f.err
}

func TestInventoryResyncJob_LlamaAlFlujoConLaFactura(t *testing.T) {
	syncer := &fakeSyncer{}
	job := jobs.NewInventoryResyncJob(syncer, zerolog.Nop())

	task, err := jobs.NewInventoryResyncTask("inv-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskInventoryResync, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"inv-1"}, syncer.calls)
}

func TestInventoryResyncJob_PayloadInvalidoNoSeReintenta(t *testing.T) {
	syncer := &fakeSyncer{}
	job := jobs.NewInventoryResyncJob(syncer, zerolog.Nop())

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskInventoryResync, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(jobs.TaskInventoryResync, []byte(`{"invoice_id":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, syncer.calls)
}

func TestInventoryResyncJob_ErrorDelFlujoSePropagaParaReintentar(t *testing.T) {
	boom := errors.New("bd caída")
	syncer := &fakeSyncer{err: boom}
	job := jobs.NewInventoryResyncJob(syncer, zerolog.Nop())

	task, err := jobs.NewInventoryResyncTask("inv-2")
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
