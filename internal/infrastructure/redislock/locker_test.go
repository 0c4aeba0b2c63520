package redislock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/redislock"
)

func newLocker(t *testing.T) (*redislock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redislock.New(client), mr
}

func TestLocker_SegundoAcquireFallaConConflicto(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "invoice:1:conversion", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "invoice:1:conversion", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, release(ctx))
	release2, err := locker.Acquire(ctx, "invoice:1:conversion", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}

func TestLocker_ClavesDistintasNoSeBloquean(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	r1, err := locker.Acquire(ctx, "invoice:1:conversion", time.Minute)
	require.NoError(t, err)
	r2, err := locker.Acquire(ctx, "invoice:2:conversion", time.Minute)
	require.NoError(t, err)
	require.NoError(t, r1(ctx))
	require.NoError(t, r2(ctx))
}

func TestLocker_VencimientoLiberaYNoBorraAlNuevoDueno(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// El primer dueño ya venció: su release no debe borrar la clave del nuevo.
	require.NoError(t, stale(ctx))
	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, fresh(ctx))
}
