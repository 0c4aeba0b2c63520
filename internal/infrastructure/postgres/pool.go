package postgres

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-kardex/pkg/config"
)

// NewPool abre el pool de PostgreSQL y verifica la conexión.
// Las consultas se trazan en el logger: todas en nivel debug, sólo errores en los demás niveles.
func NewPool(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.Tracer = queryTracer(log)

	// NUMERIC <-> shopspring/decimal en todas las conexiones.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

func queryTracer(log zerolog.Logger) *tracelog.TraceLog {
	level := tracelog.LogLevelError
	if log.GetLevel() <= zerolog.DebugLevel {
		level = tracelog.LogLevelDebug
	}
	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, l tracelog.LogLevel, msg string, data map[string]any) {
			var ev *zerolog.Event
			switch l {
			case tracelog.LogLevelError:
				ev = log.Error()
			case tracelog.LogLevelWarn:
				ev = log.Warn()
			case tracelog.LogLevelInfo:
				ev = log.Info()
			default:
				ev = log.Debug()
			}
			ev.Fields(data).Msg(msg)
		}),
		LogLevel: level,
	}
}
