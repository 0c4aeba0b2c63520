package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-kardex/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-kardex/pkg/config"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

// Uso: migrate [-down] [-version]
func main() {
	down := flag.Bool("down", false, "revertir todas las migraciones")
	version := flag.Bool("version", false, "mostrar la versión actual")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})
	if cfg.DB.InMemory() {
		log.Fatal().Msg("DB_HOST=memory no usa migraciones")
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatal().Err(err).Msg("leer versión")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión del esquema")
	case *down:
		if err := m.Down(); err != nil {
			log.Fatal().Err(err).Msg("revertir migraciones")
		}
	default:
		if err := m.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
	}
}
