package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-kardex/internal/app"
	httpRouter "github.com/jhoicas/inventario-kardex/internal/interfaces/http"
	"github.com/jhoicas/inventario-kardex/pkg/config"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Bool("memoria", cfg.DB.InMemory()).
		Bool("redis", cfg.Redis.Enabled()).
		Msg("iniciando API")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	container, err := app.Build(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar dependencias")
		}
	}()

	server := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	server.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		server.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Kardex API",
		}))
	}

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(server, httpRouter.RouterDeps{
		Ledger:      container.Ledger,
		Transfers:   container.Transfers,
		Serials:     container.Serials,
		Receiving:   container.Receiving,
		Invoices:    container.Invoices,
		CancelRoles: cfg.Inventory.CancelRoles,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := server.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("API detenida")
}
