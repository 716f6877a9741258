package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/willbank/willbank/internal/config"
	"github.com/willbank/willbank/internal/events"
	"github.com/willbank/willbank/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	detach func()
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, bus events.Bus, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	detach, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Bus: bus, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, detach: detach}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server and detaches bus subscriptions.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.detach != nil {
		s.detach()
	}
	return s.app.ShutdownWithContext(ctx)
}
