package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/willbank/willbank/internal/account"
	"github.com/willbank/willbank/internal/composite"
	"github.com/willbank/willbank/internal/config"
	"github.com/willbank/willbank/internal/events"
	"github.com/willbank/willbank/internal/middleware"
	"github.com/willbank/willbank/internal/notification"
	"github.com/willbank/willbank/internal/upstream"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Bus    events.Bus
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. The returned
// function detaches event bus subscriptions on shutdown.
func Setup(app *fiber.App, d Deps) (func(), error) {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Ledger side
	var store account.Store
	if d.DB != nil {
		store = account.NewPostgresStore(d.DB)
	} else {
		store = account.NewMemoryStore()
	}

	bus := d.Bus
	if bus == nil {
		bus = events.NewMemoryBus()
	}
	emitter := events.NewEmitter(bus, d.Logger)
	accountSvc := account.NewService(store, emitter, d.Logger)
	accountHandler := account.NewHandler(accountSvc)

	detach, err := notification.Attach(bus, notification.NewLoggerNotifier(d.Logger), d.Logger)
	if err != nil {
		return nil, err
	}

	// Composite side
	var clients upstream.ClientSource
	if d.Cfg.ClientServiceURL != "" {
		clients = upstream.NewHTTPClientSource(d.Cfg.ClientServiceURL)
	} else {
		clients = upstream.NewStaticClientSource()
	}

	var comptes upstream.CompteSource
	if d.Cfg.CompteServiceURL != "" {
		comptes = upstream.NewHTTPCompteSource(d.Cfg.CompteServiceURL)
	} else {
		comptes = upstream.NewLocalCompteSource(accountSvc)
	}

	var transactions upstream.TransactionSource
	if d.Cfg.TransactionServiceURL != "" {
		transactions = upstream.NewHTTPTransactionSource(d.Cfg.TransactionServiceURL)
	} else {
		transactions = upstream.NewStaticTransactionSource()
	}

	var viewCache composite.ViewCache
	if d.Cache != nil {
		viewCache = composite.NewRedisCache(d.Cache)
	} else {
		viewCache = composite.NewMemoryCache()
	}

	breaker := composite.NewBreaker(composite.BreakerSettings{
		Window:     d.Cfg.BreakerWindow,
		MinCalls:   d.Cfg.BreakerMinCalls,
		FailurePct: d.Cfg.BreakerFailurePct,
		Cooldown:   d.Cfg.BreakerCooldown,
		Probes:     d.Cfg.BreakerProbes,
	})
	aggregator := composite.NewAggregator(clients, comptes, transactions, d.Logger)
	controller := composite.NewController(aggregator, breaker, viewCache,
		d.Cfg.DashboardCacheTTL, d.Cfg.AggregateTimeout, d.Logger)
	statements := composite.NewStatementService(comptes, transactions, viewCache,
		d.Cfg.DashboardCacheTTL, d.Logger)
	compositeHandler := composite.NewHandler(controller, statements)

	// API routes
	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)

	rateLimit := middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMin)
	RegisterCompositeRoutes(api.Group("/composite", rateLimit), compositeHandler)

	return detach, nil
}
