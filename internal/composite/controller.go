package composite

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Controller wraps dashboard aggregation with the resilience policy: a cache
// lookup, breaker admission, a single whole-operation deadline, and a
// fallback producer. It never fails: every call yields a Dashboard, fresh,
// cached, or degraded.
type Controller struct {
	aggregator *Aggregator
	breaker    *Breaker
	cache      ViewCache
	ttl        time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewController assembles the resilience wrapper around an aggregator.
func NewController(aggregator *Aggregator, breaker *Breaker, cache ViewCache, ttl, timeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		aggregator: aggregator,
		breaker:    breaker,
		cache:      cache,
		ttl:        ttl,
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
	}
}

func dashboardKey(clientID string) string {
	return "dashboard:" + clientID
}

// Dashboard returns the composed view for clientID.
func (c *Controller) Dashboard(ctx context.Context, clientID string) Dashboard {
	key := dashboardKey(clientID)

	if payload, err := c.cache.Get(ctx, key); err == nil {
		var cached Dashboard
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached
		}
		c.logger.Warn("discarding undecodable cached dashboard", "client_id", clientID, "error", err)
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("dashboard cache lookup failed", "client_id", clientID, "error", err)
	}

	if !c.breaker.Allow() {
		c.logger.Warn("dashboard breaker open, serving fallback", "client_id", clientID)
		return FallbackDashboard()
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, comptes, transactions, err := c.aggregator.Fetch(opCtx, clientID)
	if err != nil {
		c.breaker.Record(false)
		c.logger.Warn("dashboard aggregation failed, serving fallback",
			"client_id", clientID, "breaker", c.breaker.State().String(), "error", err)
		return FallbackDashboard()
	}

	view := Compose(client, comptes, transactions, c.now())
	c.breaker.Record(true)

	if payload, err := json.Marshal(view); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
			c.logger.Warn("dashboard cache write failed", "client_id", clientID, "error", err)
		}
	}

	return view
}
