package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/willbank/willbank/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *redis.Client, *int32) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	var handlerCalls int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/comptes/:id/solde", func(c *fiber.Ctx) error {
		atomic.AddInt32(&handlerCalls, 1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"solde": "70", "version": 2})
	})

	return app, cache, &handlerCalls
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/comptes/c1/solde", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencySkipsSafeMethods(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.Get("/comptes/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/comptes/c1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET must pass without a key, got %d", resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, _, handlerCalls := setupTestApp(t)

	post := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/comptes/c1/solde", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "mutation-42")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode, string(payload)
	}

	status, body := post()
	if status != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, status)
	}

	status2, body2 := post()
	if status2 != status || body2 != body {
		t.Fatalf("replay diverged: %d %s vs %d %s", status2, body2, status, body)
	}
	if got := atomic.LoadInt32(handlerCalls); got != 1 {
		t.Fatalf("handler must run once, ran %d times", got)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(body2), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	app, cache, _ := setupTestApp(t)

	// An in-progress marker means a request with this key is still running.
	if err := cache.Set(context.Background(), idempotencyPrefix+"busy", inProgressMarker, time.Minute).Err(); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/comptes/c1/solde", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(idempotencyKeyHeader, "busy")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, resp.StatusCode)
	}
}
