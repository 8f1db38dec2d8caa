package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mapleads/api/internal/adapters/auth"
	"github.com/mapleads/api/internal/adapters/googlemaps"
	"github.com/mapleads/api/internal/adapters/http"
	natsadapter "github.com/mapleads/api/internal/adapters/nats"
	"github.com/mapleads/api/internal/adapters/postgres"
	"github.com/mapleads/api/internal/adapters/valkey"
	"github.com/mapleads/api/internal/core/ports"
	"github.com/mapleads/api/internal/core/usecases"
	"github.com/mapleads/api/internal/pkg/config"
	"github.com/mapleads/api/internal/pkg/logging"
	"github.com/mapleads/api/internal/pkg/metrics"
	"github.com/mapleads/api/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapleads-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache (optional; searches still work without it)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS JetStream publisher (optional; progress events are best-effort)
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, progress events disabled", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Google Maps Platform client
	if cfg.Google.APIKey == "" {
		slog.Warn("google.api_key is empty, provider calls will fail")
	}
	gmOpts := []googlemaps.Option{
		googlemaps.WithHTTPClient(&nethttp.Client{
			Timeout: time.Duration(cfg.Google.TimeoutSeconds) * time.Second,
		}),
	}
	if cfg.Google.BaseURL != "" {
		gmOpts = append(gmOpts, googlemaps.WithBaseURL(cfg.Google.BaseURL))
	}
	maps := googlemaps.NewClient(cfg.Google.APIKey, gmOpts...)

	// Repos
	businessRepo := postgres.NewBusinessRepo(db)
	searchRepo := postgres.NewSearchRepo(db)

	// Use cases
	tuning := usecases.Tuning{
		LargeRadiusThreshold: cfg.Search.LargeRadiusThresholdMeters,
		PageTokenDelay:       time.Duration(cfg.Search.PageTokenDelayMS) * time.Millisecond,
		MaxDetailFetches:     cfg.Search.MaxDetailFetches,
		ResultCeiling:        cfg.Search.ResultCeiling,
	}
	searchSvc := usecases.NewSearchService(maps, maps, businessRepo, searchRepo, cacheSvc, events, tuning)
	businessSvc := usecases.NewBusinessService(businessRepo, cacheSvc)
	historySvc := usecases.NewHistoryService(searchRepo)

	deps := &http.Dependencies{
		Search:     searchSvc,
		Businesses: businessSvc,
		History:    historySvc,
		Auth:       auth.NewStaticKeyPolicy(cfg.Auth.APIKeys),
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "MapLeads API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.mapleads.io",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Keep pool gauges fresh for the /metrics endpoint
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
