package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/mapleads/api/internal/pkg/metrics"
)

// searchTimeout bounds a single request. Grid sweeps pause ~2s per extra
// provider page, so searches get far more headroom than lookups.
const (
	lookupTimeout = 15 * time.Second
	searchTimeout = 10 * time.Minute
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 60 requests per minute per IP. Each search fans out
	// into many provider calls, so the front door is stricter than usual.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Legacy alias, kept for clients of the pre-v1 surface
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/businesses/search",
			SunsetDate:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/search",
		},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1
	v1 := app.Group("/v1", AuthMiddleware(deps))
	v1.Post("/search", timeout.NewWithContext(SearchHandler(deps), searchTimeout))
	v1.Get("/search", timeout.NewWithContext(SearchGetHandler(deps), searchTimeout))
	v1.Get("/places/:id", timeout.NewWithContext(PlaceDetailsHandler(deps), lookupTimeout))
	v1.Get("/businesses/nearby", timeout.NewWithContext(NearbyBusinessesHandler(deps), lookupTimeout))
	v1.Get("/businesses/search", timeout.NewWithContext(SearchGetHandler(deps), searchTimeout))
	v1.Get("/businesses/:id", timeout.NewWithContext(GetBusinessHandler(deps), lookupTimeout))
	v1.Get("/searches", timeout.NewWithContext(ListSearchesHandler(deps), lookupTimeout))
	v1.Get("/searches/:id", timeout.NewWithContext(GetSearchHandler(deps), lookupTimeout))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), lookupTimeout))

	// GraphQL
	app.Post("/graphql", AuthMiddleware(deps), GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
