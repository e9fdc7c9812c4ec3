package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rakannimer/talk/internal/api/handler"
	adminHandler "github.com/rakannimer/talk/internal/api/handler/admin"
	"github.com/rakannimer/talk/internal/api/middleware"
	"github.com/rakannimer/talk/internal/events"
	"github.com/rakannimer/talk/internal/loaders"
	"github.com/rakannimer/talk/internal/repository"
	"github.com/rakannimer/talk/internal/secrets"
)

type Dependencies struct {
	TenantRepo   repository.TenantRepositoryInterface
	EndpointRepo repository.EndpointRepositoryInterface
	SSOKeyRepo   repository.SSOKeyRepositoryInterface
	EntityRepo   loaders.EntityReader
	Secrets      *secrets.Service
	Broker       *events.Broker
	DB           *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Talk Notifications",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Tenant-ID",
	}))

	// Health check endpoints (no tenant required)
	var pool *pgxpool.Pool
	if r.deps != nil {
		pool = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pool)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Only configure tenant-scoped routes if dependencies were provided
	if r.deps != nil {
		v1 := r.app.Group("/v1")
		v1.Use(middleware.Tenant(middleware.TenantDependencies{
			TenantRepo: r.deps.TenantRepo,
			Logger:     r.logger,
		}))

		if r.deps.Broker != nil {
			eventsHandler := handler.NewEventsHandler(r.deps.Broker, r.deps.EndpointRepo, r.deps.EntityRepo, r.logger)
			v1.Post("/events", eventsHandler.Publish)
		}

		adminGroup := v1.Group("/admin")
		r.setupAdminRoutes(adminGroup)
	}
}

func (r *Router) setupAdminRoutes(adminGroup fiber.Router) {
	webhooksHandler := adminHandler.NewWebhooksHandler(r.deps.Secrets, r.deps.EndpointRepo, r.logger)
	ssoHandler := adminHandler.NewSSOHandler(r.deps.Secrets, r.deps.SSOKeyRepo, r.logger)
	slackHandler := adminHandler.NewSlackHandler(r.deps.TenantRepo, r.logger)

	// Webhook endpoint lifecycle
	adminGroup.Get("/webhooks", webhooksHandler.List)
	adminGroup.Post("/webhooks", webhooksHandler.Create)
	adminGroup.Get("/webhooks/:id", webhooksHandler.Get)
	adminGroup.Put("/webhooks/:id", webhooksHandler.Update)
	adminGroup.Post("/webhooks/:id/enable", webhooksHandler.Enable)
	adminGroup.Post("/webhooks/:id/disable", webhooksHandler.Disable)
	adminGroup.Delete("/webhooks/:id", webhooksHandler.Delete)

	// Signing secret lifecycle
	adminGroup.Post("/webhooks/:id/secrets/roll", webhooksHandler.RollSecret)
	adminGroup.Post("/webhooks/:id/secrets/:kid/deactivate", webhooksHandler.DeactivateSecret)
	adminGroup.Delete("/webhooks/:id/secrets/:kid", webhooksHandler.DeleteSecret)

	// SSO key lifecycle
	adminGroup.Get("/sso/keys", ssoHandler.List)
	adminGroup.Post("/sso/keys", ssoHandler.Create)
	adminGroup.Post("/sso/keys/rotate", ssoHandler.Rotate)
	adminGroup.Post("/sso/keys/regenerate", ssoHandler.Regenerate)
	adminGroup.Post("/sso/keys/:kid/deactivate", ssoHandler.Deactivate)
	adminGroup.Delete("/sso/keys/:kid", ssoHandler.Delete)

	// Chat channel settings
	adminGroup.Get("/slack", slackHandler.Get)
	adminGroup.Put("/slack", slackHandler.Update)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
