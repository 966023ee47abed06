package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/impactlens/internal/api/http/handlers"
	"github.com/spec-kit/impactlens/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Analysis       *handlers.AnalysisHandler
	Token          *handlers.TokenHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/token", cfg.Token.Issue)

	analysis := app.Group("/api/analysis", cfg.AuthMiddleware.Handle)
	analysis.Post("/analyze", cfg.Analysis.Analyze)
	analysis.Get("/status/:id", cfg.Analysis.GetStatus)
	analysis.Get("/history", cfg.Analysis.History)
	analysis.Delete("/:id", cfg.Analysis.Delete)
}
