package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-support/internal/api/http/handlers"
	"github.com/spec-kit/campus-support/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Departments    *handlers.DepartmentsHandler
	Tickets        *handlers.TicketsHandler
	AI             *handlers.AIHandler
	Reports        *handlers.ReportsHandler
	Internal       *handlers.InternalHandler
	AuthMiddleware *auth.Middleware
	InternalSecret string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Live)
	app.Get("/health", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/token", cfg.Auth.Token)

	app.Post("/ai/suggest", cfg.AI.Suggest)
	app.Get("/departments", cfg.Departments.List)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/users/me", cfg.Users.Me)
	protected.Get("/departments/:id/supports", cfg.Departments.ListSupports)
	protected.Get("/departments/:id/report", cfg.Reports.Weekly)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/me", cfg.Tickets.ListMine)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Patch("/:id/assign", cfg.Tickets.Assign)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Get("/:id/ai-insights", cfg.AI.Insights)

	internal := app.Group("/internal", auth.RequireInternalSecret(cfg.InternalSecret))
	internal.Get("/health", cfg.Internal.Health)
	internal.Get("/tickets/:id", cfg.Internal.GetTicket)
	internal.Get("/users/:id/tickets/summary", cfg.Internal.GetUserSummary)
	internal.Post("/tickets/:id/agent-update", cfg.Internal.ApplyAgentUpdate)
}
