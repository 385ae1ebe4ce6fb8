package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Realwahba/support-tickets/internal/api/http/handlers"
	"github.com/Realwahba/support-tickets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Portal         *handlers.TicketsHandler
	Admin          *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	portal := app.Group("/portal/tickets", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	portal.Post("/", cfg.Portal.SubmitTicket)
	portal.Get("/", cfg.Portal.ListTickets)
	portal.Get("/:id", cfg.Portal.GetTicket)
	portal.Post("/:id/replies", cfg.Portal.AddReply)

	admin := app.Group("/admin/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	admin.Get("/export", cfg.Admin.ExportCSV)
	admin.Get("/", cfg.Admin.ListTickets)
	admin.Get("/:id", cfg.Admin.GetTicket)
	admin.Post("/:id/replies", cfg.Admin.AddReply)
	admin.Patch("/:id", cfg.Admin.EditTicket)
	admin.Put("/:id/status", cfg.Admin.SetStatus)
	admin.Delete("/:id", cfg.Admin.DeleteTicket)
}
