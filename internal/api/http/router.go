package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/api/http/handlers"
	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Notifications  *handlers.NotificationsHandler
	SLA            *handlers.SLAHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Evaluator      *access.Evaluator
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	can := func(perm string) fiber.Handler { return auth.RequirePermission(cfg.Evaluator, perm) }

	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/me/password", cfg.Auth.ChangePassword)

	tickets := protected.Group("/tickets")
	tickets.Post("/", can(access.PermCreateTickets), cfg.Tickets.CreateTicket)
	tickets.Get("/", can(access.PermViewTickets), cfg.Tickets.ListTickets)
	tickets.Get("/:id", can(access.PermViewTickets), cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", can(access.PermViewTickets), cfg.Tickets.History)
	tickets.Patch("/:id/status", can(access.PermEditTickets), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/assign", can(access.PermAssignTickets), cfg.Tickets.Assign)
	tickets.Post("/:id/escalate", can(access.PermEditTickets), cfg.Tickets.Escalate)
	tickets.Post("/:id/resnapshot", can(access.PermResnapshotTickets), cfg.Tickets.Resnapshot)
	tickets.Post("/:id/sla/recalculate", can(access.PermManageSLA), cfg.Tickets.RecalculateSLA)
	tickets.Get("/:id/comments", can(access.PermViewTickets), cfg.Comments.List)
	tickets.Post("/:id/comments", can(access.PermCommentTickets), cfg.Comments.Add)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	sla := protected.Group("/sla")
	sla.Get("/configs", can(access.PermManageSLA), cfg.SLA.ListConfigs)
	sla.Post("/configs", can(access.PermManageSLA), cfg.SLA.CreateConfig)
	sla.Post("/preview", can(access.PermViewTickets), cfg.SLA.Preview)

	admin := protected.Group("/admin", can(access.PermManageUsers))
	admin.Get("/users", cfg.Users.List)
	admin.Post("/users", cfg.Users.Create)
	admin.Patch("/users/:id/manager", cfg.Users.SetManager)
	admin.Patch("/users/:id/permissions", cfg.Users.SetPermissions)
	admin.Post("/users/:id/deactivate", cfg.Users.Deactivate)
}
