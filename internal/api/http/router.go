package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/appointment-service/internal/api/http/handlers"
	"github.com/spec-kit/appointment-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Doctors        *handlers.DoctorsHandler
	Appointments   *handlers.AppointmentsHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	if cfg.RateLimiter != nil {
		authGroup.Post("/register", cfg.RateLimiter.Handle, cfg.Auth.Register)
		authGroup.Post("/login", cfg.RateLimiter.Handle, cfg.Auth.Login)
	} else {
		authGroup.Post("/register", cfg.Auth.Register)
		authGroup.Post("/login", cfg.Auth.Login)
	}
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	doctors := app.Group("/doctors")
	doctors.Get("/", cfg.Doctors.ListDoctors)
	doctors.Get("/:id", cfg.Doctors.GetDoctor)
	doctors.Get("/:id/time-slots", cfg.Doctors.TimeSlots)

	appointments := app.Group("/appointments")
	appointments.Get("/slots/:doctorId", cfg.Appointments.BookedSlots)

	protected := appointments.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/", cfg.Appointments.Create)
	protected.Get("/", cfg.Appointments.List)
	protected.Get("/:id/history", cfg.Appointments.History)
	protected.Delete("/:id", cfg.Appointments.Cancel)
}
