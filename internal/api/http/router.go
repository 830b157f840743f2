package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/homemanager/auth-service/internal/api/http/handlers"
	"github.com/homemanager/auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Gate.Handle, auth.RequireAdmin(), cfg.Auth.Register)
	authGroup.Get("/me", cfg.Gate.Handle, auth.RequireAnyRole(), cfg.Auth.Me)
	authGroup.Put("/me", cfg.Gate.Handle, auth.RequireAnyRole(), cfg.Auth.UpdateMe)
	authGroup.Post("/change-password", cfg.Gate.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)
	authGroup.Post("/logout", cfg.Gate.Handle, auth.RequireAnyRole(), cfg.Auth.Logout)

	users := api.Group("/users", cfg.Gate.Handle)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)
	users.Patch("/:id/status", auth.RequireModifyAccess(), cfg.Users.SetStatus)
	users.Patch("/:id/role", auth.RequireSuperAdmin(), cfg.Users.SetRole)
	users.Delete("/:email/login-attempts", auth.RequireModifyAccess(), cfg.Users.ResetLoginAttempts)

	api.Get("/apartments/:apartment", cfg.Gate.Handle, auth.RequireApartmentOwnership("apartment"), cfg.Users.GetApartment)
	api.Get("/metrics", cfg.Gate.Handle, auth.RequireSuperAdmin(), cfg.Health.Metrics)
}
