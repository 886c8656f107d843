package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/asistencia-app/attendance-service/internal/api/http/handlers"
	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Directory      *handlers.DirectoryHandler
	Attendance     *handlers.AttendanceHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   LoginLimiter
	Metrics        http.Handler
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", RateLimit(cfg.LoginLimiter, cfg.Logger), cfg.Auth.Login)
	authGroup.Get("/session", cfg.Auth.Session)

	user := app.Group("/user", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleStandard))
	user.Get("/perfil", cfg.Profile.Profile)
	user.Post("/marcar-asistencia", cfg.Profile.MarkAttendance)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/usuarios", cfg.Directory.List)
	admin.Post("/crear-usuario", cfg.Directory.Create)
	admin.Put("/actualizar-usuario/:id", cfg.Directory.Update)
	admin.Put("/cambiar-rol/:id", cfg.Directory.ChangeRole)
	admin.Delete("/eliminar-usuario/:id", cfg.Directory.Delete)

	admin.Get("/asistencias/por-fecha", cfg.Attendance.ByDay)
	admin.Get("/asistencias/resumen", cfg.Attendance.Summary)
	admin.Delete("/eliminar-asistencia/:id", cfg.Attendance.Delete)
	admin.Get("/exportar-excel", cfg.Attendance.Export)
}
