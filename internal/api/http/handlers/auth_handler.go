package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/api/dto"
	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/service"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// AuthHandler exposes the credential exchange and the client view gate.
type AuthHandler struct {
	auth  *service.AuthService
	gate  *auth.Gate
	clock Clock
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, gate *auth.Gate, clock Clock) *AuthHandler {
	return &AuthHandler{auth: authService, gate: gate, clock: clock}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	result, err := h.auth.Login(c.UserContext(), req.Cedula, req.Pin, h.clock.now())
	if err != nil {
		return err
	}

	resp := dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Rol:       result.User.Role,
		Nombre:    result.User.FullName,
		ID:        result.User.ID,
	}
	if result.Attendance != nil {
		resp.Asistencia = &dto.LoginAttendance{
			Registrada: result.AttendanceCreated,
			Registro:   dto.NewAttendanceResponse(*result.Attendance, result.User),
		}
	}
	return c.JSON(resp)
}

// Session handles GET /auth/session?rol=. The answer only steers client
// navigation; every API call is authorized again by the auth middleware.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	required, ok := domain.ParseRole(c.Query("rol", string(domain.RoleStandard)))
	if !ok {
		return apperrors.NewValidationError("rol must be admin or user", map[string]any{"rol": c.Query("rol")})
	}
	decision := h.gate.Authorize(c.Get(fiber.HeaderAuthorization), required)
	return c.JSON(dto.SessionResponse{Admit: decision == auth.Admit, Decision: decision.String()})
}
