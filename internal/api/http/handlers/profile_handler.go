package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/api/dto"
	"github.com/asistencia-app/attendance-service/internal/service"
)

// ProfileHandler serves the endpoints of signed-in standard users.
type ProfileHandler struct {
	directory *service.DirectoryService
	ledger    *service.LedgerService
	clock     Clock
}

// NewProfileHandler constructs handler.
func NewProfileHandler(directory *service.DirectoryService, ledger *service.LedgerService, clock Clock) *ProfileHandler {
	return &ProfileHandler{directory: directory, ledger: ledger, clock: clock}
}

// Profile handles GET /user/perfil.
func (h *ProfileHandler) Profile(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	user, err := h.directory.Get(c.UserContext(), s, s.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(*user))
}

// MarkAttendance handles POST /user/marcar-asistencia. A second mark on the
// same day answers 409 with the existing record id in the error details.
func (h *ProfileHandler) MarkAttendance(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	rec, err := h.ledger.RecordAttendance(c.UserContext(), s.UserID, h.clock.now())
	if err != nil {
		return err
	}
	user, err := h.directory.Get(c.UserContext(), s, s.UserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAttendanceResponse(*rec, user))
}
