package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/domain"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// Clock returns the current time. Handlers take one so tests can pin the day.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func session(c *fiber.Ctx) (*domain.Session, error) {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s, nil
}

func invalidPayload(err error) error {
	return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
}
