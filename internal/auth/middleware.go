package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/repository"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// AuthMiddleware validates bearer tokens and resolves the caller's session.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The role of the
// session comes from the stored user, so a demoted administrator loses
// access before their token expires.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := BearerValue(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.NewUnavailable(err)
	}

	c.Locals(sessionKey, &domain.Session{UserID: user.ID, Role: user.Role})
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}
