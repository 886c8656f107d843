package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/repository"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// LoginResult is the outcome of a credential exchange.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	// Attendance is today's record of a standard user, nil for administrators.
	Attendance *domain.AttendanceRecord
	// AttendanceCreated is false when the record already existed.
	AttendanceCreated bool
}

// AuthService coordinates the login exchange.
type AuthService struct {
	users    repository.UserRepository
	ledger   *LedgerService
	tokenMgr *auth.TokenManager
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Ledger   *LedgerService
	Tokens   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:    deps.UserRepo,
		ledger:   deps.Ledger,
		tokenMgr: tokens,
	}
}

// Login exchanges a national id and PIN for a signed token. Logging in as a
// standard user also marks today's attendance; a mark that already exists is
// not a login failure.
func (s *AuthService) Login(ctx context.Context, nationalID, pin string, now time.Time) (*LoginResult, error) {
	nationalID = strings.TrimSpace(nationalID)
	if err := validateLogin(loginFields{NationalID: nationalID, Pin: pin}); err != nil {
		return nil, err
	}

	user, err := s.users.GetByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, storageError(err)
	}
	if err := auth.ComparePin(user.PinHash, pin); err != nil {
		return nil, ErrInvalidLogin
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result := &LoginResult{User: user, Token: token, ExpiresAt: exp}

	if user.IsStandard() && s.ledger != nil {
		rec, err := s.ledger.RecordAttendance(ctx, user.ID, now)
		switch {
		case err == nil:
			result.Attendance = rec
			result.AttendanceCreated = true
		case errors.Is(err, ErrAlreadyRecordedToday):
			result.Attendance = rec
		default:
			return nil, err
		}
	}
	return result, nil
}
