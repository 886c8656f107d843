package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/repository"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// Sentinel errors returned by the services. Match them with errors.Is; the
// copies actually returned may carry details.
var (
	ErrInvalidName         = apperrors.NewDomainError("INVALID_NAME", "full name may contain only letters and spaces", http.StatusBadRequest, nil)
	ErrInvalidPin          = apperrors.NewDomainError("INVALID_PIN", fmt.Sprintf("pin must contain 1 to %d digits", maxPinLength), http.StatusBadRequest, nil)
	ErrInvalidNationalID   = apperrors.NewDomainError("INVALID_NATIONAL_ID", "national id must contain only digits", http.StatusBadRequest, nil)
	ErrInvalidRole         = apperrors.NewDomainError("INVALID_ROLE", "role must be admin or user", http.StatusBadRequest, nil)
	ErrImmutableField      = apperrors.NewDomainError("IMMUTABLE_FIELD", "field cannot be changed after creation", http.StatusBadRequest, nil)
	ErrDuplicateNationalID = apperrors.NewDomainError("DUPLICATE_NATIONAL_ID", "national id already registered", http.StatusConflict, nil)
	ErrUserNotFound        = apperrors.NewDomainError(apperrors.CodeNotFound, "user not found", http.StatusNotFound, nil)
	ErrSelfRoleChange      = apperrors.NewDomainError("SELF_ROLE_CHANGE", "administrators cannot change their own role", http.StatusConflict, nil)

	ErrUnknownUser          = apperrors.NewDomainError("UNKNOWN_USER", "user does not exist", http.StatusNotFound, nil)
	ErrAlreadyRecordedToday = apperrors.NewDomainError("ALREADY_RECORDED_TODAY", "attendance already recorded today", http.StatusConflict, nil)
	ErrInvalidDate          = apperrors.NewDomainError("INVALID_DATE", "fecha must be formatted as YYYY-MM-DD", http.StatusBadRequest, nil)
	ErrRecordNotFound       = apperrors.NewDomainError(apperrors.CodeNotFound, "attendance record not found", http.StatusNotFound, nil)

	ErrInvalidLogin = apperrors.NewDomainError("INVALID_CREDENTIAL", "national id or pin incorrect", http.StatusUnauthorized, nil)
)

// requireSession rejects calls that carry no authorization context.
func requireSession(actor *domain.Session) error {
	if actor == nil || actor.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

func requireAdmin(actor *domain.Session) error {
	if err := requireSession(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// storageError turns an unexpected repository failure into an UNAVAILABLE
// error the caller may retry.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("resource", nil)
	}
	return apperrors.NewUnavailable(err)
}
