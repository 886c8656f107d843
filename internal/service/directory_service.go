package service

import (
	"context"
	"errors"
	"strings"

	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/repository"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// CreateUserInput carries the fields of a new directory entry.
type CreateUserInput struct {
	NationalID string
	FullName   string
	Pin        string
	Role       domain.Role
}

// UpdateUserInput is a partial update. Nil fields are left untouched.
// NationalID and Role are accepted only when they equal the stored values.
type UpdateUserInput struct {
	NationalID *string
	FullName   *string
	Pin        *string
	Role       *domain.Role
}

// DirectoryService manages the user directory.
type DirectoryService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// DirectoryDependencies encapsulates repo requirements for the directory.
type DirectoryDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewDirectoryService builds the service.
func NewDirectoryService(cfg config.Config, deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Create validates and stores a new user. The PIN is hashed before storage.
func (s *DirectoryService) Create(ctx context.Context, actor *domain.Session, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.newUser(input)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, user); err != nil {
		return nil, err
	}

	emit(ctx, s.dispatcher, events.EventUserCreated, user.ID, actor, events.UserPayload{NationalID: user.NationalID, Role: user.Role})
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator when the directory holds no
// administrator yet. It reports whether a user was created.
func (s *DirectoryService) EnsureAdmin(ctx context.Context, bootstrap config.BootstrapConfig) (bool, error) {
	if !bootstrap.Enabled() {
		return false, nil
	}
	count, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, storageError(err)
	}
	if count > 0 {
		return false, nil
	}

	user, err := s.newUser(CreateUserInput{
		NationalID: bootstrap.AdminNationalID,
		FullName:   bootstrap.AdminName,
		Pin:        bootstrap.AdminPin,
		Role:       domain.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	if err := s.store(ctx, user); err != nil {
		return false, err
	}
	emit(ctx, s.dispatcher, events.EventUserCreated, user.ID, nil, events.UserPayload{NationalID: user.NationalID, Role: user.Role})
	return true, nil
}

// Update applies a partial update. An omitted PIN keeps the existing hash.
func (s *DirectoryService) Update(ctx context.Context, actor *domain.Session, id string, input UpdateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.NationalID != nil && strings.TrimSpace(*input.NationalID) != user.NationalID {
		return nil, ErrImmutableField.WithDetails(map[string]any{"field": "cedula"})
	}
	if input.Role != nil && *input.Role != user.Role {
		return nil, ErrImmutableField.WithDetails(map[string]any{"field": "rol"})
	}

	if input.FullName != nil {
		name, err := validateName(*input.FullName)
		if err != nil {
			return nil, err
		}
		user.FullName = name
	}
	if input.Pin != nil {
		hash, err := s.hashPin(*input.Pin)
		if err != nil {
			return nil, err
		}
		user.PinHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(err)
	}

	emit(ctx, s.dispatcher, events.EventUserUpdated, user.ID, actor, events.UserPayload{NationalID: user.NationalID, Role: user.Role})
	return user, nil
}

// ChangeRole is the only way to alter a user's privilege level. An
// administrator cannot change their own role.
func (s *DirectoryService) ChangeRole(ctx context.Context, actor *domain.Session, id string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateUser(userFields{Role: role}, "Role"); err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, ErrSelfRoleChange
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	previous := user.Role
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(err)
	}

	emit(ctx, s.dispatcher, events.EventUserRoleChanged, user.ID, actor, events.RoleChangedPayload{OldRole: previous, NewRole: role})
	return user, nil
}

// Delete removes a user. Attendance records referencing it are retained.
func (s *DirectoryService) Delete(ctx context.Context, actor *domain.Session, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return apperrors.NewConflict("administrators cannot delete themselves", nil)
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storageError(err)
	}

	emit(ctx, s.dispatcher, events.EventUserDeleted, id, actor, events.UserPayload{NationalID: user.NationalID, Role: user.Role})
	return nil
}

// UserQuery narrows a directory listing.
type UserQuery struct {
	// Name matches a case-insensitive substring of the full name.
	Name string
	Role *domain.Role
}

// List returns users in insertion order, optionally filtered by name and role.
func (s *DirectoryService) List(ctx context.Context, actor *domain.Session, query UserQuery) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if query.Role != nil && !query.Role.Valid() {
		return nil, ErrInvalidRole
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		NameContains: strings.TrimSpace(query.Name),
		Role:         query.Role,
	})
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// Get returns one user. Standard users may only read themselves.
func (s *DirectoryService) Get(ctx context.Context, actor *domain.Session, id string) (*domain.User, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, apperrors.NewForbidden("cannot read other users")
	}
	return s.load(ctx, id)
}

func (s *DirectoryService) newUser(input CreateUserInput) (*domain.User, error) {
	fields := userFields{
		NationalID: strings.TrimSpace(input.NationalID),
		FullName:   strings.TrimSpace(input.FullName),
		Pin:        input.Pin,
		Role:       input.Role,
	}
	if fields.Role == "" {
		fields.Role = domain.RoleStandard
	}
	if err := validateUser(fields); err != nil {
		return nil, err
	}
	hash, err := s.hashPin(fields.Pin)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		NationalID: fields.NationalID,
		FullName:   fields.FullName,
		PinHash:    hash,
		Role:       fields.Role,
	}, nil
}

func (s *DirectoryService) store(ctx context.Context, user *domain.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicateNationalID.WithDetails(map[string]any{"cedula": user.NationalID})
		}
		return storageError(err)
	}
	return nil
}

func (s *DirectoryService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound.WithDetails(map[string]any{"id": id})
		}
		return nil, storageError(err)
	}
	return user, nil
}

func (s *DirectoryService) hashPin(pin string) (string, error) {
	if err := validateUser(userFields{Pin: pin}, "Pin"); err != nil {
		return "", err
	}
	hash, err := auth.HashPin(pin, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateUser(userFields{FullName: trimmed}, "FullName"); err != nil {
		return "", err
	}
	return trimmed, nil
}
