package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/repository"
)

type fixture struct {
	cfg        config.Config
	users      repository.UserRepository
	records    repository.AttendanceRepository
	dispatcher events.Dispatcher
	directory  *DirectoryService
	ledger     *LedgerService
	admin      *domain.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	cfg := config.Config{
		Auth:       config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
		Attendance: config.AttendanceConfig{TimeZone: loc.String(), Location: loc},
	}
	f := &fixture{
		cfg:        cfg,
		users:      repository.NewMemoryUserRepository(),
		records:    repository.NewMemoryAttendanceRepository(),
		dispatcher: events.NewInMemoryDispatcher(nil),
	}
	f.directory = NewDirectoryService(cfg, DirectoryDependencies{UserRepo: f.users, Dispatcher: f.dispatcher})
	f.ledger = NewLedgerService(cfg, LedgerDependencies{AttendanceRepo: f.records, UserRepo: f.users, Dispatcher: f.dispatcher})

	root := &domain.User{NationalID: "1", FullName: "Root Admin", Role: domain.RoleAdmin}
	require.NoError(t, f.users.Create(context.Background(), root))
	f.admin = &domain.Session{UserID: root.ID, Role: domain.RoleAdmin}
	return f
}

func (f *fixture) createUser(t *testing.T, nationalID, name string) *domain.User {
	t.Helper()
	user, err := f.directory.Create(context.Background(), f.admin, CreateUserInput{
		NationalID: nationalID,
		FullName:   name,
		Pin:        "1234",
		Role:       domain.RoleStandard,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, f.cfg.Attendance.Location)
	require.NoError(t, err)
	return ts
}

func ptr[T any](v T) *T {
	return &v
}
