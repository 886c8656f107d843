package service

import (
	"context"
	"errors"
	"time"

	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/repository"
)

// LedgerService records and queries attendance. Calendar days are evaluated
// in a single configured location for both recording and listing.
type LedgerService struct {
	records    repository.AttendanceRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	loc        *time.Location
}

// LedgerDependencies encapsulates repo requirements for the ledger.
type LedgerDependencies struct {
	AttendanceRepo repository.AttendanceRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
}

// NewLedgerService builds the service.
func NewLedgerService(cfg config.Config, deps LedgerDependencies) *LedgerService {
	loc := cfg.Attendance.Location
	if loc == nil {
		loc = time.Local
	}
	return &LedgerService{
		records:    deps.AttendanceRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		loc:        loc,
	}
}

// Location returns the time zone that defines calendar days.
func (s *LedgerService) Location() *time.Location {
	return s.loc
}

// Today returns the calendar day of now.
func (s *LedgerService) Today(now time.Time) domain.Day {
	return domain.DayOf(now, s.loc)
}

// ResolveDay parses a YYYY-MM-DD query value. An empty value means today.
func (s *LedgerService) ResolveDay(value string, now time.Time) (domain.Day, error) {
	if value == "" {
		return s.Today(now), nil
	}
	day, err := domain.ParseDay(value)
	if err != nil {
		return domain.Day{}, ErrInvalidDate.WithDetails(map[string]any{"fecha": value})
	}
	return day, nil
}

// RecordAttendance marks userID present on the calendar day of now. At most
// one record exists per user and day; a repeated mark returns the existing
// record together with ErrAlreadyRecordedToday.
func (s *LedgerService) RecordAttendance(ctx context.Context, userID string, now time.Time) (*domain.AttendanceRecord, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser.WithDetails(map[string]any{"usuario": userID})
		}
		return nil, storageError(err)
	}

	day := domain.DayOf(now, s.loc)
	rec := &domain.AttendanceRecord{UserID: userID, Timestamp: now}
	created, err := s.records.CreateUnlessExists(ctx, rec, s.window(day))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser.WithDetails(map[string]any{"usuario": userID})
		}
		return nil, storageError(err)
	}

	payload := events.AttendancePayload{RecordID: rec.ID, UserID: userID, Day: day.String(), At: rec.Timestamp}
	if !created {
		emit(ctx, s.dispatcher, events.EventAttendanceDuplicate, userID, &domain.Session{UserID: userID}, payload)
		return rec, ErrAlreadyRecordedToday.WithDetails(map[string]any{
			"record_id": rec.ID,
			"fecha":     day.String(),
		})
	}

	emit(ctx, s.dispatcher, events.EventAttendanceRecorded, userID, &domain.Session{UserID: userID}, payload)
	return rec, nil
}

// ListByDay returns the records of day ordered by timestamp ascending.
func (s *LedgerService) ListByDay(ctx context.Context, actor *domain.Session, day domain.Day) ([]domain.AttendanceRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.listByDay(ctx, day)
}

// CountByDay is the number of records of day.
func (s *LedgerService) CountByDay(ctx context.Context, actor *domain.Session, day domain.Day) (int, error) {
	records, err := s.ListByDay(ctx, actor, day)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListAll returns the whole ledger ordered by timestamp ascending.
func (s *LedgerService) ListAll(ctx context.Context, actor *domain.Session) ([]domain.AttendanceRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return records, nil
}

// Delete removes one record. Nothing cascades.
func (s *LedgerService) Delete(ctx context.Context, actor *domain.Session, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound.WithDetails(map[string]any{"id": id})
		}
		return storageError(err)
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound.WithDetails(map[string]any{"id": id})
		}
		return storageError(err)
	}

	emit(ctx, s.dispatcher, events.EventAttendanceDeleted, rec.UserID, actor, events.AttendancePayload{
		RecordID: rec.ID,
		UserID:   rec.UserID,
		Day:      rec.Day(s.loc).String(),
		At:       rec.Timestamp,
	})
	return nil
}

func (s *LedgerService) listByDay(ctx context.Context, day domain.Day) ([]domain.AttendanceRecord, error) {
	records, err := s.records.ListBetween(ctx, s.window(day))
	if err != nil {
		return nil, storageError(err)
	}
	return records, nil
}

func (s *LedgerService) window(day domain.Day) repository.TimeRange {
	return repository.TimeRange{From: day.Start(s.loc), To: day.End(s.loc)}
}
