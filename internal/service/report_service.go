package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/presence"
	"github.com/asistencia-app/attendance-service/internal/repository"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// UnknownUserName labels records whose user left the directory.
const UnknownUserName = "usuario desconocido"

// Entry is a ledger record joined with its user. User is nil for records of
// users that were deleted.
type Entry struct {
	Record domain.AttendanceRecord
	User   *domain.User
}

// ReportService joins the ledger with the directory for administrators.
type ReportService struct {
	ledger     *LedgerService
	users      repository.UserRepository
	calculator *presence.Calculator
}

// NewReportService builds the service.
func NewReportService(ledger *LedgerService, users repository.UserRepository) *ReportService {
	return &ReportService{
		ledger:     ledger,
		users:      users,
		calculator: presence.NewCalculator(ledger.Location()),
	}
}

// DayEntries lists the records of day with resolved users. A non-empty
// nameFilter keeps entries whose user name contains it, ignoring case;
// unresolved entries never match a filter.
func (s *ReportService) DayEntries(ctx context.Context, actor *domain.Session, day domain.Day, nameFilter string) ([]Entry, error) {
	records, err := s.ledger.ListByDay(ctx, actor, day)
	if err != nil {
		return nil, err
	}
	directory, err := s.directoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		user := directory[rec.UserID]
		if filter != "" && (user == nil || !strings.Contains(strings.ToLower(user.FullName), filter)) {
			continue
		}
		entries = append(entries, Entry{Record: rec, User: user})
	}
	return entries, nil
}

// DaySummary computes who was present and absent on day.
func (s *ReportService) DaySummary(ctx context.Context, actor *domain.Session, day domain.Day) (presence.Result, error) {
	records, err := s.ledger.ListByDay(ctx, actor, day)
	if err != nil {
		return presence.Result{}, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return presence.Result{}, storageError(err)
	}
	return s.calculator.Compute(day, users, records), nil
}

// Export writes the records of day as CSV, or the whole ledger when day is nil.
func (s *ReportService) Export(ctx context.Context, actor *domain.Session, day *domain.Day, w io.Writer) error {
	var (
		records []domain.AttendanceRecord
		err     error
	)
	if day != nil {
		records, err = s.ledger.ListByDay(ctx, actor, *day)
	} else {
		records, err = s.ledger.ListAll(ctx, actor)
	}
	if err != nil {
		return err
	}
	directory, err := s.directoryIndex(ctx)
	if err != nil {
		return err
	}

	loc := s.ledger.Location()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cedula", "nombre", "fecha", "hora"}); err != nil {
		return apperrors.NewInternalError(err)
	}
	for _, rec := range records {
		nationalID, name := "", UnknownUserName
		if user := directory[rec.UserID]; user != nil {
			nationalID, name = user.NationalID, user.FullName
		}
		at := rec.Timestamp.In(loc)
		row := []string{nationalID, name, at.Format(domain.DayLayout), at.Format("15:04:05")}
		if err := cw.Write(row); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *ReportService) directoryIndex(ctx context.Context) (map[string]*domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, storageError(err)
	}
	index := make(map[string]*domain.User, len(users))
	for i := range users {
		index[users[i].ID] = &users[i]
	}
	return index, nil
}
