package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

type memoryAttendanceRepository struct {
	mu      sync.Mutex
	records []domain.AttendanceRecord
}

// NewMemoryAttendanceRepository returns a process-local ledger. A single mutex
// makes CreateUnlessExists atomic.
func NewMemoryAttendanceRepository() AttendanceRepository {
	return &memoryAttendanceRepository{}
}

func (r *memoryAttendanceRepository) CreateUnlessExists(_ context.Context, rec *domain.AttendanceRecord, window TimeRange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing *domain.AttendanceRecord
	for i := range r.records {
		candidate := &r.records[i]
		if candidate.UserID != rec.UserID || !window.Contains(candidate.Timestamp) {
			continue
		}
		if existing == nil || candidate.Timestamp.Before(existing.Timestamp) {
			existing = candidate
		}
	}
	if existing != nil {
		*rec = *existing
		return false, nil
	}

	rec.ID = uuid.NewString()
	r.records = append(r.records, *rec)
	return true, nil
}

func (r *memoryAttendanceRepository) GetByID(_ context.Context, id string) (*domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id {
			found := rec
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryAttendanceRepository) ListBetween(_ context.Context, window TimeRange) ([]domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.AttendanceRecord
	for _, rec := range r.records {
		if window.Contains(rec.Timestamp) {
			result = append(result, rec)
		}
	}
	sortByTimestamp(result)
	return result, nil
}

func (r *memoryAttendanceRepository) ListAll(_ context.Context) ([]domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.AttendanceRecord, len(r.records))
	copy(result, r.records)
	sortByTimestamp(result)
	return result, nil
}

func (r *memoryAttendanceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func sortByTimestamp(records []domain.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
