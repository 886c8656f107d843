package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

// TimeRange is the half-open interval [From, To).
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// AttendanceRepository persists the attendance ledger.
type AttendanceRepository interface {
	// CreateUnlessExists inserts rec unless rec.UserID already has a record
	// inside window. The check and the insert are atomic per (user, window).
	// When a record exists, rec is overwritten with it and created is false.
	CreateUnlessExists(ctx context.Context, rec *domain.AttendanceRecord, window TimeRange) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.AttendanceRecord, error)
	ListBetween(ctx context.Context, window TimeRange) ([]domain.AttendanceRecord, error)
	ListAll(ctx context.Context) ([]domain.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
}

type attendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository returns a Postgres-backed implementation.
func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

func (r *attendanceRepository) CreateUnlessExists(ctx context.Context, rec *domain.AttendanceRecord, window TimeRange) (bool, error) {
	if !isUUID(rec.UserID) {
		return false, ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serializes concurrent marks for the same user and day until commit.
	lockKey := rec.UserID + "|" + window.From.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return false, err
	}

	const existingQuery = `
        SELECT id, user_id, recorded_at
        FROM attendance_records
        WHERE user_id=$1 AND recorded_at >= $2 AND recorded_at < $3
        ORDER BY recorded_at ASC
        LIMIT 1`

	var existing domain.AttendanceRecord
	err = tx.QueryRow(ctx, existingQuery, rec.UserID, window.From, window.To).
		Scan(&existing.ID, &existing.UserID, &existing.Timestamp)
	switch {
	case err == nil:
		*rec = existing
		return false, tx.Commit(ctx)
	case !errors.Is(err, pgx.ErrNoRows):
		return false, translate(err)
	}

	const insertQuery = `
        INSERT INTO attendance_records (user_id, recorded_at)
        VALUES ($1, $2)
        RETURNING id`

	if err := tx.QueryRow(ctx, insertQuery, rec.UserID, rec.Timestamp).Scan(&rec.ID); err != nil {
		return false, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (*domain.AttendanceRecord, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	const query = `SELECT id, user_id, recorded_at FROM attendance_records WHERE id=$1`

	var rec domain.AttendanceRecord
	if err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.UserID, &rec.Timestamp); err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *attendanceRepository) ListBetween(ctx context.Context, window TimeRange) ([]domain.AttendanceRecord, error) {
	const query = `
        SELECT id, user_id, recorded_at
        FROM attendance_records
        WHERE recorded_at >= $1 AND recorded_at < $2
        ORDER BY recorded_at ASC, id ASC`

	return r.list(ctx, query, window.From, window.To)
}

func (r *attendanceRepository) ListAll(ctx context.Context) ([]domain.AttendanceRecord, error) {
	const query = `
        SELECT id, user_id, recorded_at
        FROM attendance_records
        ORDER BY recorded_at ASC, id ASC`

	return r.list(ctx, query)
}

func (r *attendanceRepository) list(ctx context.Context, query string, args ...any) ([]domain.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.AttendanceRecord
	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attendance_records WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
