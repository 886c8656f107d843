package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

func TestReportService_DayEntriesAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.ledger, f.users)
	day := domain.Day{Year: 2024, Month: time.March, Day: 4}

	ana := f.createUser(t, "30", "Ana Torres")
	bea := f.createUser(t, "31", "Bea Ruiz")
	carl := f.createUser(t, "32", "Carlos Torres")

	_, err := f.ledger.RecordAttendance(ctx, ana.ID, f.at(t, "2024-03-04 08:00"))
	require.NoError(t, err)
	_, err = f.ledger.RecordAttendance(ctx, carl.ID, f.at(t, "2024-03-04 09:00"))
	require.NoError(t, err)
	_, err = f.ledger.RecordAttendance(ctx, bea.ID, f.at(t, "2024-03-05 09:00"))
	require.NoError(t, err)
	require.NoError(t, f.directory.Delete(ctx, f.admin, carl.ID))

	entries, err := reports.DayEntries(ctx, f.admin, day, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].User)
	assert.Equal(t, ana.ID, entries[0].User.ID)
	assert.Nil(t, entries[1].User, "deleted users stay unresolved")

	filtered, err := reports.DayEntries(ctx, f.admin, day, "TORRES")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, ana.ID, filtered[0].Record.UserID)

	summary, err := reports.DaySummary(ctx, f.admin, day)
	require.NoError(t, err)
	require.Len(t, summary.Present, 1)
	assert.Equal(t, ana.ID, summary.Present[0].ID)
	require.Len(t, summary.Absent, 1)
	assert.Equal(t, bea.ID, summary.Absent[0].ID)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Equal(t, 2, summary.Total(), "the administrator is not counted")
}

func TestReportService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.ledger, f.users)
	ana := f.createUser(t, "40", "Ana")
	gone := f.createUser(t, "41", "Gone")

	_, err := f.ledger.RecordAttendance(ctx, ana.ID, f.at(t, "2024-03-04 08:05"))
	require.NoError(t, err)
	_, err = f.ledger.RecordAttendance(ctx, gone.ID, f.at(t, "2024-03-04 08:10"))
	require.NoError(t, err)
	_, err = f.ledger.RecordAttendance(ctx, ana.ID, f.at(t, "2024-03-05 07:00"))
	require.NoError(t, err)
	require.NoError(t, f.directory.Delete(ctx, f.admin, gone.ID))

	var buf bytes.Buffer
	day := domain.Day{Year: 2024, Month: time.March, Day: 4}
	require.NoError(t, reports.Export(ctx, f.admin, &day, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"cedula", "nombre", "fecha", "hora"},
		{"40", "Ana", "2024-03-04", "08:05:00"},
		{"", UnknownUserName, "2024-03-04", "08:10:00"},
	}, rows)

	buf.Reset()
	require.NoError(t, reports.Export(ctx, f.admin, nil, &buf))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus the whole ledger")

	standard := &domain.Session{UserID: ana.ID, Role: domain.RoleStandard}
	assert.Error(t, reports.Export(ctx, standard, nil, &buf))
}
