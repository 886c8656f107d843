package dto

import (
	"time"

	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/presence"
)

// AttendanceResponse is a ledger record. Usuario is null once the user was
// deleted from the directory.
type AttendanceResponse struct {
	ID      string        `json:"_id"`
	Usuario *UserResponse `json:"usuario"`
	UserID  string        `json:"usuario_id"`
	Fecha   time.Time     `json:"fecha"`
}

// NewAttendanceResponse maps a record and its optional user.
func NewAttendanceResponse(rec domain.AttendanceRecord, user *domain.User) AttendanceResponse {
	resp := AttendanceResponse{ID: rec.ID, UserID: rec.UserID, Fecha: rec.Timestamp}
	if user != nil {
		u := NewUserResponse(*user)
		resp.Usuario = &u
	}
	return resp
}

// SummaryResponse is the presence partition of one day.
type SummaryResponse struct {
	Fecha       string         `json:"fecha"`
	Presentes   []UserResponse `json:"presentes"`
	Ausentes    []UserResponse `json:"ausentes"`
	Total       int            `json:"total"`
	SinResolver int            `json:"sin_resolver"`
}

// NewSummaryResponse maps a presence result.
func NewSummaryResponse(result presence.Result) SummaryResponse {
	return SummaryResponse{
		Fecha:       result.Day.String(),
		Presentes:   NewUserResponses(result.Present),
		Ausentes:    NewUserResponses(result.Absent),
		Total:       result.Total(),
		SinResolver: result.Unresolved,
	}
}
