package events

import (
	"time"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated         EventType = "user.created"
	EventUserUpdated         EventType = "user.updated"
	EventUserDeleted         EventType = "user.deleted"
	EventUserRoleChanged     EventType = "user.role_changed"
	EventAttendanceRecorded  EventType = "attendance.recorded"
	EventAttendanceDuplicate EventType = "attendance.duplicate"
	EventAttendanceDeleted   EventType = "attendance.deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserPayload describes a directory change.
type UserPayload struct {
	NationalID string      `json:"national_id"`
	Role       domain.Role `json:"role"`
}

// RoleChangedPayload records a privilege change.
type RoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// AttendancePayload describes a ledger change.
type AttendancePayload struct {
	RecordID string    `json:"record_id"`
	UserID   string    `json:"user_id"`
	Day      string    `json:"day"`
	At       time.Time `json:"at"`
}
