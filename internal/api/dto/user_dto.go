package dto

import (
	"time"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

// LoginRequest payload for the credential exchange.
type LoginRequest struct {
	Cedula string `json:"cedula"`
	Pin    string `json:"pin"`
}

// LoginResponse carries the token and the caller's display data.
type LoginResponse struct {
	Token      string           `json:"token"`
	ExpiresAt  time.Time        `json:"expira"`
	Rol        domain.Role      `json:"rol"`
	Nombre     string           `json:"nombre"`
	ID         string           `json:"_id"`
	Asistencia *LoginAttendance `json:"asistencia,omitempty"`
}

// LoginAttendance reports the attendance mark made by a login.
// Registrada is false when the day was already marked.
type LoginAttendance struct {
	Registrada bool               `json:"registrada"`
	Registro   AttendanceResponse `json:"registro"`
}

// SessionResponse is the outcome of a client-side view gate check.
type SessionResponse struct {
	Admit    bool   `json:"admit"`
	Decision string `json:"decision"`
}

// UserCreateRequest payload for new directory entries.
type UserCreateRequest struct {
	Cedula string `json:"cedula"`
	Nombre string `json:"nombre"`
	Pin    string `json:"pin"`
	Rol    string `json:"rol"`
}

// UserUpdateRequest is a partial update. An empty pin means unchanged.
type UserUpdateRequest struct {
	Cedula *string `json:"cedula"`
	Nombre *string `json:"nombre"`
	Pin    *string `json:"pin"`
	Rol    *string `json:"rol"`
}

// RoleChangeRequest payload for the audited role change.
type RoleChangeRequest struct {
	Rol string `json:"rol"`
}

// UserResponse is the public view of a user. The PIN hash is never exposed.
type UserResponse struct {
	ID     string      `json:"_id"`
	Cedula string      `json:"cedula"`
	Nombre string      `json:"nombre"`
	Rol    domain.Role `json:"rol"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Cedula: user.NationalID,
		Nombre: user.FullName,
		Rol:    user.Role,
	}
}

// NewUserResponses maps a directory listing. The result is never nil.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
