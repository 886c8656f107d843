package domain

// Session is the authorization context of one caller, resolved per request
// from its bearer credential and handed explicitly to every privileged operation.
type Session struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the session carries administrator privileges.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
