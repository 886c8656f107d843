package domain

import "time"

// AttendanceRecord states that a user was present at Timestamp. Records are
// immutable; UserID may dangle once the user is removed from the directory.
type AttendanceRecord struct {
	ID        string
	UserID    string
	Timestamp time.Time
}

// Day returns the calendar day of the record under loc.
func (r AttendanceRecord) Day(loc *time.Location) Day {
	return DayOf(r.Timestamp, loc)
}
