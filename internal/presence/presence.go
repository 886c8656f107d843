// Package presence derives who attended on a calendar day from a directory
// snapshot and the ledger records of that day.
package presence

import (
	"time"

	"github.com/asistencia-app/attendance-service/internal/domain"
)

// Result partitions the standard users of a directory snapshot for one day.
// Present and Absent are disjoint, keep directory order, and together hold
// every standard user exactly once.
type Result struct {
	Day     domain.Day
	Present []domain.User
	Absent  []domain.User
	// Unresolved counts distinct user references of the day that match no
	// directory entry, such as users deleted after marking attendance.
	Unresolved int
}

// Total is the number of standard users considered.
func (r Result) Total() int {
	return len(r.Present) + len(r.Absent)
}

// Calculator evaluates records under one calendar-day policy.
type Calculator struct {
	loc *time.Location
}

// NewCalculator builds a calculator whose day boundaries fall in loc.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{loc: loc}
}

// Compute is pure. Records outside day are ignored, duplicate marks for one
// user count once, and administrators are left out of both buckets.
func (c *Calculator) Compute(day domain.Day, users []domain.User, records []domain.AttendanceRecord) Result {
	marked := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.Day(c.loc) != day {
			continue
		}
		marked[rec.UserID] = struct{}{}
	}

	result := Result{Day: day, Present: []domain.User{}, Absent: []domain.User{}}
	seen := make(map[string]struct{}, len(users))
	for _, user := range users {
		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}
		if !user.IsStandard() {
			continue
		}
		if _, ok := marked[user.ID]; ok {
			result.Present = append(result.Present, user)
		} else {
			result.Absent = append(result.Absent, user)
		}
	}

	for userID := range marked {
		if _, known := seen[userID]; !known {
			result.Unresolved++
		}
	}
	return result
}
