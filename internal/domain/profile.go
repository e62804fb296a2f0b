package domain

import (
	"strings"
	"time"
)

// Profile is the application-level user record, separate from the auth session.
type Profile struct {
	ID             string     `json:"id"`
	Role           Role       `json:"role"`
	FullName       *string    `json:"full_name"`
	ClassLevel     *string    `json:"class_level"`
	Email          string     `json:"email"`
	CurrentStreak  int        `json:"current_streak"`
	LastActiveDate *time.Time `json:"last_active_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasName reports whether a non-blank full name is recorded.
func (p *Profile) HasName() bool {
	return p != nil && p.FullName != nil && strings.TrimSpace(*p.FullName) != ""
}

// HasClass reports whether a class level is recorded.
func (p *Profile) HasClass() bool {
	return p != nil && p.ClassLevel != nil
}

// DisplayName returns the full name or "Anonymous".
func (p *Profile) DisplayName() string {
	if p.HasName() {
		return *p.FullName
	}
	return "Anonymous"
}

// ClassLevels are the school years a student profile may belong to.
var ClassLevels = []string{"JSS 1", "JSS 2", "JSS 3", "SSS 1", "SSS 2", "SSS 3"}

// ValidClassLevel reports whether level is one of ClassLevels.
func ValidClassLevel(level string) bool {
	for _, l := range ClassLevels {
		if l == level {
			return true
		}
	}
	return false
}

// NextStreak computes the streak after activity on today (a UTC calendar day).
// changed is false when the user was already active today.
func NextStreak(current int, lastActive *time.Time, today time.Time) (streak int, changed bool) {
	day := truncateDay(today)
	if lastActive != nil {
		last := truncateDay(*lastActive)
		switch {
		case last.Equal(day):
			return current, false
		case last.Equal(day.AddDate(0, 0, -1)):
			return current + 1, true
		}
	}
	return 1, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
