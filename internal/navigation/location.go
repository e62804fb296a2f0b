package navigation

import "strings"

// Zone is a top-level navigation partition scoped to one role.
type Zone string

const (
	ZoneNone    Zone = ""
	ZoneAuth    Zone = "auth"
	ZoneStudent Zone = "student"
	ZoneTeacher Zone = "teacher"
	ZoneParent  Zone = "parent"
	ZoneAdmin   Zone = "admin"
)

// Screens the guard redirects to.
const (
	WelcomePath      = "/auth/welcome"
	SetupProfilePath = "/auth/setup-profile"
	ParentHomePath   = "/parent/dashboard"
	TeacherHomePath  = "/teacher/dashboard"
	StudentHomePath  = "/student/home"
)

// IsRoleZone reports whether z belongs to a signed-in role.
func (z Zone) IsRoleZone() bool {
	switch z {
	case ZoneStudent, ZoneTeacher, ZoneParent, ZoneAdmin:
		return true
	}
	return false
}

// Location is a normalised screen path and its zone.
type Location struct {
	Path string
	Zone Zone
}

// ParseLocation normalises a client path. Route groups may be written with
// parentheses ("/(teacher)/dashboard"); query strings and fragments are dropped.
func ParseLocation(raw string) Location {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(raw, "/") {
		seg = strings.TrimSuffix(strings.TrimPrefix(seg, "("), ")")
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}

	loc := Location{Path: "/" + strings.Join(segments, "/")}
	if len(segments) > 0 {
		switch z := Zone(segments[0]); z {
		case ZoneAuth, ZoneStudent, ZoneTeacher, ZoneParent, ZoneAdmin:
			loc.Zone = z
		}
	}
	return loc
}
