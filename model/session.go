package model

import (
	"strings"
	"time"
)

// Role is the closed set of access levels the remote store knows about.
// Parsing is case-insensitive; comparison is by rank, not by string.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleHost
	RoleAdmin
)

// ParseRole maps a wire-format role string onto the enum.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "guest", "anonymous":
		return RoleGuest, nil
	case "user":
		return RoleUser, nil
	case "host":
		return RoleHost, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleGuest, ErrUnknownRole
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleHost:
		return "host"
	case RoleAdmin:
		return "admin"
	}
	return "guest"
}

// AtLeast reports whether r grants everything min does.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Session is the authenticated credential issued by the remote store. The
// zero value is not a valid session; absence is represented by a nil pointer.
type Session struct {
	Token    string    `json:"token"`
	Role     Role      `json:"-"`
	Identity string    `json:"identity"`
	Expiry   time.Time `json:"expiry"`
}

// Expired reports whether the credential's hard expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expiry.After(now)
}

// TimeToExpiry returns the remaining lifetime at the given instant. Negative
// once expired.
func (s *Session) TimeToExpiry(now time.Time) time.Duration {
	return s.Expiry.Sub(now)
}
