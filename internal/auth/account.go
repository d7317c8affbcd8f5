package auth

import (
	"fmt"
	"time"
)

// Role is the authorization role stored on an account.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleGuest   Role = "GUEST"
	RoleMentor  Role = "MENTOR"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

// Account is the local record of an authenticated principal.
// Email is the directory key; ID is assigned by the directory.
type Account struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
	Role      Role
	Status    Status
	CreatedAt time.Time
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleGuest, RoleMentor:
		return true
	}
	return false
}

// ParseRole converts a stored value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusBlocked
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
