package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRole is returned when a role name is not one of the known roles.
	ErrUnknownRole = errors.New("unknown role")
	// ErrNotAuthorized is returned when the identity lacks the role an operation requires.
	ErrNotAuthorized = errors.New("not authorized")
)

// Role is the authorization tier of an account.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleUser    Role = "User"
	RoleVisitor Role = "Visitor"
)

// Roles lists every valid role.
//
//nolint:gochecknoglobals
var Roles = []Role{RoleAdmin, RoleUser, RoleVisitor}

// ParseRole maps a role name to a Role, ignoring case.
func ParseRole(name string) (Role, error) {
	name = strings.TrimSpace(name)

	for _, role := range Roles {
		if strings.EqualFold(name, string(role)) {
			return role, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleVisitor:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
