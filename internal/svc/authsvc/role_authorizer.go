package authsvc

import (
	"fmt"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// IsAdmin reports whether role grants administrative privileges.
func IsAdmin(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser, domain.RoleVisitor:
		return false
	default:
		return false
	}
}

// IsAdminRoleName is IsAdmin for role names as they appear in text, compared
// case-insensitively. Unknown names are never admin.
func IsAdminRoleName(name string) bool {
	role, err := domain.ParseRole(name)
	if err != nil {
		return false
	}

	return IsAdmin(role)
}

// RequireAdmin returns domain.ErrNotAuthorized unless identity is an admin.
func RequireAdmin(identity domain.Identity) error {
	if identity.IsZero() || !IsAdmin(identity.Role) {
		return fmt.Errorf("%q is not an admin: %w", identity.Username, domain.ErrNotAuthorized)
	}

	return nil
}
