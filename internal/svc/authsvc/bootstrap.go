package authsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// Bootstrap provisions the configured admin account unless an account with
// that username already exists. Losing a creation race to another process
// counts as provisioned.
func (s *AuthService) Bootstrap(ctx context.Context) error {
	username := s.Config.AdminUsername

	_, exists, err := s.UserRepo.UserIDOf(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	} else if exists {
		s.Log.DebugContext(ctx, "admin already provisioned", "username", username)

		return nil
	}

	_, err = s.Register(ctx, username, s.Config.AdminPassword, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateUsername) {
		return nil
	} else if err != nil {
		return fmt.Errorf("register admin: %w", err)
	}

	s.Log.InfoContext(ctx, "admin provisioned", "username", username)

	return nil
}
