package user

import (
	"context"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// Repository defines the interface for credential persistence.
// Every method returns domain.ErrStorageUnavailable if the storage cannot be used.
type Repository interface {
	// CreateUser adds a new account and returns it with its assigned ID.
	// Returns domain.ErrDuplicateUsername if the username is already taken;
	// the storage's unique constraint is the only authority on that.
	CreateUser(ctx context.Context, username string, cred domain.Credential, role domain.Role) (*domain.UserAccount, error)

	// GetUserByUsername retrieves an account by its exact username.
	// Returns the account and true if found, or nil and false if not found.
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, bool, error)

	// GetUserByID retrieves an account by its ID.
	GetUserByID(ctx context.Context, id int64) (*domain.UserAccount, bool, error)

	// UserIDOf returns the ID of the account with the given username.
	UserIDOf(ctx context.Context, username string) (int64, bool, error)

	// ListUsernames returns all usernames in registration order.
	ListUsernames(ctx context.Context) ([]string, error)
}
