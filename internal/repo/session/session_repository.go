package session

import (
	"context"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// Repository records login and logout events. Sessions are never deleted.
// Every method returns domain.ErrStorageUnavailable if the storage cannot be used.
type Repository interface {
	// Open starts a new session for userID at the current time and returns its ID.
	Open(ctx context.Context, userID int64) (int64, error)

	// CloseOpenSessionsFor sets the logout time of every open session of userID
	// and returns how many were closed. Closing nothing is not an error.
	CloseOpenSessionsFor(ctx context.Context, userID int64) (int64, error)

	// HasOpenSession reports whether userID has at least one open session.
	HasOpenSession(ctx context.Context, userID int64) (bool, error)

	// ListByUser returns all sessions of userID, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.Session, error)
}
