package authsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
	"github.com/mkrupp/inventory-tracker/internal/repo/session"
	"github.com/mkrupp/inventory-tracker/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// AdminUsername is the account provisioned by Bootstrap
	AdminUsername string `env:"ADMIN_USERNAME" default:"admin"`

	// AdminPassword is the initial password of the bootstrapped admin account
	AdminPassword string `env:"ADMIN_PASSWORD" default:"admin"`
}

// AuthService provides registration, login and logout on top of the
// credential and session stores. It keeps no per-user state: the Identity
// returned by Login is held by the caller and passed back explicitly.
type AuthService struct {
	Config      AuthConfig
	UserRepo    user.Repository
	SessionRepo session.Repository
	Hasher      PasswordHasher
	Metrics     *Metrics
	Log         logging.Logger
}

// NewAuthService creates a new AuthService on the given stores. metrics may be nil.
func NewAuthService(
	users user.Repository,
	sessions session.Repository,
	cfg AuthConfig,
	metrics *Metrics,
) *AuthService {
	return &AuthService{
		Config:      cfg,
		UserRepo:    users,
		SessionRepo: sessions,
		Metrics:     metrics,
		Log:         logging.GetLogger("svc.authsvc.auth_service"),
	}
}

// Register creates a new account with the given username, password and role.
// It does not log the new account in.
// Returns domain.ErrDuplicateUsername if the username is taken.
func (s *AuthService) Register(
	ctx context.Context,
	username, password string,
	role domain.Role,
) (account *domain.UserAccount, err error) {
	log := s.Log.With(logging.Group("user", "username", username, "role", role))

	defer func() {
		s.Metrics.registration(err)

		if err != nil {
			log.ErrorContext(ctx, "register user failed", logging.Err(err))
		} else {
			log.InfoContext(ctx, "user registered", "userId", account.ID)
		}
	}()

	switch {
	case strings.TrimSpace(username) == "":
		return nil, domain.ErrNoUsername
	case password == "":
		return nil, domain.ErrNoPassword
	case !role.Valid():
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	cred, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err = s.UserRepo.CreateUser(ctx, username, cred, role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return account, nil
}

// Login checks username and password and opens a session for the account.
//
// Unknown users, wrong passwords and unreadable stored credentials all yield
// domain.ErrInvalidCredentials and nothing else, so callers cannot tell them
// apart. Storage failures yield domain.ErrStorageUnavailable.
func (s *AuthService) Login(ctx context.Context, username, password string) (identity domain.Identity, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		s.Metrics.login(err)

		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			log.WarnContext(ctx, "login rejected")
		case err != nil:
			log.ErrorContext(ctx, "login failed", logging.Err(err))
		default:
			log.InfoContext(ctx, "login successful", "userId", identity.UserID, "role", identity.Role)
		}
	}()

	account, ok, err := s.UserRepo.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrCorruptCredential) {
		log.WarnContext(ctx, "stored account is unreadable", logging.Err(err))

		return domain.Identity{}, domain.ErrInvalidCredentials
	} else if err != nil {
		return domain.Identity{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	match, err := s.Hasher.Verify(password, account.Credential)
	if err != nil {
		log.WarnContext(ctx, "stored credential is unreadable", "userId", account.ID, logging.Err(err))

		return domain.Identity{}, domain.ErrInvalidCredentials
	} else if !match {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	if _, err := s.SessionRepo.Open(ctx, account.ID); err != nil {
		return domain.Identity{}, fmt.Errorf("open session: %w", err)
	}

	return account.Identity(), nil
}

// Logout closes every open session of userID. Logging out without an open
// session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID int64) (err error) {
	log := s.Log.With("userId", userID)

	var closed int64

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "logout failed", logging.Err(err))
		} else {
			log.InfoContext(ctx, "logged out", "sessions", closed)
		}
	}()

	if closed, err = s.SessionRepo.CloseOpenSessionsFor(ctx, userID); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}

	s.Metrics.sessionsClosed(closed)

	return nil
}

// ListUsernames returns all usernames in registration order. Only admins may
// list accounts.
func (s *AuthService) ListUsernames(ctx context.Context, identity domain.Identity) ([]string, error) {
	if err := RequireAdmin(identity); err != nil {
		s.Log.WarnContext(ctx, "list users denied", logging.Group("user", "id", identity.UserID))

		return nil, err
	}

	usernames, err := s.UserRepo.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}

	return usernames, nil
}

// Authorize checks against storage that identity still refers to an admin
// account. Missing or unreadable accounts are not authorized.
func (s *AuthService) Authorize(ctx context.Context, identity domain.Identity) error {
	if err := RequireAdmin(identity); err != nil {
		return err
	}

	account, ok, err := s.UserRepo.GetUserByID(ctx, identity.UserID)
	if errors.Is(err, domain.ErrCorruptCredential) {
		s.Log.WarnContext(ctx, "stored account is unreadable", "userId", identity.UserID, logging.Err(err))

		return domain.ErrNotAuthorized
	} else if err != nil {
		return fmt.Errorf("get user: %w", err)
	} else if !ok {
		return fmt.Errorf("user %d not found: %w", identity.UserID, domain.ErrNotAuthorized)
	}

	return RequireAdmin(account.Identity())
}

// ConfirmPassword returns domain.ErrPasswordMismatch unless both entries are equal.
func ConfirmPassword(password, confirmation string) error {
	if password != confirmation {
		return domain.ErrPasswordMismatch
	}

	return nil
}
