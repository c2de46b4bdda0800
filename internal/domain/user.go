package domain

import "errors"

var (
	// ErrDuplicateUsername is returned when trying to create an account with an existing username.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	// Unknown users and wrong passwords are deliberately reported the same way.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCorruptCredential is returned when a stored hash, salt or role cannot be decoded.
	ErrCorruptCredential = errors.New("corrupt credential")
	// ErrStorageUnavailable is returned when the credential or session storage cannot be used.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNoUsername is returned when a username is required but empty.
	ErrNoUsername = errors.New("no username")
	// ErrNoPassword is returned when a password is required but empty.
	ErrNoPassword = errors.New("no password")
	// ErrPasswordMismatch is returned when a password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Credential is a salted password digest. Hash and Salt are base64 text and
// only ever meaningful as a pair.
type Credential struct {
	Hash string
	Salt string
}

// IsZero reports whether either half of the credential is missing.
func (c Credential) IsZero() bool {
	return c.Hash == "" || c.Salt == ""
}

// UserAccount is a registered account as persisted in the users table.
type UserAccount struct {
	ID         int64      // Assigned by the store
	Username   string     // Unique, case-sensitive
	Credential Credential // Salted password digest
	Role       Role
}

// Identity returns the ephemeral identity of the account.
func (u *UserAccount) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
