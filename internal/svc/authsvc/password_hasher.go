package authsvc

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/mkrupp/inventory-tracker/internal/domain"
)

// SaltSize is the number of random salt bytes generated per credential.
const SaltSize = 32

// PasswordHasher derives salted SHA-256 credentials from passwords.
// The zero value is ready to use.
type PasswordHasher struct {
	// Rand is the salt source. Defaults to crypto/rand.Reader.
	Rand io.Reader
}

// Hash computes a credential for password with a fresh random salt.
// The only possible error is a failing random source.
func (h PasswordHasher) Hash(password string) (domain.Credential, error) {
	src := h.Rand
	if src == nil {
		src = rand.Reader
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return domain.Credential{}, fmt.Errorf("read salt: %w", err)
	}

	return domain.Credential{
		Hash: base64.StdEncoding.EncodeToString(digest(password, salt)),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// Verify reports whether password matches cred. A credential whose hash or
// salt is not valid base64, or whose hash has the wrong length, yields
// domain.ErrCorruptCredential.
func (h PasswordHasher) Verify(password string, cred domain.Credential) (bool, error) {
	want, err := base64.StdEncoding.DecodeString(cred.Hash)
	if err != nil {
		return false, errors.Join(domain.ErrCorruptCredential, fmt.Errorf("decode hash: %w", err))
	}

	if len(want) != sha256.Size {
		return false, fmt.Errorf("hash is %d bytes: %w", len(want), domain.ErrCorruptCredential)
	}

	salt, err := base64.StdEncoding.DecodeString(cred.Salt)
	if err != nil {
		return false, errors.Join(domain.ErrCorruptCredential, fmt.Errorf("decode salt: %w", err))
	}

	return subtle.ConstantTimeCompare(digest(password, salt), want) == 1, nil
}

func digest(password string, salt []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte(password))
	hasher.Write(salt)

	return hasher.Sum(nil)
}
