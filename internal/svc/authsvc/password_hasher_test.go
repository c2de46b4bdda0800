package authsvc_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/svc/authsvc"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	var hasher authsvc.PasswordHasher

	for _, password := range []string{"secret", "pässwörd", " spaces ", "a"} {
		cred, err := hasher.Hash(password)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", password, err)
		}

		ok, err := hasher.Verify(password, cred)
		if err != nil || !ok {
			t.Errorf("Verify(%q) = %v, %v, want true, nil", password, ok, err)
		}

		ok, err = hasher.Verify(password+"x", cred)
		if err != nil || ok {
			t.Errorf("Verify(%q) = %v, %v, want false, nil", password+"x", ok, err)
		}
	}
}

func TestPasswordHasher_FreshSalt(t *testing.T) {
	t.Parallel()

	var hasher authsvc.PasswordHasher

	first, err := hasher.Hash("secret")
	if err != nil {
		t.Fatal(err)
	}

	second, err := hasher.Hash("secret")
	if err != nil {
		t.Fatal(err)
	}

	if first.Salt == second.Salt {
		t.Error("two hashes share a salt")
	}

	if first.Hash == second.Hash {
		t.Error("two hashes of the same password are equal")
	}
}

func TestPasswordHasher_Layout(t *testing.T) {
	t.Parallel()

	salt := bytes.Repeat([]byte{0x5a}, authsvc.SaltSize)
	hasher := authsvc.PasswordHasher{Rand: bytes.NewReader(salt)}

	cred, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatal(err)
	}

	want := sha256.Sum256(append([]byte("hunter2"), salt...))

	if got := cred.Hash; got != base64.StdEncoding.EncodeToString(want[:]) {
		t.Errorf("Hash = %s, want sha256(password ++ salt)", got)
	}

	if got := cred.Salt; got != base64.StdEncoding.EncodeToString(salt) {
		t.Errorf("Salt = %s, want %d bytes of 0x5a", got, authsvc.SaltSize)
	}
}

func TestPasswordHasher_RandomSourceFails(t *testing.T) {
	t.Parallel()

	errEntropy := errors.New("entropy exhausted")
	hasher := authsvc.PasswordHasher{Rand: iotest.ErrReader(errEntropy)}

	if _, err := hasher.Hash("secret"); !errors.Is(err, errEntropy) {
		t.Errorf("Hash() error = %v, want %v", err, errEntropy)
	}
}

func TestPasswordHasher_CorruptCredential(t *testing.T) {
	t.Parallel()

	var hasher authsvc.PasswordHasher

	valid, err := hasher.Hash("secret")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cred domain.Credential
	}{
		{name: "hash not base64", cred: domain.Credential{Hash: "%%%", Salt: valid.Salt}},
		{name: "salt not base64", cred: domain.Credential{Hash: valid.Hash, Salt: "%%%"}},
		{name: "truncated hash", cred: domain.Credential{Hash: "aGFzaA==", Salt: valid.Salt}},
		{name: "empty hash", cred: domain.Credential{Hash: "", Salt: valid.Salt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, err := hasher.Verify("secret", tt.cred)
			if !errors.Is(err, domain.ErrCorruptCredential) {
				t.Errorf("Verify() error = %v, want %v", err, domain.ErrCorruptCredential)
			}

			if ok {
				t.Error("Verify() accepted a corrupt credential")
			}
		})
	}
}
