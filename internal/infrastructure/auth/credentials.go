package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash keeps the cost of unknown-user logins equal to known ones
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("docgen-unknown-user"), bcrypt.DefaultCost)

// CredentialStore checks service account passwords against bcrypt hashes
type CredentialStore struct {
	users map[string][]byte
}

// NewCredentialStore parses "username:bcrypt-hash" entries
func NewCredentialStore(entries []string) (*CredentialStore, error) {
	users := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		name, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("invalid auth user entry %q: expected username:hash", entry)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %s: %w", name, err)
		}
		if _, dup := users[name]; dup {
			return nil, fmt.Errorf("duplicate auth user %s", name)
		}
		users[name] = []byte(hash)
	}
	return &CredentialStore{users: users}, nil
}

// Verify returns nil when password matches the stored hash for username
func (c *CredentialStore) Verify(username, password string) error {
	hash, ok := c.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Len returns the number of configured users
func (c *CredentialStore) Len() int {
	return len(c.users)
}

// HashPassword returns a bcrypt hash suitable for an auth.users entry
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
