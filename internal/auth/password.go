package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks a credential that can never verify.
const unusablePrefix = "!"

// PasswordHasher derives and verifies one-way password credentials.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a bcrypt-backed hasher.
// The cost is clamped to the range bcrypt accepts.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// ErrPasswordTooLong is returned by Hash for passwords bcrypt cannot accept.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hash derives a credential from password. An empty password yields an
// unusable credential rather than an error.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return h.Unusable()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Unusable returns a random credential that no password verifies against.
func (h *PasswordHasher) Unusable() (string, error) {
	suffix, err := GenerateSecureString(30)
	if err != nil {
		return "", err
	}
	return unusablePrefix + suffix, nil
}

// Verify reports whether password matches the stored credential.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	if password == "" || !IsUsable(hash) {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NeedsRehash reports whether hash was created with a different cost.
func (h *PasswordHasher) NeedsRehash(hash string) bool {
	if !IsUsable(hash) {
		return false
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// IsUsable reports whether hash can ever verify a password.
func IsUsable(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}
