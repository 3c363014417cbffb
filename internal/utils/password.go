package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password an account may have.
const MinPasswordLen = 6

// ValidatePassword rejects passwords shorter than MinPasswordLen or
// longer than bcrypt can hash.
func ValidatePassword(plain string) error {
	switch {
	case len(plain) < MinPasswordLen:
		return fmt.Errorf("password must have at least %d characters", MinPasswordLen)
	case len(plain) > 72:
		return fmt.Errorf("password must have at most 72 bytes")
	}
	return nil
}

// HashPassword bcrypt-hashes plain.  A cost outside bcrypt's accepted
// range is replaced with bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
