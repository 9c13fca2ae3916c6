package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost used for every stored credential unless
// auth.bcryptCost says otherwise.
const DefaultCost = 10

var errEmptyPassword = errors.New("password is empty")

// HashPassword hashes a plaintext password with bcrypt. A cost outside
// bcrypt's accepted range falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) == 0 {
		return "", errEmptyPassword
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
