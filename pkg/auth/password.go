package auth

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 10
	bcryptMaxBytes = 72
	MinPasswordLen = 6
	MaxPasswordLen = 128
)

// PasswordValidationError reports why a password was rejected
type PasswordValidationError struct {
	Reason string
}

func (e *PasswordValidationError) Error() string {
	return "invalid password: " + e.Reason
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword(bcryptInput(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), bcryptInput(password))
}

// bcryptInput truncates to the 72 bytes bcrypt reads. x/crypto rejects longer
// input, while existing hashes were made by implementations that truncate.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

// ValidatePassword enforces the signup length bounds, counted in characters.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLen {
		return &PasswordValidationError{Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	if n > MaxPasswordLen {
		return &PasswordValidationError{Reason: fmt.Sprintf("must be at most %d characters", MaxPasswordLen)}
	}
	return nil
}
