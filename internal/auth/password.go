package auth

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword marks a password that fails the strength rules.
var ErrWeakPassword = errors.New("password does not meet requirements")

// Verifier hashes and checks passwords. The rest of the system only
// ever sees the hash; plaintext stops here.
type Verifier interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptVerifier is the production verifier.
type BcryptVerifier struct {
	cost          int
	minLength     int
	requireUpper  bool
	requireLower  bool
	requireNumber bool
}

// NewVerifier creates a bcrypt verifier with the default rules.
func NewVerifier() *BcryptVerifier {
	return &BcryptVerifier{
		cost:          12,
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
	}
}

// Hash validates the password's strength and returns its bcrypt hash.
func (v *BcryptVerifier) Hash(password string) (string, error) {
	if err := v.validate(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare checks a plaintext password against a stored hash.
func (v *BcryptVerifier) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (v *BcryptVerifier) validate(password string) error {
	if len(password) < v.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, v.minLength)
	}
	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}
	if v.requireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if v.requireLower && !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if v.requireNumber && !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the email address format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(email) > 255 {
		return errors.New("email address too long")
	}
	return nil
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// ValidateUsername checks the username format.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username can only contain letters, numbers, underscore, and hyphen")
	}
	return nil
}
