package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 10

var (
	ErrPasswordTooShort     = errors.New("password must be at least 10 characters")
	ErrPasswordMissingUpper = errors.New("password must contain an uppercase letter")
	ErrPasswordMissingLower = errors.New("password must contain a lowercase letter")
	ErrPasswordMissingDigit = errors.New("password must contain a digit")
	ErrPasswordMissingMark  = errors.New("password must contain a special character")
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword validates a password against a bcrypt hash.
func CheckPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	var upper, lower, digit, mark bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			mark = true
		}
	}
	switch {
	case !upper:
		return ErrPasswordMissingUpper
	case !lower:
		return ErrPasswordMissingLower
	case !digit:
		return ErrPasswordMissingDigit
	case !mark:
		return ErrPasswordMissingMark
	}
	return nil
}
