package auth

import (
	"errors"
	"testing"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
	if CheckPassword("s3cret", "") {
		t.Fatalf("empty hash must never match")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"Str0ng#Password!", nil},
		{"short1!A", ErrPasswordTooShort},
		{"alllowercase123!", ErrPasswordMissingUpper},
		{"ALLUPPERCASE123!", ErrPasswordMissingLower},
		{"NoDigitsHere!!!", ErrPasswordMissingDigit},
		{"NoSpecials1234", ErrPasswordMissingMark},
	}
	for _, tc := range tests {
		if err := ValidatePassword(tc.password); !errors.Is(err, tc.want) {
			t.Fatalf("ValidatePassword(%q) = %v, want %v", tc.password, err, tc.want)
		}
	}
}
