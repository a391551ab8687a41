package app

import (
	"errors"

	"omifemcuts/internal/validate"
)

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrFederatedLoginDisabled   = errors.New("federated sign-in not configured")
	ErrInvalidIDToken           = errors.New("invalid identity token")
	ErrUnauthenticated          = errors.New("sign in required")

	ErrUserNotFound     = errors.New("user not found")
	ErrStyleNotFound    = errors.New("style not found")
	ErrFeedbackNotFound = errors.New("feedback not found")

	ErrForbidden           = errors.New("admin role required")
	ErrCannotChangeOwnRole = errors.New("cannot change own role")
	ErrCannotDeleteSelf    = errors.New("cannot delete own account")

	ErrValidation       = errors.New("validation failed")
	ErrImageRequired    = errors.New("image required")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedImage = errors.New("image must be an image file")
	ErrEmptyPatch       = errors.New("no fields to update")
	ErrInvalidQuery     = errors.New("invalid query")
)

// ValidationError carries per-field messages for a rejected form.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return e.Fields.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// invalid wraps a single field failure.
func invalid(field, message string) error {
	return &ValidationError{Fields: validate.Errors{{Field: field, Message: message}}}
}

// check runs tag validation on form and converts failures into a ValidationError.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	if fields, ok := validate.Fields(err); ok {
		return &ValidationError{Fields: fields}
	}
	return err
}
