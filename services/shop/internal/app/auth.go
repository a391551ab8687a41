package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"omifemcuts/internal/idtoken"
	"omifemcuts/internal/util"
	"omifemcuts/pkg/auth"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
)

// RegisterForm is the password sign-up payload.
type RegisterForm struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
	Name     string `json:"name" validate:"omitempty,max=80"`
}

// ProfileForm updates the editable parts of the caller's profile.
type ProfileForm struct {
	Name     string `json:"name" validate:"required,max=80"`
	PhotoURL string `json:"photoURL" validate:"omitempty,url,max=2048"`
}

// Register creates a password account and issues a session token.
// The first account becomes admin.
func (a *App) Register(ctx context.Context, form RegisterForm) (domain.User, string, error) {
	form.Email = normalizeEmail(form.Email)
	form.Name = strings.TrimSpace(form.Name)
	if form.Email == "" || form.Password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if err := check(form); err != nil {
		return domain.User{}, "", err
	}
	if err := auth.ValidatePassword(form.Password); err != nil {
		return domain.User{}, "", invalid("password", err.Error())
	}
	if _, exists, err := a.store.GetUserByEmail(ctx, form.Email); err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	} else if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}

	role := domain.RoleUser
	count, err := a.store.UserCount(ctx)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}
	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user, err := a.createUser(ctx, domain.User{
		Email:        form.Email,
		Name:         domain.ProfileName(form.Name, form.Email),
		PasswordHash: hash,
		Provider:     domain.ProviderPassword,
		Role:         role,
	})
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	user, ok, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// FederatedLogin verifies a provider ID token, makes sure a profile exists
// for it and issues a session token.
func (a *App) FederatedLogin(ctx context.Context, idToken string) (domain.User, string, error) {
	if a.identity == nil {
		return domain.User{}, "", ErrFederatedLoginDisabled
	}
	identity, err := a.identity.Verify(ctx, idToken)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	user, err := a.EnsureProfile(ctx, identity)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// EnsureProfile returns the profile for a verified identity, creating it on
// first sign-in with the user role.
func (a *App) EnsureProfile(ctx context.Context, identity idtoken.Identity) (domain.User, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email missing", ErrInvalidIDToken)
	}
	user, ok, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if ok {
		if user.PhotoURL == "" && identity.Picture != "" {
			user.PhotoURL = identity.Picture
			user.UpdatedAt = a.now()
			if err := a.store.SaveUser(ctx, user); err != nil {
				return domain.User{}, fmt.Errorf("save user: %w", err)
			}
		}
		return user, nil
	}
	return a.createUser(ctx, domain.User{
		Email:    email,
		Name:     domain.ProfileName(identity.Name, email),
		PhotoURL: identity.Picture,
		Provider: domain.ProviderGoogle,
		Role:     domain.RoleUser,
	})
}

// UserFromToken resolves a user from a session token. The role is read from
// the store on every call so role changes apply to live sessions.
func (a *App) UserFromToken(ctx context.Context, token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(ctx, uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout revokes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UpdateProfile changes the caller's display name and photo.
func (a *App) UpdateProfile(ctx context.Context, user domain.User, form ProfileForm) (domain.User, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.PhotoURL = strings.TrimSpace(form.PhotoURL)
	if err := check(form); err != nil {
		return domain.User{}, err
	}
	current, ok, err := a.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	current.Name = form.Name
	current.PhotoURL = form.PhotoURL
	current.UpdatedAt = a.now()
	if err := a.store.SaveUser(ctx, current); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return current, nil
}

func (a *App) createUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.Email == "" {
		return domain.User{}, errors.New("email required")
	}
	now := a.now()
	user.ID = util.NewID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := a.store.SaveUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	a.emit(ctx, events.UserRegistered, user.ID, map[string]string{
		"email":    user.Email,
		"provider": string(user.Provider),
		"role":     string(user.Role),
	})
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
