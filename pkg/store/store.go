package store

import (
	"context"
	"time"

	"omifemcuts/pkg/domain"
)

// Store defines persistence for users, styles, feedback and contact messages.
// Lookups return (zero, false, nil) when the record does not exist.
// List operations order by creation time, newest first.
type Store interface {
	// users
	SaveUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UserCount(ctx context.Context) (int, error)
	SetUserRole(ctx context.Context, id string, role domain.UserRole) (domain.User, bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)

	// styles
	SaveStyle(ctx context.Context, s domain.Style) error
	GetStyle(ctx context.Context, id string) (domain.Style, bool, error)
	ListStyles(ctx context.Context) ([]domain.Style, error)
	ListStylesPage(ctx context.Context, after *Cursor, limit int) ([]domain.Style, error)
	ListStylesByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.Style, error)
	UpdateStyle(ctx context.Context, id string, patch domain.StylePatch) (domain.Style, bool, error)
	AddLike(ctx context.Context, styleID, userID string) (domain.Style, bool, error)
	RemoveLike(ctx context.Context, styleID, userID string) (domain.Style, bool, error)
	DeleteStyle(ctx context.Context, id string) (bool, error)

	// feedback
	SaveFeedback(ctx context.Context, f domain.Feedback) error
	GetFeedback(ctx context.Context, id string) (domain.Feedback, bool, error)
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
	ListApprovedFeedback(ctx context.Context, limit int) ([]domain.Feedback, error)
	SetFeedbackApproval(ctx context.Context, id string, approved bool) (domain.Feedback, bool, error)
	DeleteFeedback(ctx context.Context, id string) (bool, error)

	// contact
	SaveContactMessage(ctx context.Context, m domain.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]domain.ContactMessage, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// UserSessionRevoker is an optional capability that revokes all sessions
// issued for a user up to a cutoff time.
type UserSessionRevoker interface {
	RevokeUserSessions(userID string, since time.Time) error
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
