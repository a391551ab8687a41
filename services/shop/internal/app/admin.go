package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"omifemcuts/internal/analytics"
	"omifemcuts/internal/util"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
	"omifemcuts/pkg/storage"
	"omifemcuts/pkg/store"
)

// Dashboard is the admin overview: the three collections newest first and
// the analytics derived from them.
type Dashboard struct {
	Users     []domain.User     `json:"users"`
	Styles    []domain.Style    `json:"styles"`
	Feedback  []domain.Feedback `json:"feedback"`
	Analytics domain.Analytics  `json:"analytics"`
}

// Dashboard loads users, styles and feedback in parallel. Any failed load
// fails the whole dashboard.
func (a *App) Dashboard(ctx context.Context, admin domain.User) (Dashboard, error) {
	if !admin.IsAdmin() {
		return Dashboard{}, ErrForbidden
	}
	var (
		users    []domain.User
		styles   []domain.Style
		feedback []domain.Feedback
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = a.store.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		styles, err = a.store.ListStyles(gctx)
		if err != nil {
			return fmt.Errorf("list styles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		feedback, err = a.store.ListFeedback(gctx)
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	styles = domain.UploadedStyles(normalizeStyles(styles))
	if users == nil {
		users = []domain.User{}
	}
	if feedback == nil {
		feedback = []domain.Feedback{}
	}
	return Dashboard{
		Users:     users,
		Styles:    styles,
		Feedback:  feedback,
		Analytics: analytics.Compute(users, styles, feedback),
	}, nil
}

// SetUserRole grants or removes the admin role. Admins cannot change their own role.
func (a *App) SetUserRole(ctx context.Context, admin domain.User, userID string, role domain.UserRole) (domain.User, error) {
	if !admin.IsAdmin() {
		return domain.User{}, ErrForbidden
	}
	if _, ok := domain.ParseUserRole(string(role)); !ok {
		return domain.User{}, invalid("role", "role must be user or admin")
	}
	if userID == admin.ID && role != admin.Role {
		return domain.User{}, ErrCannotChangeOwnRole
	}
	updated, ok, err := a.store.SetUserRole(ctx, userID, role)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return updated, nil
}

// DeleteUser removes a profile and revokes its live sessions.
func (a *App) DeleteUser(ctx context.Context, admin domain.User, userID string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	if userID == admin.ID {
		return ErrCannotDeleteSelf
	}
	deleted, err := a.store.DeleteUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	if err := a.revokeAllUserTokens(userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke deleted user tokens: %w", err)
	}
	return nil
}

// UpdateStyle applies a partial edit and returns the stored style.
func (a *App) UpdateStyle(ctx context.Context, admin domain.User, styleID string, patch domain.StylePatch) (domain.Style, error) {
	if !admin.IsAdmin() {
		return domain.Style{}, ErrForbidden
	}
	if patch.Empty() {
		return domain.Style{}, ErrEmptyPatch
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.Style{}, invalid("title", "title is required")
		}
		patch.Title = &title
	}
	if patch.Tags != nil {
		tags := domain.ParseTags(strings.Join(*patch.Tags, ","))
		patch.Tags = &tags
	}
	if err := check(patch); err != nil {
		return domain.Style{}, err
	}
	updated, ok, err := a.store.UpdateStyle(ctx, styleID, patch)
	if err != nil {
		return domain.Style{}, fmt.Errorf("update style: %w", err)
	}
	if !ok {
		return domain.Style{}, ErrStyleNotFound
	}
	return domain.NormalizeStyle(updated), nil
}

// DeleteStyle removes a style and, best effort, its hosted image.
func (a *App) DeleteStyle(ctx context.Context, admin domain.User, styleID string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	s, ok, err := a.store.GetStyle(ctx, styleID)
	if err != nil {
		return fmt.Errorf("get style: %w", err)
	}
	if !ok {
		return ErrStyleNotFound
	}
	deleted, err := a.store.DeleteStyle(ctx, styleID)
	if err != nil {
		return fmt.Errorf("delete style: %w", err)
	}
	if !deleted {
		return ErrStyleNotFound
	}
	if s.ImageURL != "" {
		if err := a.images.Delete(ctx, s.ImageURL); err != nil && !errors.Is(err, storage.ErrNotHosted) {
			util.LoggerFromContext(ctx).Warn("style image cleanup failed", "style_id", styleID, "err", err)
		}
	}
	a.emit(ctx, events.StyleDeleted, styleID, map[string]string{"by": admin.ID})
	return nil
}

// SetFeedbackApproval publishes or hides a review.
func (a *App) SetFeedbackApproval(ctx context.Context, admin domain.User, feedbackID string, approved bool) (domain.Feedback, error) {
	if !admin.IsAdmin() {
		return domain.Feedback{}, ErrForbidden
	}
	updated, ok, err := a.store.SetFeedbackApproval(ctx, feedbackID, approved)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("update feedback: %w", err)
	}
	if !ok {
		return domain.Feedback{}, ErrFeedbackNotFound
	}
	if updated.Approved {
		a.emit(ctx, events.FeedbackApproved, updated.ID, map[string]string{"by": admin.ID})
	}
	return updated, nil
}

// ToggleFeedbackApproval flips the approval flag of a review.
func (a *App) ToggleFeedbackApproval(ctx context.Context, admin domain.User, feedbackID string) (domain.Feedback, error) {
	if !admin.IsAdmin() {
		return domain.Feedback{}, ErrForbidden
	}
	current, ok, err := a.store.GetFeedback(ctx, feedbackID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("get feedback: %w", err)
	}
	if !ok {
		return domain.Feedback{}, ErrFeedbackNotFound
	}
	return a.SetFeedbackApproval(ctx, admin, feedbackID, !current.Approved)
}

// DeleteFeedback removes a review.
func (a *App) DeleteFeedback(ctx context.Context, admin domain.User, feedbackID string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	deleted, err := a.store.DeleteFeedback(ctx, feedbackID)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if !deleted {
		return ErrFeedbackNotFound
	}
	return nil
}

// GetUser returns one profile for the admin views.
func (a *App) GetUser(ctx context.Context, admin domain.User, userID string) (domain.User, error) {
	if !admin.IsAdmin() {
		return domain.User{}, ErrForbidden
	}
	u, ok, err := a.store.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

// GetFeedback returns one review for the admin views.
func (a *App) GetFeedback(ctx context.Context, admin domain.User, feedbackID string) (domain.Feedback, error) {
	if !admin.IsAdmin() {
		return domain.Feedback{}, ErrForbidden
	}
	f, ok, err := a.store.GetFeedback(ctx, feedbackID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("get feedback: %w", err)
	}
	if !ok {
		return domain.Feedback{}, ErrFeedbackNotFound
	}
	return f, nil
}

// ListContactMessages returns contact form submissions, newest first.
func (a *App) ListContactMessages(ctx context.Context, admin domain.User) ([]domain.ContactMessage, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	msgs, err := a.store.ListContactMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.ContactMessage{}
	}
	return msgs, nil
}

func (a *App) revokeAllUserTokens(userID string, since time.Time) error {
	if userID == "" {
		return nil
	}
	sessionRevoker, ok := a.sessions.(store.UserSessionRevoker)
	if !ok {
		return fmt.Errorf("session store does not support user token revocation")
	}
	return sessionRevoker.RevokeUserSessions(userID, since)
}

// ListUsers returns every profile, newest first.
func (a *App) ListUsers(ctx context.Context, admin domain.User) ([]domain.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ListAllFeedback returns approved and pending reviews, newest first.
func (a *App) ListAllFeedback(ctx context.Context, admin domain.User) ([]domain.Feedback, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	items, err := a.store.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	return items, nil
}
