package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"omifemcuts/internal/util"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
)

// PublicFeedbackLimit is how many testimonials public pages show.
const PublicFeedbackLimit = 6

// FeedbackForm is a customer review.
type FeedbackForm struct {
	Comment string `json:"comment" validate:"required,min=10,max=500"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// SubmitFeedback stores a review under the author's current name and photo.
// Reviews by admins are published immediately; all others wait for approval.
func (a *App) SubmitFeedback(ctx context.Context, user domain.User, form FeedbackForm) (domain.Feedback, error) {
	if strings.TrimSpace(user.ID) == "" {
		return domain.Feedback{}, ErrUnauthenticated
	}
	form.Comment = strings.TrimSpace(form.Comment)
	if err := check(form); err != nil {
		return domain.Feedback{}, err
	}
	f := domain.Feedback{
		ID:        util.NewID(),
		UserID:    user.ID,
		UserName:  domain.ProfileName(user.Name, user.Email),
		UserPhoto: user.PhotoURL,
		Comment:   form.Comment,
		Rating:    form.Rating,
		Approved:  user.IsAdmin(),
		CreatedAt: a.now(),
	}
	if err := a.store.SaveFeedback(ctx, f); err != nil {
		return domain.Feedback{}, fmt.Errorf("save feedback: %w", err)
	}
	a.emit(ctx, events.FeedbackSubmitted, f.ID, map[string]string{
		"userId":   f.UserID,
		"rating":   strconv.Itoa(f.Rating),
		"approved": strconv.FormatBool(f.Approved),
	})
	return f, nil
}

// PublicFeedback returns the newest approved reviews.
func (a *App) PublicFeedback(ctx context.Context) ([]domain.Feedback, error) {
	items, err := a.store.ListApprovedFeedback(ctx, PublicFeedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("list approved feedback: %w", err)
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	return items, nil
}
