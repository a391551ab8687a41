package app

import (
	"context"
	"fmt"
	"strings"

	"omifemcuts/internal/contact"
	"omifemcuts/internal/util"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
)

// ContactForm is the public contact page form.
type ContactForm struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"required,min=10,max=20"`
	Subject string `json:"subject" validate:"required,min=5,max=150"`
	Message string `json:"message" validate:"required,min=20,max=5000"`
}

// SubmitContact stores a contact form message.
func (a *App) SubmitContact(ctx context.Context, form ContactForm) (domain.ContactMessage, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = normalizeEmail(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Subject = strings.TrimSpace(form.Subject)
	form.Message = strings.TrimSpace(form.Message)
	if err := check(form); err != nil {
		return domain.ContactMessage{}, err
	}
	msg := domain.ContactMessage{
		ID:        util.NewID(),
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		Subject:   form.Subject,
		Message:   form.Message,
		CreatedAt: a.now(),
	}
	if err := a.store.SaveContactMessage(ctx, msg); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("save contact message: %w", err)
	}
	a.emit(ctx, events.ContactReceived, msg.ID, map[string]string{
		"email":   msg.Email,
		"subject": msg.Subject,
	})
	return msg, nil
}

// ContactLinks returns the shop's outbound links and opening hours.
func (a *App) ContactLinks() contact.Links {
	return contact.AllLinks()
}
