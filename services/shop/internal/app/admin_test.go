package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
	"omifemcuts/pkg/store"
)

type failingFeedbackStore struct {
	store.Store
}

func (failingFeedbackStore) ListFeedback(context.Context) ([]domain.Feedback, error) {
	return nil, errors.New("connection reset")
}

func TestSubmitFeedbackApprovalDependsOnRole(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	customer, _ := env.register(t, "ada@example.com")
	env.events.Drain()
	ctx := context.Background()

	own, err := env.app.SubmitFeedback(ctx, admin, FeedbackForm{Comment: "We stand by every stitch.", Rating: 5})
	if err != nil {
		t.Fatalf("admin feedback: %v", err)
	}
	if !own.Approved {
		t.Fatalf("admin feedback should be approved immediately")
	}
	pending, err := env.app.SubmitFeedback(ctx, customer, FeedbackForm{Comment: "  Lovely fit, fast delivery!  ", Rating: 4})
	if err != nil {
		t.Fatalf("customer feedback: %v", err)
	}
	if pending.Approved || pending.Comment != "Lovely fit, fast delivery!" || pending.UserName != "ada" {
		t.Fatalf("unexpected customer feedback: %+v", pending)
	}
	public, err := env.app.PublicFeedback(ctx)
	if err != nil {
		t.Fatalf("public feedback: %v", err)
	}
	if len(public) != 1 || public[0].ID != own.ID {
		t.Fatalf("public feedback = %+v, want only the approved entry", public)
	}
	if got := eventTypes(env.events); len(got) != 2 || got[1] != events.FeedbackSubmitted {
		t.Fatalf("events = %v", got)
	}
}

func TestSubmitFeedbackValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	customer, _ := env.register(t, "ada@example.com")
	ctx := context.Background()
	cases := []FeedbackForm{
		{Comment: "too short", Rating: 5},
		{Comment: "          ", Rating: 5},
		{Comment: strings.Repeat("x", 501), Rating: 5},
		{Comment: "A perfectly fine comment", Rating: 0},
		{Comment: "A perfectly fine comment", Rating: 6},
	}
	for _, form := range cases {
		if _, err := env.app.SubmitFeedback(ctx, customer, form); !errors.Is(err, ErrValidation) {
			t.Fatalf("form %+v err = %v, want validation error", form, err)
		}
	}
	if all, _ := env.store.ListFeedback(ctx); len(all) != 0 {
		t.Fatalf("invalid feedback was written: %d entries", len(all))
	}
	if _, err := env.app.SubmitFeedback(ctx, domain.User{}, FeedbackForm{Comment: "Anonymous review text", Rating: 3}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous err = %v", err)
	}
}

func TestPublicFeedbackIsNewestSix(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	ctx := context.Background()
	var ids []string
	for i := 0; i < 8; i++ {
		f, err := env.app.SubmitFeedback(ctx, admin, FeedbackForm{Comment: fmt.Sprintf("Testimonial number %d", i), Rating: 5})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, f.ID)
	}
	public, err := env.app.PublicFeedback(ctx)
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if len(public) != PublicFeedbackLimit {
		t.Fatalf("public = %d, want %d", len(public), PublicFeedbackLimit)
	}
	if public[0].ID != ids[7] || public[5].ID != ids[2] {
		t.Fatalf("public feedback not newest first")
	}
}

func TestFeedbackApprovalRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	customer, _ := env.register(t, "ada@example.com")
	ctx := context.Background()
	f, _ := env.app.SubmitFeedback(ctx, customer, FeedbackForm{Comment: "Beautiful agbada, thank you", Rating: 5})

	approved, err := env.app.SetFeedbackApproval(ctx, admin, f.ID, true)
	if err != nil || !approved.Approved {
		t.Fatalf("approve: %+v err=%v", approved, err)
	}
	if public, _ := env.app.PublicFeedback(ctx); len(public) != 1 {
		t.Fatalf("approved feedback should be public")
	}
	hidden, err := env.app.ToggleFeedbackApproval(ctx, admin, f.ID)
	if err != nil || hidden.Approved {
		t.Fatalf("toggle: %+v err=%v", hidden, err)
	}
	if public, _ := env.app.PublicFeedback(ctx); len(public) != 0 {
		t.Fatalf("unapproved feedback should be hidden")
	}
	if _, err := env.app.SetFeedbackApproval(ctx, customer, f.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin approval err = %v", err)
	}
	if _, err := env.app.SetFeedbackApproval(ctx, admin, "missing", true); !errors.Is(err, ErrFeedbackNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if err := env.app.DeleteFeedback(ctx, admin, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.app.DeleteFeedback(ctx, admin, f.ID); !errors.Is(err, ErrFeedbackNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestDashboardAggregates(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	customer, _ := env.register(t, "ada@example.com")
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.seedStyle(t, "s-1", domain.CategoryParty, 3, base)
	env.seedStyle(t, "s-2", domain.CategoryNative, 2, base.Add(time.Hour))
	_, _ = env.app.SubmitFeedback(ctx, customer, FeedbackForm{Comment: "Great tailoring service", Rating: 5})
	_, _ = env.app.SubmitFeedback(ctx, admin, FeedbackForm{Comment: "Thanks for visiting us", Rating: 5})

	d, err := env.app.Dashboard(ctx, admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	a := d.Analytics
	if a.TotalUsers != 2 || a.TotalStyles != 2 || a.TotalFeedback != 2 || a.TotalLikes != 5 || a.PendingFeedback != 1 {
		t.Fatalf("unexpected analytics: %+v", a)
	}
	if a.RecentSignups[0].ID != customer.ID || a.PopularStyles[0].ID != "s-1" {
		t.Fatalf("unexpected top lists: %+v", a)
	}
	if _, err := env.app.Dashboard(ctx, customer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin dashboard err = %v", err)
	}
}

func TestDashboardCountsUploadedStylesOnly(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.seedStyle(t, "s-1", domain.CategoryParty, 1, base)
	pinned := domain.Style{
		ID:        "p-1",
		Title:     "Pinned gown",
		Category:  domain.CategoryParty,
		Source:    domain.SourcePinterest,
		Likes:     []string{"a", "b", "c", "d"},
		CreatedAt: base.Add(time.Hour),
		UpdatedAt: base.Add(time.Hour),
	}
	if err := env.store.SaveStyle(ctx, pinned); err != nil {
		t.Fatalf("seed pinterest style: %v", err)
	}

	d, err := env.app.Dashboard(ctx, admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Styles) != 1 || d.Styles[0].ID != "s-1" {
		t.Fatalf("dashboard styles = %+v, want only s-1", d.Styles)
	}
	a := d.Analytics
	if a.TotalStyles != 1 || a.TotalLikes != 1 || len(a.PopularStyles) != 1 || a.PopularStyles[0].ID != "s-1" {
		t.Fatalf("unexpected analytics: %+v", a)
	}
}

func TestDashboardFailsAsAWhole(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Store = failingFeedbackStore{Store: c.Store}
	})
	admin := domain.User{ID: "admin", Role: domain.RoleAdmin}
	if _, err := env.app.Dashboard(context.Background(), admin); err == nil || !strings.Contains(err.Error(), "list feedback") {
		t.Fatalf("err = %v, want feedback load failure", err)
	}
}

func TestSetUserRole(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	customer, _ := env.register(t, "ada@example.com")
	ctx := context.Background()

	promoted, err := env.app.SetUserRole(ctx, admin, customer.ID, domain.RoleAdmin)
	if err != nil || promoted.Role != domain.RoleAdmin {
		t.Fatalf("promote: %+v err=%v", promoted, err)
	}
	if _, err := env.app.SetUserRole(ctx, admin, admin.ID, domain.RoleUser); !errors.Is(err, ErrCannotChangeOwnRole) {
		t.Fatalf("self demotion err = %v", err)
	}
	if _, err := env.app.SetUserRole(ctx, admin, customer.ID, domain.UserRole("owner")); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad role err = %v", err)
	}
	if _, err := env.app.SetUserRole(ctx, admin, "missing", domain.RoleUser); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestDeleteUserRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	customer, token := env.register(t, "ada@example.com")
	ctx := context.Background()

	if err := env.app.DeleteUser(ctx, admin, admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Fatalf("self delete err = %v", err)
	}
	if err := env.app.DeleteUser(ctx, admin, customer.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := env.sessions.GetUserIDByToken(token); ok {
		t.Fatalf("deleted user's token should be revoked")
	}
	if _, ok := env.app.UserFromToken(ctx, token); ok {
		t.Fatalf("deleted user should not resolve")
	}
	if err := env.app.DeleteUser(ctx, admin, customer.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestUpdateStylePatch(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	env.seedStyle(t, "s-1", domain.CategoryCasual, 0, time.Now())
	ctx := context.Background()

	title := " Senator Suit "
	category := domain.CategoryOfficial
	price := int64(60000)
	tags := []string{" senator", "", "men "}
	updated, err := env.app.UpdateStyle(ctx, admin, "s-1", domain.StylePatch{Title: &title, Category: &category, PriceWithoutFabrics: &price, Tags: &tags})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Senator Suit" || updated.Category != domain.CategoryOfficial || *updated.PriceWithoutFabrics != price {
		t.Fatalf("unexpected style: %+v", updated)
	}
	if fmt.Sprint(updated.Tags) != "[senator men]" {
		t.Fatalf("tags = %v", updated.Tags)
	}

	blank := "   "
	bad := domain.Category("gowns")
	negative := int64(-5)
	cases := []struct {
		name  string
		patch domain.StylePatch
		want  error
	}{
		{"empty", domain.StylePatch{}, ErrEmptyPatch},
		{"blank title", domain.StylePatch{Title: &blank}, ErrValidation},
		{"bad category", domain.StylePatch{Category: &bad}, ErrValidation},
		{"negative price", domain.StylePatch{PriceWithFabrics: &negative}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.app.UpdateStyle(ctx, admin, "s-1", tc.patch); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := env.app.UpdateStyle(ctx, admin, "missing", domain.StylePatch{Title: &title}); !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestDeleteStyleRemovesHostedImage(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register(t, "owner@example.com")
	ctx := context.Background()
	hosted := domain.Style{ID: "hosted", ImageURL: "https://img.test/styles/a.png", CreatedAt: time.Now()}
	external := domain.Style{ID: "external", ImageURL: "https://i.pinimg.com/b.jpg", CreatedAt: time.Now()}
	_ = env.store.SaveStyle(ctx, hosted)
	_ = env.store.SaveStyle(ctx, external)
	env.events.Drain()

	if err := env.app.DeleteStyle(ctx, admin, "hosted"); err != nil {
		t.Fatalf("delete hosted: %v", err)
	}
	if err := env.app.DeleteStyle(ctx, admin, "external"); err != nil {
		t.Fatalf("delete external: %v", err)
	}
	if len(env.images.deleted) != 1 || env.images.deleted[0] != hosted.ImageURL {
		t.Fatalf("deleted images = %v", env.images.deleted)
	}
	if err := env.app.DeleteStyle(ctx, admin, "hosted"); !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if got := eventTypes(env.events); len(got) != 2 || got[0] != events.StyleDeleted {
		t.Fatalf("events = %v", got)
	}
}

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	msg, err := env.app.SubmitContact(ctx, ContactForm{
		Name:    "Ngozi",
		Email:   "Ngozi@Example.com",
		Phone:   "08031234567",
		Subject: "Wedding outfits",
		Message: "I need six matching outfits for a wedding in May.",
	})
	if err != nil {
		t.Fatalf("submit contact: %v", err)
	}
	if msg.Email != "ngozi@example.com" {
		t.Fatalf("email not normalized: %s", msg.Email)
	}
	_, err = env.app.SubmitContact(ctx, ContactForm{Name: "N", Email: "x", Phone: "1", Subject: "Hi", Message: "short"})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 5 {
		t.Fatalf("err = %v, want five field errors", err)
	}
	admin := domain.User{ID: "admin", Role: domain.RoleAdmin}
	msgs, err := env.app.ListContactMessages(ctx, admin)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages = %v err=%v", msgs, err)
	}
	if got := eventTypes(env.events); len(got) != 1 || got[0] != events.ContactReceived {
		t.Fatalf("events = %v", got)
	}
}
