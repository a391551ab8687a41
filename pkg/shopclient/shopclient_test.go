package shopclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"omifemcuts/internal/catalog"
	"omifemcuts/pkg/domain"
)

// fakeShop is a scripted stand-in for the shop API.
type fakeShop struct {
	mu       sync.Mutex
	users    []domain.User
	styles   []domain.Style
	feedback []domain.Feedback

	failApproval bool
	failGet      int // status returned by GET /api/admin/feedback/{id}; 0 serves normally
	failDelete   bool
	logouts      int
	me           domain.User
}

func (f *fakeShop) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer good-token"
	}
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "Tailor#2024x" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Incorrect email address or password", "code": "AUTH_INVALID_CREDENTIALS"})
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: "good-token", User: domain.User{ID: "u-1", Email: req["email"], Role: domain.RoleAdmin}})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logouts++
		f.mu.Unlock()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPatch {
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.me.Name, f.me.PhotoURL = req["name"], req["photoURL"]
		}
		writeJSON(w, http.StatusOK, f.me)
	})
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"items": f.users, "count": len(f.users)})
	})
	mux.HandleFunc("/api/admin/feedback", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"items": f.feedback, "count": len(f.feedback)})
	})
	mux.HandleFunc("/api/admin/feedback/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/api/admin/feedback/")
		idx := -1
		for i, fb := range f.feedback {
			if fb.ID == id {
				idx = i
			}
		}
		switch r.Method {
		case http.MethodGet:
			if f.failGet != 0 {
				writeJSON(w, f.failGet, map[string]string{"error": "nope"})
				return
			}
			if idx < 0 {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "feedback not found"})
				return
			}
			writeJSON(w, http.StatusOK, f.feedback[idx])
		case http.MethodPatch:
			if f.failApproval {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
			var req struct{ Approved bool }
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.feedback[idx].Approved = req.Approved
			writeJSON(w, http.StatusOK, f.feedback[idx])
		}
	})
	mux.HandleFunc("/api/admin/styles/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "true" {
			writeJSON(w, http.StatusPreconditionRequired, map[string]string{"error": "confirmation required"})
			return
		}
		if f.failDelete {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/styles/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "style not found", "code": "STYLE_NOT_FOUND"})
	})
	mux.HandleFunc("/api/styles", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		start, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
		end := min(start+limit, len(f.styles))
		resp := StyleList{Items: f.styles[start:end], Count: end - start}
		if end < len(f.styles) {
			resp.HasMore = true
			resp.NextCursor = strconv.Itoa(end)
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("/api/contact", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "name is required",
			"code":   "CONTACT_INVALID",
			"fields": []FieldError{{Field: "name", Message: "name is required"}},
		})
	})
	return mux
}

func seededShop(styles int) *fakeShop {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeShop{
		me: domain.User{ID: "u-1", Role: domain.RoleAdmin, Name: "Owner"},
		users: []domain.User{
			{ID: "u-1", Role: domain.RoleAdmin, CreatedAt: base},
			{ID: "u-2", Role: domain.RoleUser, CreatedAt: base.Add(time.Hour)},
		},
		feedback: []domain.Feedback{
			{ID: "f-1", Rating: 5, Approved: false, CreatedAt: base},
			{ID: "f-2", Rating: 3, Approved: true, CreatedAt: base.Add(time.Hour)},
		},
	}
	for i := range styles {
		f.styles = append(f.styles, domain.Style{
			ID:        fmt.Sprintf("s-%02d", i),
			Title:     fmt.Sprintf("Style %d", i),
			Category:  domain.CategoryCasual,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return f
}

func newTestClient(t *testing.T, shop *fakeShop) *Client {
	t.Helper()
	srv := httptest.NewServer(shop.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func signedIn(t *testing.T, client *Client) *Session {
	t.Helper()
	session := NewSession(client)
	if _, err := session.SignIn(context.Background(), "owner@omifemcuts.test", "Tailor#2024x"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return session
}

func TestSessionNotifiesSubscribers(t *testing.T) {
	client := newTestClient(t, seededShop(0))
	session := NewSession(client)

	var seen []Identity
	unsubscribe := session.Subscribe(func(id Identity) { seen = append(seen, id) })
	if len(seen) != 1 || seen[0].SignedIn() {
		t.Fatalf("expected initial signed-out notification, got %+v", seen)
	}

	if _, err := session.SignIn(context.Background(), "owner@omifemcuts.test", "wrong"); err == nil {
		t.Fatalf("expected invalid credentials")
	}
	if len(seen) != 1 {
		t.Fatalf("failed sign in should not notify, got %d notifications", len(seen))
	}

	if _, err := session.SignIn(context.Background(), "owner@omifemcuts.test", "Tailor#2024x"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if len(seen) != 2 || seen[1].User.ID != "u-1" {
		t.Fatalf("expected signed-in notification, got %+v", seen)
	}

	unsubscribe()
	_ = session.SignOut(context.Background())
	if len(seen) != 2 {
		t.Fatalf("unsubscribed callback still called")
	}
}

func TestSessionSignOutClearsOnServerError(t *testing.T) {
	shop := seededShop(0)
	session := signedIn(t, newTestClient(t, shop))
	if err := session.SignOut(context.Background()); err == nil {
		t.Fatalf("expected logout error from server")
	}
	if session.Current().SignedIn() {
		t.Fatalf("session should be cleared even when logout fails")
	}
	if shop.logouts != 1 {
		t.Fatalf("expected 1 logout call, got %d", shop.logouts)
	}
}

func TestSessionRestore(t *testing.T) {
	session := NewSession(newTestClient(t, seededShop(0)))
	if _, err := session.Restore(context.Background(), "stale-token"); err == nil {
		t.Fatalf("expected stale token to be rejected")
	}
	if session.Current().SignedIn() {
		t.Fatalf("stale token should leave session signed out")
	}
	user, err := session.Restore(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if user.Name != "Owner" || session.Token() != "good-token" {
		t.Fatalf("unexpected restored session %+v", session.Current())
	}
}

func TestSessionPublishesProfileChanges(t *testing.T) {
	shop := seededShop(0)
	session := NewSession(newTestClient(t, shop))
	ctx := context.Background()
	if _, err := session.Restore(ctx, "good-token"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	var seen []Identity
	session.Subscribe(func(id Identity) { seen = append(seen, id) })

	if _, err := session.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("unchanged refresh should not notify, got %d notifications", len(seen))
	}

	if _, err := session.UpdateProfile(ctx, "Owner", "https://img.example/owner.jpg"); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if len(seen) != 2 || seen[1].User.PhotoURL != "https://img.example/owner.jpg" {
		t.Fatalf("photo change should notify, got %+v", seen)
	}

	shop.mu.Lock()
	shop.me.Email = "new@omifemcuts.test"
	shop.mu.Unlock()
	if _, err := session.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(seen) != 3 || seen[2].User.Email != "new@omifemcuts.test" {
		t.Fatalf("email change should notify, got %+v", seen)
	}
}

func TestAPIErrorCarriesFields(t *testing.T) {
	client := newTestClient(t, seededShop(0))
	_, err := client.SubmitContact(context.Background(), ContactForm{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "CONTACT_INVALID" || len(apiErr.Fields) != 1 {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientBacksCatalogPager(t *testing.T) {
	client := newTestClient(t, seededShop(23))
	pager := catalog.NewPager(client)
	ctx := context.Background()
	if err := pager.LoadInitial(ctx); err != nil {
		t.Fatalf("load initial: %v", err)
	}
	for pager.HasMore() {
		if err := pager.LoadMore(ctx); err != nil {
			t.Fatalf("load more: %v", err)
		}
	}
	if got := len(pager.Displayed()); got != 23 {
		t.Fatalf("expected 23 styles, got %d", got)
	}
}

func TestDashboardLoad(t *testing.T) {
	shop := seededShop(70)
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	state := dash.State()
	if len(state.Styles) != 70 {
		t.Fatalf("expected all 70 styles across pages, got %d", len(state.Styles))
	}
	if state.Analytics.TotalUsers != 2 || state.Analytics.TotalFeedback != 2 || state.Analytics.TotalStyles != 70 {
		t.Fatalf("unexpected analytics %+v", state.Analytics)
	}
}

func TestDashboardSkipsImportedStyles(t *testing.T) {
	shop := seededShop(12)
	for i := 0; i < 12; i += 3 {
		shop.styles[i].Source = domain.SourcePinterest
		shop.styles[i].Likes = []string{"u-2"}
	}
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	state := dash.State()
	if len(state.Styles) != 8 || state.Analytics.TotalStyles != 8 || state.Analytics.TotalLikes != 0 {
		t.Fatalf("expected only the 8 uploaded styles, got %d styles, analytics %+v", len(state.Styles), state.Analytics)
	}
	for _, s := range state.Styles {
		if s.Source == domain.SourcePinterest {
			t.Fatalf("imported style %s loaded into dashboard", s.ID)
		}
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	client := newTestClient(t, seededShop(0))
	dash := NewDashboard(client, NewSession(client))
	if err := dash.Load(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestDashboardApprovalUsesServerRecord(t *testing.T) {
	shop := seededShop(0)
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	f, err := dash.ToggleFeedbackApproval(context.Background(), "f-1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !f.Approved || !dash.State().Feedback[0].Approved {
		t.Fatalf("expected f-1 approved locally and remotely")
	}
}

func TestDashboardFailedMutationRefetches(t *testing.T) {
	shop := seededShop(0)
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	shop.mu.Lock()
	shop.failApproval = true
	// another admin approved it meanwhile
	shop.feedback[0].Approved = true
	shop.feedback[0].Comment = "edited elsewhere"
	shop.mu.Unlock()

	if _, err := dash.SetFeedbackApproval(context.Background(), "f-1", false); err == nil {
		t.Fatalf("expected approval failure")
	}
	got := dash.State().Feedback[0]
	if !got.Approved || got.Comment != "edited elsewhere" {
		t.Fatalf("expected re-fetched record, got %+v", got)
	}
}

func TestDashboardFailedMutationReverts(t *testing.T) {
	shop := seededShop(0)
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	shop.mu.Lock()
	shop.failApproval = true
	shop.failGet = http.StatusBadGateway
	shop.mu.Unlock()

	if _, err := dash.SetFeedbackApproval(context.Background(), "f-1", true); err == nil {
		t.Fatalf("expected approval failure")
	}
	state := dash.State()
	if state.Feedback[0].Approved {
		t.Fatalf("expected approval reverted, got %+v", state.Feedback[0])
	}
	if state.Analytics.PendingFeedback != 1 {
		t.Fatalf("analytics should follow the revert, got %+v", state.Analytics)
	}
}

func TestDashboardFailedDeleteDropsMissingRecord(t *testing.T) {
	shop := seededShop(3)
	shop.failDelete = true
	client := newTestClient(t, shop)
	dash := NewDashboard(client, signedIn(t, client))
	if err := dash.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := dash.DeleteStyle(context.Background(), "s-01"); err == nil {
		t.Fatalf("expected delete failure")
	}
	// the fake reports every style as gone on re-fetch
	state := dash.State()
	if len(state.Styles) != 2 {
		t.Fatalf("expected missing style dropped, got %d styles", len(state.Styles))
	}
}
