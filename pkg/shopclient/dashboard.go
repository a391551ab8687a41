package shopclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"omifemcuts/internal/analytics"
	"omifemcuts/internal/catalog"
	"omifemcuts/pkg/domain"
)

// DashboardState is a snapshot of the admin dashboard.
type DashboardState struct {
	Users     []domain.User
	Styles    []domain.Style
	Feedback  []domain.Feedback
	Analytics domain.Analytics
}

// Dashboard keeps the admin view of users, styles and feedback. Mutations
// apply locally first and are then replaced by the server's record. When a
// mutation fails the record is re-fetched, and when that also fails the
// local change is rolled back.
type Dashboard struct {
	client  *Client
	session *Session

	mu    sync.Mutex
	state DashboardState
}

// NewDashboard returns an empty dashboard; call Load before reading it.
func NewDashboard(client *Client, session *Session) *Dashboard {
	return &Dashboard{client: client, session: session}
}

// State returns a copy of the current collections and analytics.
func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DashboardState{
		Users:     append([]domain.User(nil), d.state.Users...),
		Styles:    append([]domain.Style(nil), d.state.Styles...),
		Feedback:  append([]domain.Feedback(nil), d.state.Feedback...),
		Analytics: d.state.Analytics,
	}
}

// Load fetches the three collections in parallel. Only uploaded styles are
// kept. Any failure leaves the previous state in place and returns the first error.
func (d *Dashboard) Load(ctx context.Context) error {
	token, err := d.token()
	if err != nil {
		return err
	}
	var (
		users    []domain.User
		styles   []domain.Style
		feedback []domain.Feedback
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = d.client.ListUsers(gctx, token)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		styles, err = d.allStyles(gctx)
		if err != nil {
			return fmt.Errorf("load styles: %w", err)
		}
		styles = domain.UploadedStyles(styles)
		return nil
	})
	g.Go(func() error {
		var err error
		feedback, err = d.client.ListFeedback(gctx, token)
		if err != nil {
			return fmt.Errorf("load feedback: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d.mu.Lock()
	d.state = DashboardState{Users: users, Styles: styles, Feedback: feedback}
	d.recomputeLocked()
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) allStyles(ctx context.Context) ([]domain.Style, error) {
	var (
		out    []domain.Style
		cursor string
	)
	for {
		page, err := d.client.FetchStyles(ctx, cursor, maxStylePage)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

const maxStylePage = 60

var _ catalog.Fetcher = (*Client)(nil)

func (d *Dashboard) SetUserRole(ctx context.Context, userID string, role domain.UserRole) (domain.User, error) {
	token, err := d.token()
	if err != nil {
		return domain.User{}, err
	}
	return mutate(ctx, d, &d.state.Users, userID, userKey,
		func(u domain.User) domain.User { u.Role = role; return u },
		func() (domain.User, error) { return d.client.SetUserRole(ctx, token, userID, role) },
		func(ctx context.Context) (domain.User, error) { return d.client.GetUser(ctx, token, userID) },
	)
}

func (d *Dashboard) DeleteUser(ctx context.Context, userID string) error {
	token, err := d.token()
	if err != nil {
		return err
	}
	return remove(ctx, d, &d.state.Users, userID, userKey,
		func() error { return d.client.DeleteUser(ctx, token, userID) },
		func(ctx context.Context) (domain.User, error) { return d.client.GetUser(ctx, token, userID) },
	)
}

func (d *Dashboard) UpdateStyle(ctx context.Context, styleID string, patch domain.StylePatch) (domain.Style, error) {
	token, err := d.token()
	if err != nil {
		return domain.Style{}, err
	}
	return mutate(ctx, d, &d.state.Styles, styleID, styleKey,
		patch.Apply,
		func() (domain.Style, error) { return d.client.UpdateStyle(ctx, token, styleID, patch) },
		func(ctx context.Context) (domain.Style, error) { return d.client.GetStyle(ctx, styleID) },
	)
}

func (d *Dashboard) DeleteStyle(ctx context.Context, styleID string) error {
	token, err := d.token()
	if err != nil {
		return err
	}
	return remove(ctx, d, &d.state.Styles, styleID, styleKey,
		func() error { return d.client.DeleteStyle(ctx, token, styleID) },
		func(ctx context.Context) (domain.Style, error) { return d.client.GetStyle(ctx, styleID) },
	)
}

func (d *Dashboard) SetFeedbackApproval(ctx context.Context, feedbackID string, approved bool) (domain.Feedback, error) {
	token, err := d.token()
	if err != nil {
		return domain.Feedback{}, err
	}
	return mutate(ctx, d, &d.state.Feedback, feedbackID, feedbackKey,
		func(f domain.Feedback) domain.Feedback { f.Approved = approved; return f },
		func() (domain.Feedback, error) { return d.client.SetFeedbackApproval(ctx, token, feedbackID, approved) },
		func(ctx context.Context) (domain.Feedback, error) { return d.client.GetFeedback(ctx, token, feedbackID) },
	)
}

// ToggleFeedbackApproval flips the approval flag held locally.
func (d *Dashboard) ToggleFeedbackApproval(ctx context.Context, feedbackID string) (domain.Feedback, error) {
	d.mu.Lock()
	i := indexOf(d.state.Feedback, feedbackID, feedbackKey)
	var approved bool
	if i >= 0 {
		approved = !d.state.Feedback[i].Approved
	}
	d.mu.Unlock()
	if i < 0 {
		return domain.Feedback{}, fmt.Errorf("feedback %s not loaded", feedbackID)
	}
	return d.SetFeedbackApproval(ctx, feedbackID, approved)
}

func (d *Dashboard) DeleteFeedback(ctx context.Context, feedbackID string) error {
	token, err := d.token()
	if err != nil {
		return err
	}
	return remove(ctx, d, &d.state.Feedback, feedbackID, feedbackKey,
		func() error { return d.client.DeleteFeedback(ctx, token, feedbackID) },
		func(ctx context.Context) (domain.Feedback, error) { return d.client.GetFeedback(ctx, token, feedbackID) },
	)
}

func (d *Dashboard) token() (string, error) {
	token := d.session.Token()
	if token == "" {
		return "", ErrNotSignedIn
	}
	return token, nil
}

func (d *Dashboard) recomputeLocked() {
	d.state.Analytics = analytics.Compute(d.state.Users, d.state.Styles, d.state.Feedback)
}

func userKey(u domain.User) string         { return u.ID }
func styleKey(s domain.Style) string       { return s.ID }
func feedbackKey(f domain.Feedback) string { return f.ID }

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}

// mutate applies local to the record, calls the server and stores its
// answer. On failure it reconciles through refetch.
func mutate[T any](ctx context.Context, d *Dashboard, items *[]T, id string, key func(T) string,
	local func(T) T, call func() (T, error), refetch func(context.Context) (T, error)) (T, error) {
	var zero T
	d.mu.Lock()
	i := indexOf(*items, id, key)
	if i < 0 {
		d.mu.Unlock()
		return zero, fmt.Errorf("record %s not loaded", id)
	}
	before := (*items)[i]
	(*items)[i] = local(before)
	d.recomputeLocked()
	d.mu.Unlock()

	updated, err := call()
	if err == nil {
		upsert(d, items, id, key, updated, i)
		return updated, nil
	}
	reconcile(ctx, d, items, id, key, before, i, refetch)
	return zero, err
}

// remove drops the record locally, then deletes it on the server.
func remove[T any](ctx context.Context, d *Dashboard, items *[]T, id string, key func(T) string,
	call func() error, refetch func(context.Context) (T, error)) error {
	d.mu.Lock()
	i := indexOf(*items, id, key)
	if i < 0 {
		d.mu.Unlock()
		return fmt.Errorf("record %s not loaded", id)
	}
	before := (*items)[i]
	*items = append((*items)[:i:i], (*items)[i+1:]...)
	d.recomputeLocked()
	d.mu.Unlock()

	err := call()
	if err == nil {
		return nil
	}
	reconcile(ctx, d, items, id, key, before, i, refetch)
	return err
}

// reconcile restores the server's view of one record after a failed write:
// the fetched record when available, nothing when the server no longer has
// it, and the pre-mutation copy when the re-fetch fails too.
func reconcile[T any](ctx context.Context, d *Dashboard, items *[]T, id string, key func(T) string, before T, pos int, refetch func(context.Context) (T, error)) {
	fresh, err := refetch(ctx)
	switch {
	case err == nil:
		upsert(d, items, id, key, fresh, pos)
	case isNotFound(err):
		drop(d, items, id, key)
	default:
		upsert(d, items, id, key, before, pos)
	}
}

// upsert replaces the record, or inserts it at pos when it is missing.
func upsert[T any](d *Dashboard, items *[]T, id string, key func(T) string, value T, pos int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := indexOf(*items, id, key); i >= 0 {
		(*items)[i] = value
	} else {
		pos = min(max(pos, 0), len(*items))
		next := make([]T, 0, len(*items)+1)
		next = append(next, (*items)[:pos]...)
		next = append(next, value)
		*items = append(next, (*items)[pos:]...)
	}
	d.recomputeLocked()
}

func drop[T any](d *Dashboard, items *[]T, id string, key func(T) string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := indexOf(*items, id, key); i >= 0 {
		*items = append((*items)[:i:i], (*items)[i+1:]...)
	}
	d.recomputeLocked()
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
