package shopclient

import (
	"context"
	"errors"
	"sync"

	"omifemcuts/pkg/domain"
)

// ErrNotSignedIn is returned by session operations that need an identity.
var ErrNotSignedIn = errors.New("shopclient: not signed in")

// Identity is the current signed-in state. A zero Identity means signed out.
type Identity struct {
	Token string
	User  domain.User
}

// SignedIn reports whether the identity carries a session.
func (i Identity) SignedIn() bool { return i.Token != "" }

// Session holds the one current identity of a client process and notifies
// subscribers whenever it changes. Build one per process and share it.
type Session struct {
	client *Client

	mu      sync.RWMutex
	current Identity
	nextID  int
	subs    map[int]func(Identity)
}

// NewSession returns a signed-out session backed by client.
func NewSession(client *Client) *Session {
	return &Session{client: client, subs: make(map[int]func(Identity))}
}

// Subscribe registers fn for identity changes and calls it once with the
// current state. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Current returns the signed-in identity, if any.
func (s *Session) Current() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the session token, or "" when signed out.
func (s *Session) Token() string {
	return s.Current().Token
}

func (s *Session) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	user, token, err := s.client.Register(ctx, email, password, name)
	if err != nil {
		return domain.User{}, err
	}
	s.set(Identity{Token: token, User: user})
	return user, nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) (domain.User, error) {
	user, token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	s.set(Identity{Token: token, User: user})
	return user, nil
}

func (s *Session) SignInWithIDToken(ctx context.Context, idToken string) (domain.User, error) {
	user, token, err := s.client.FederatedLogin(ctx, idToken)
	if err != nil {
		return domain.User{}, err
	}
	s.set(Identity{Token: token, User: user})
	return user, nil
}

// Restore adopts a persisted token after confirming it with the server.
// A rejected token leaves the session signed out.
func (s *Session) Restore(ctx context.Context, token string) (domain.User, error) {
	user, err := s.client.Me(ctx, token)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			s.set(Identity{})
		}
		return domain.User{}, err
	}
	s.set(Identity{Token: token, User: user})
	return user, nil
}

// Refresh re-reads the profile, picking up role or name changes.
func (s *Session) Refresh(ctx context.Context) (domain.User, error) {
	token := s.Token()
	if token == "" {
		return domain.User{}, ErrNotSignedIn
	}
	return s.Restore(ctx, token)
}

// UpdateProfile changes the caller's name and photo and publishes the stored profile.
func (s *Session) UpdateProfile(ctx context.Context, name, photoURL string) (domain.User, error) {
	current := s.Current()
	if !current.SignedIn() {
		return domain.User{}, ErrNotSignedIn
	}
	user, err := s.client.UpdateProfile(ctx, current.Token, name, photoURL)
	if err != nil {
		return domain.User{}, err
	}
	s.set(Identity{Token: current.Token, User: user})
	return user, nil
}

// SignOut revokes the token server-side and always clears the local identity.
func (s *Session) SignOut(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	err := s.client.Logout(ctx, token)
	s.set(Identity{})
	return err
}

func (s *Session) set(next Identity) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	subs := make([]func(Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if sameIdentity(prev, next) {
		return
	}
	for _, fn := range subs {
		fn(next)
	}
}

func sameIdentity(a, b Identity) bool {
	ua, ub := a.User, b.User
	return a.Token == b.Token &&
		ua.ID == ub.ID &&
		ua.Email == ub.Email &&
		ua.Name == ub.Name &&
		ua.PhotoURL == ub.PhotoURL &&
		ua.Provider == ub.Provider &&
		ua.Role == ub.Role &&
		ua.CreatedAt.Equal(ub.CreatedAt) &&
		ua.UpdatedAt.Equal(ub.UpdatedAt)
}
