package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"omifemcuts/pkg/domain"
)

// MemoryStore keeps records in-process. It backs tests and local runs
// without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	styles   map[string]domain.Style
	feedback map[string]domain.Feedback
	contacts []domain.ContactMessage
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		styles:   make(map[string]domain.Style),
		feedback: make(map[string]domain.Feedback),
	}
}

func (m *MemoryStore) SaveUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool {
		return newerFirst(res[i].CreatedAt, res[i].ID, res[j].CreatedAt, res[j].ID)
	})
	return res, nil
}

func (m *MemoryStore) UserCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) SetUserRole(_ context.Context, id string, role domain.UserRole) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u, true, nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	delete(m.users, id)
	delete(m.email, u.Email)
	return true, nil
}

func (m *MemoryStore) SaveStyle(_ context.Context, s domain.Style) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styles[s.ID] = cloneStyle(s)
	return nil
}

func (m *MemoryStore) GetStyle(_ context.Context, id string) (domain.Style, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.styles[id]
	if !ok {
		return domain.Style{}, false, nil
	}
	return cloneStyle(s), true, nil
}

func (m *MemoryStore) ListStyles(_ context.Context) ([]domain.Style, error) {
	return m.selectStyles(nil, 0, nil), nil
}

func (m *MemoryStore) ListStylesPage(_ context.Context, after *Cursor, limit int) ([]domain.Style, error) {
	return m.selectStyles(after, limit, nil), nil
}

func (m *MemoryStore) ListStylesByCategory(_ context.Context, category domain.Category, limit int) ([]domain.Style, error) {
	return m.selectStyles(nil, limit, func(s domain.Style) bool { return s.Category == category }), nil
}

func (m *MemoryStore) selectStyles(after *Cursor, limit int, keep func(domain.Style) bool) []domain.Style {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Style, 0, len(m.styles))
	for _, s := range m.styles {
		if keep != nil && !keep(s) {
			continue
		}
		if after != nil && !after.Before(s.CreatedAt, s.ID) {
			continue
		}
		res = append(res, cloneStyle(s))
	}
	sort.Slice(res, func(i, j int) bool {
		return newerFirst(res[i].CreatedAt, res[i].ID, res[j].CreatedAt, res[j].ID)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (m *MemoryStore) UpdateStyle(_ context.Context, id string, patch domain.StylePatch) (domain.Style, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.styles[id]
	if !ok {
		return domain.Style{}, false, nil
	}
	s = patch.Apply(s)
	s.UpdatedAt = time.Now().UTC()
	m.styles[id] = s
	return cloneStyle(s), true, nil
}

func (m *MemoryStore) AddLike(_ context.Context, styleID, userID string) (domain.Style, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.styles[styleID]
	if !ok {
		return domain.Style{}, false, nil
	}
	if !s.LikedBy(userID) {
		s.Likes = append(append([]string(nil), s.Likes...), userID)
		m.styles[styleID] = s
	}
	return cloneStyle(s), true, nil
}

func (m *MemoryStore) RemoveLike(_ context.Context, styleID, userID string) (domain.Style, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.styles[styleID]
	if !ok {
		return domain.Style{}, false, nil
	}
	likes := make([]string, 0, len(s.Likes))
	for _, id := range s.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	s.Likes = likes
	m.styles[styleID] = s
	return cloneStyle(s), true, nil
}

func (m *MemoryStore) DeleteStyle(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.styles[id]; !ok {
		return false, nil
	}
	delete(m.styles, id)
	return true, nil
}

func (m *MemoryStore) SaveFeedback(_ context.Context, f domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[f.ID] = f
	return nil
}

func (m *MemoryStore) GetFeedback(_ context.Context, id string) (domain.Feedback, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.feedback[id]
	return f, ok, nil
}

func (m *MemoryStore) ListFeedback(_ context.Context) ([]domain.Feedback, error) {
	return m.selectFeedback(false, 0), nil
}

func (m *MemoryStore) ListApprovedFeedback(_ context.Context, limit int) ([]domain.Feedback, error) {
	return m.selectFeedback(true, limit), nil
}

func (m *MemoryStore) selectFeedback(approvedOnly bool, limit int) []domain.Feedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Feedback, 0, len(m.feedback))
	for _, f := range m.feedback {
		if approvedOnly && !f.Approved {
			continue
		}
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool {
		return newerFirst(res[i].CreatedAt, res[i].ID, res[j].CreatedAt, res[j].ID)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (m *MemoryStore) SetFeedbackApproval(_ context.Context, id string, approved bool) (domain.Feedback, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feedback[id]
	if !ok {
		return domain.Feedback{}, false, nil
	}
	f.Approved = approved
	m.feedback[id] = f
	return f, true, nil
}

func (m *MemoryStore) DeleteFeedback(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[id]; !ok {
		return false, nil
	}
	delete(m.feedback, id)
	return true, nil
}

func (m *MemoryStore) SaveContactMessage(_ context.Context, msg domain.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, msg)
	return nil
}

func (m *MemoryStore) ListContactMessages(_ context.Context) ([]domain.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := append([]domain.ContactMessage(nil), m.contacts...)
	sort.Slice(res, func(i, j int) bool {
		return newerFirst(res[i].CreatedAt, res[i].ID, res[j].CreatedAt, res[j].ID)
	})
	return res, nil
}

func newerFirst(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}

func cloneStyle(s domain.Style) domain.Style {
	s.Likes = append([]string(nil), s.Likes...)
	s.Tags = append([]string(nil), s.Tags...)
	return s
}
