package userstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/password"
	"github.com/google/uuid"
)

var _ authkeep.UserStore = (*Memory)(nil)

// Memory is a process-local UserStore. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	users  map[string]*authkeep.UserRecord
	hasher *password.Argon2
	now    func() time.Time
}

// NewMemory returns an empty store hashing with h.
func NewMemory(h *password.Argon2) *Memory {
	return &Memory{
		users:  make(map[string]*authkeep.UserRecord),
		hasher: h,
		now:    time.Now,
	}
}

func clone(u *authkeep.UserRecord) *authkeep.UserRecord {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

func (m *Memory) FindByField(_ context.Context, field authkeep.UserField, value string) (*authkeep.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u := m.findLocked(field, value); u != nil {
		return clone(u), nil
	}
	return nil, authkeep.ErrUserNotFound
}

func (m *Memory) findLocked(field authkeep.UserField, value string) *authkeep.UserRecord {
	for _, u := range m.users {
		switch field {
		case authkeep.FieldEmail:
			if u.Email == value {
				return u
			}
		case authkeep.FieldUsername:
			if u.Username == value {
				return u
			}
		}
	}
	return nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*authkeep.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, authkeep.ErrUserNotFound
	}
	return clone(u), nil
}

func (m *Memory) Create(_ context.Context, nu authkeep.NewUser) (*authkeep.UserRecord, error) {
	hash, err := m.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findLocked(authkeep.FieldEmail, nu.Email) != nil || m.findLocked(authkeep.FieldUsername, nu.Username) != nil {
		return nil, authkeep.ErrDuplicateUser
	}

	role := nu.Role
	if role == "" {
		role = authkeep.RoleUser
	}
	now := m.now().UTC()
	u := &authkeep.UserRecord{
		ID:              uuid.NewString(),
		Fullname:        nu.Fullname,
		Username:        nu.Username,
		Email:           nu.Email,
		PasswordHash:    hash,
		ProfileImage:    nu.ProfileImage,
		Role:            role,
		IsEmailVerified: nu.IsEmailVerified,
		IsActive:        nu.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.users[u.ID] = u
	return clone(u), nil
}

func (m *Memory) Update(_ context.Context, id string, upd authkeep.UserUpdate) (*authkeep.UserRecord, error) {
	var hash string
	if upd.Password != nil {
		h, err := m.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, authkeep.ErrUserNotFound
	}
	if upd.Username != nil && *upd.Username != u.Username {
		if m.findLocked(authkeep.FieldUsername, *upd.Username) != nil {
			return nil, authkeep.ErrDuplicateUser
		}
		u.Username = *upd.Username
	}
	if upd.Fullname != nil {
		u.Fullname = *upd.Fullname
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	if upd.RefreshToken != nil {
		u.RefreshToken = *upd.RefreshToken
	}
	if upd.IsEmailVerified != nil {
		u.IsEmailVerified = *upd.IsEmailVerified
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.LastLogin != nil {
		t := *upd.LastLogin
		u.LastLogin = &t
	}
	u.UpdatedAt = m.now().UTC()
	return clone(u), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return authkeep.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// ComparePassword verifies plain and rehashes a matching password stored with weaker
// parameters.
func (m *Memory) ComparePassword(_ context.Context, u *authkeep.UserRecord, plain string) (bool, error) {
	ok, err := verify(m.hasher, u, plain)
	if !ok || err != nil {
		return ok, err
	}
	if hash, stale := upgraded(m.hasher, u, plain); stale {
		m.mu.Lock()
		if cur, found := m.users[u.ID]; found && cur.PasswordHash == u.PasswordHash {
			cur.PasswordHash = hash
		}
		m.mu.Unlock()
	}
	return true, nil
}

// List filters and sorts in memory. Limit <= 0 returns every match.
func (m *Memory) List(_ context.Context, q authkeep.ListQuery) ([]authkeep.UserRecord, int64, error) {
	m.mu.RLock()
	matched := make([]authkeep.UserRecord, 0, len(m.users))
	for _, u := range m.users {
		if matches(u, q) {
			matched = append(matched, *clone(u))
		}
	}
	m.mu.RUnlock()

	desc := !strings.EqualFold(q.SortOrder, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		if desc {
			return less(&matched[j], &matched[i], q.SortBy)
		}
		return less(&matched[i], &matched[j], q.SortBy)
	})

	total := int64(len(matched))
	if q.Limit <= 0 {
		return matched, total, nil
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.Limit
	if start >= len(matched) {
		return []authkeep.UserRecord{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(u *authkeep.UserRecord, q authkeep.ListQuery) bool {
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(u.Fullname), s) &&
			!strings.Contains(strings.ToLower(u.Username), s) &&
			!strings.Contains(strings.ToLower(u.Email), s) {
			return false
		}
	}
	if q.Role != "" && q.Role != "all" && string(u.Role) != q.Role {
		return false
	}
	switch q.Status {
	case "active":
		if !u.IsActive {
			return false
		}
	case "inactive":
		if u.IsActive {
			return false
		}
	case "verified":
		if !u.IsEmailVerified {
			return false
		}
	case "unverified":
		if u.IsEmailVerified {
			return false
		}
	}
	if !q.CreatedAfter.IsZero() && u.CreatedAt.Before(q.CreatedAfter) {
		return false
	}
	return true
}

func less(a, b *authkeep.UserRecord, field string) bool {
	switch field {
	case "fullname":
		return a.Fullname < b.Fullname
	case "username":
		return a.Username < b.Username
	case "email":
		return a.Email < b.Email
	case "role":
		return a.Role < b.Role
	case "lastLogin":
		switch {
		case a.LastLogin == nil:
			return b.LastLogin != nil
		case b.LastLogin == nil:
			return false
		}
		return a.LastLogin.Before(*b.LastLogin)
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
