package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := s.emails[u.Email]; ok {
		return store.ErrDuplicate
	}
	if u.OwnerStatus == "" {
		u.OwnerStatus = model.OwnerNone
	}
	c := *u
	c.Roles = nil
	s.users[u.ID] = c
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Roles = s.rolesLocked(id)
	return &u, nil
}

func (s *Store) GrantRole(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	s.grantLocked(userID, role)
	return nil
}

func (s *Store) grantLocked(userID, role string) {
	if s.roles[userID] == nil {
		s.roles[userID] = map[string]time.Time{}
	}
	if _, ok := s.roles[userID][role]; !ok {
		s.roles[userID][role] = time.Now().UTC()
	}
}

func (s *Store) RolesFor(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rolesLocked(userID), nil
}

func (s *Store) rolesLocked(userID string) []string {
	out := []string{}
	for r := range s.roles[userID] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// ---- owners ----

func ownerOf(u model.User) model.OwnerAccount {
	return model.OwnerAccount{UserID: u.ID, Email: u.Email, FullName: u.FullName, OwnerStatus: u.OwnerStatus, UpdatedAt: u.CreatedAt}
}

func (s *Store) GetOwner(_ context.Context, userID string) (*model.OwnerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	a := ownerOf(u)
	return &a, nil
}

func (s *Store) ListOwnersByStatus(_ context.Context, status model.OwnerStatus) ([]model.OwnerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.OwnerAccount{}
	for _, u := range s.users {
		if u.OwnerStatus == status {
			out = append(out, ownerOf(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) TransitionOwner(_ context.Context, userID string, decide func(*model.OwnerAccount) (model.OwnerStatus, error)) (*model.OwnerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	a := ownerOf(u)
	next, err := decide(&a)
	if err != nil {
		return nil, err
	}
	u.OwnerStatus = next
	s.users[userID] = u
	if next == model.OwnerPending {
		s.grantLocked(userID, model.RoleOwner)
	}
	a.OwnerStatus = next
	a.UpdatedAt = time.Now().UTC()
	return &a, nil
}

// ---- refresh tokens ----

func (s *Store) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tokenHash]; ok {
		return store.ErrDuplicate
	}
	s.tokens[tokenHash] = tokenRow{userID: userID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.revoked || time.Now().UTC().After(t.expiresAt) {
		return "", store.ErrNotFound
	}
	return t.userID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[tokenHash]; ok {
		t.revoked = true
		s.tokens[tokenHash] = t
	}
	return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.tokens {
		if t.userID == userID {
			t.revoked = true
			s.tokens[h] = t
		}
	}
	return nil
}

// ---- cities ----

func (s *Store) ListCities(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cities) == 0 {
		for _, c := range model.DefaultCities {
			s.cities[strings.ToLower(c)] = c
		}
	}
	out := make([]string, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) AddCity(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[strings.ToLower(name)]; !ok {
		s.cities[strings.ToLower(name)] = name
	}
	return nil
}

func (s *Store) DeleteCity(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cities, strings.ToLower(strings.TrimSpace(name)))
	return nil
}
