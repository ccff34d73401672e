package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/campusline/platform/shared/models"
)

// MemoryUserStore enforces the same unique username and email rules as the
// database stores. It backs local development and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return duplicateError("", nil)
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}

func (s *MemoryUserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.Role = user.Role
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = stored
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryUserStore) Close(context.Context) error {
	return nil
}

// checkUnique must be called with the write lock held.
func (s *MemoryUserStore) checkUnique(user *models.User) error {
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return duplicateError(emailUniqueIndex, nil)
		}
		if other.Username == user.Username {
			return duplicateError(usernameUniqueIndex, nil)
		}
	}
	return nil
}
