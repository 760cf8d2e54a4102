// Package memory is an in-process implementation of the user directory and
// contact store. It backs the "memory" storage driver and the tests.
package memory

import (
	"context"
	"sync"

	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

type Storage struct {
	mu sync.RWMutex

	users       map[int64]models.User
	emails      map[string]int64
	lastUserID  int64
	contacts    map[int64]models.Contact
	contactIDs  []int64
	lastContact int64
}

func New() *Storage {
	return &Storage{
		users:    make(map[int64]models.User),
		emails:   make(map[string]int64),
		contacts: make(map[int64]models.Contact),
	}
}

func (s *Storage) SaveUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[user.Email]; ok {
		return models.User{}, storage.ErrUserExists
	}

	s.lastUserID++
	user.ID = s.lastUserID
	user.PassHash = append([]byte(nil), user.PassHash...)

	s.users[user.ID] = user
	s.emails[user.Email] = user.ID

	return user, nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (s *Storage) UserByVerificationToken(_ context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, storage.ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.VerificationToken == token {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (s *Storage) UpdateUser(_ context.Context, id int64, patch models.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	if patch.Verified != nil {
		u.Verified = *patch.Verified
	}
	if patch.VerificationToken != nil {
		u.VerificationToken = *patch.VerificationToken
	}
	if patch.SessionToken != nil {
		u.SessionToken = *patch.SessionToken
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	if patch.Subscription != nil {
		u.Subscription = *patch.Subscription
	}

	s.users[id] = u

	return u, nil
}

// Users returns the number of stored accounts.
func (s *Storage) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}
