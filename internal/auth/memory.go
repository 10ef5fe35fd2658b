package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUsers is an in-memory account store used by tests.
type MemoryUsers struct {
	mu      sync.RWMutex
	byEmail map[string]*User
}

// NewMemoryUsers creates an empty in-memory account store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byEmail: make(map[string]*User)}
}

// Create inserts a new account.
func (s *MemoryUsers) Create(_ context.Context, email, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.byEmail[email] = u
	copied := *u
	return &copied, nil
}

// GetByEmail returns the account for email or ErrUserNotFound.
func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}
