package directory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-memory directory. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]Snapshot
}

// NewMemory returns a Memory seeded with users.
func NewMemory(users ...Snapshot) *Memory {
	m := &Memory{users: make(map[string]Snapshot, len(users))}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

// Put inserts or replaces a user.
func (m *Memory) Put(user Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
}

// Remove deletes a user. Removing an unknown user is a no-op.
func (m *Memory) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// ChangeCredential records a credential rotation at the given time.
func (m *Memory) ChangeCredential(userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.CredentialChangedAt = at
	m.users[userID] = u
	return nil
}

// SetStatus updates a user's account status.
func (m *Memory) SetStatus(userID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	m.users[userID] = u
	return nil
}

// LookupUser returns a copy of the stored snapshot.
func (m *Memory) LookupUser(ctx context.Context, userID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
