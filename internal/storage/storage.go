package storage

import (
	"context"
	"sync"

	"github.com/xaenox/cartcheck-bot/internal/models"
)

// Storage holds user profiles. Implementations must support concurrent
// creation of unseen users (first writer wins) and provide the per-user
// turn lock: the bot holds the lock for the duration of a state
// transition, and drops it around slow analyzer calls.
type Storage interface {
	// GetOrCreate returns the profile for userID, creating a fresh one
	// in StageNew if none exists yet.
	GetOrCreate(ctx context.Context, userID, name string) (*models.UserProfile, error)

	// Update persists the given profile.
	Update(ctx context.Context, profile *models.UserProfile) error

	// Delete removes the profile entirely.
	Delete(ctx context.Context, userID string) error

	// Lock acquires the exclusive turn lock for userID and returns the
	// release function.
	Lock(userID string) (unlock func())

	Close() error
}

// userLocks hands out one mutex per user ID. Lock entries are never
// reclaimed; the key space is bounded by the user population.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, exists := l.locks[userID]
	if !exists {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
