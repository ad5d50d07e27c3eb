package storage

import (
	"context"
	"sync"

	"github.com/xaenox/cartcheck-bot/internal/models"
)

// MemoryStorage keeps profiles in a process-local map. Profiles do not
// survive a restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	locks    *userLocks
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		profiles: make(map[string]*models.UserProfile),
		locks:    newUserLocks(),
	}
}

func (s *MemoryStorage) GetOrCreate(ctx context.Context, userID, name string) (*models.UserProfile, error) {
	s.mu.RLock()
	profile, exists := s.profiles[userID]
	s.mu.RUnlock()
	if exists {
		return profile, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another turn may have created the profile in between.
	if profile, exists = s.profiles[userID]; exists {
		return profile, nil
	}

	profile = models.NewUserProfile(userID, name)
	s.profiles[userID] = profile
	return profile, nil
}

func (s *MemoryStorage) Update(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = profile
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, userID)
	return nil
}

func (s *MemoryStorage) Lock(userID string) func() {
	return s.locks.Lock(userID)
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
