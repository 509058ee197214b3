package memory

import (
	"context"
	"sync"

	"github.com/kidsrec/chatbot/internal/domain"
)

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]domain.UserProfile
}

var _ domain.ProfileStore = (*ProfileStore)(nil)

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]domain.UserProfile),
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Interests = append([]string(nil), p.Interests...)
	p.Filters.BlockedTopics = append([]string(nil), p.Filters.BlockedTopics...)
	return &p, nil
}

func (s *ProfileStore) SaveProfile(_ context.Context, userID domain.UserID, profile *domain.UserProfile) error {
	if profile == nil {
		return nil
	}

	p := *profile
	p.Interests = append([]string(nil), profile.Interests...)
	p.Filters.BlockedTopics = append([]string(nil), profile.Filters.BlockedTopics...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = p
	return nil
}
