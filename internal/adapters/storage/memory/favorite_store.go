package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kidsrec/chatbot/internal/domain"
)

// FavoriteStore is a simple in-memory implementation of domain.FavoriteStore.
type FavoriteStore struct {
	mu       sync.RWMutex
	byUserID map[domain.UserID]map[string]domain.Favorite
}

var _ domain.FavoriteStore = (*FavoriteStore)(nil)

func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{
		byUserID: make(map[domain.UserID]map[string]domain.Favorite),
	}
}

func (s *FavoriteStore) PutFavorite(_ context.Context, fav *domain.Favorite) error {
	if fav == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.byUserID[fav.UserID]
	if !ok {
		items = make(map[string]domain.Favorite)
		s.byUserID[fav.UserID] = items
	}
	items[fav.ID] = *fav
	return nil
}

func (s *FavoriteStore) DeleteFavorite(_ context.Context, userID domain.UserID, favoriteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUserID[userID], favoriteID)
	return nil
}

func (s *FavoriteStore) GetFavorite(_ context.Context, userID domain.UserID, favoriteID string) (*domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fav, ok := s.byUserID[userID][favoriteID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &fav, nil
}

// ListFavorites returns the newest additions first.
func (s *FavoriteStore) ListFavorites(_ context.Context, userID domain.UserID) ([]*domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.byUserID[userID]
	out := make([]*domain.Favorite, 0, len(items))
	for _, fav := range items {
		f := fav
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}
