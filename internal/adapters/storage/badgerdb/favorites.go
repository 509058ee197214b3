package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/kidsrec/chatbot/internal/domain"
)

type favoriteRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ItemID      string    `json:"item_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	AddedAt     time.Time `json:"added_at"`
}

func (r favoriteRecord) toDomain() *domain.Favorite {
	return &domain.Favorite{
		ID:          r.ID,
		UserID:      domain.UserID(r.UserID),
		ItemID:      r.ItemID,
		Kind:        domain.RecommendationKind(r.Kind),
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		AddedAt:     r.AddedAt,
	}
}

func (s *Store) PutFavorite(_ context.Context, fav *domain.Favorite) error {
	rec := favoriteRecord{
		ID:          fav.ID,
		UserID:      string(fav.UserID),
		ItemID:      fav.ItemID,
		Kind:        string(fav.Kind),
		Title:       fav.Title,
		Description: fav.Description,
		ImageURL:    fav.ImageURL,
		AddedAt:     fav.AddedAt,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, favKey(fav.UserID, fav.ID), rec)
	})
	if err != nil {
		return fmt.Errorf("badger PutFavorite: %w", err)
	}
	return nil
}

func (s *Store) DeleteFavorite(_ context.Context, userID domain.UserID, favoriteID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(favKey(userID, favoriteID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger DeleteFavorite: %w", err)
	}
	return nil
}

func (s *Store) GetFavorite(_ context.Context, userID domain.UserID, favoriteID string) (*domain.Favorite, error) {
	var rec favoriteRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, favKey(userID, favoriteID), &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("badger GetFavorite: %w", err)
	}
	return rec.toDomain(), nil
}

// ListFavorites returns the newest additions first.
func (s *Store) ListFavorites(_ context.Context, userID domain.UserID) ([]*domain.Favorite, error) {
	var out []*domain.Favorite
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, favPrefix(userID), false, func(_, val []byte) error {
			var rec favoriteRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode favorite: %w", err)
			}
			out = append(out, rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badger ListFavorites: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}
