package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/kidsrec/chatbot/internal/domain"
)

type favoriteDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"userId"`
	ItemID      string    `firestore:"itemId"`
	Type        string    `firestore:"type"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	ImageURL    string    `firestore:"imageUrl"`
	AddedAt     time.Time `firestore:"addedAt"`
}

func (d favoriteDoc) toDomain() *domain.Favorite {
	return &domain.Favorite{
		ID:          d.ID,
		UserID:      domain.UserID(d.UserID),
		ItemID:      d.ItemID,
		Kind:        domain.RecommendationKind(d.Type),
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		AddedAt:     d.AddedAt,
	}
}

// ─────────────────────────────────────────
// FavoriteStore implementation
// ─────────────────────────────────────────

func (s *Store) PutFavorite(ctx context.Context, fav *domain.Favorite) error {
	doc := favoriteDoc{
		ID:          fav.ID,
		UserID:      string(fav.UserID),
		ItemID:      fav.ItemID,
		Type:        string(fav.Kind),
		Title:       fav.Title,
		Description: fav.Description,
		ImageURL:    fav.ImageURL,
		AddedAt:     fav.AddedAt,
	}
	if _, err := s.favoritesCol(fav.UserID).Doc(fav.ID).Set(ctx, doc); err != nil {
		return wrap("PutFavorite", err)
	}
	return nil
}

func (s *Store) DeleteFavorite(ctx context.Context, userID domain.UserID, favoriteID string) error {
	if _, err := s.favoritesCol(userID).Doc(favoriteID).Delete(ctx); err != nil {
		return wrap("DeleteFavorite", err)
	}
	return nil
}

func (s *Store) GetFavorite(ctx context.Context, userID domain.UserID, favoriteID string) (*domain.Favorite, error) {
	snap, err := s.favoritesCol(userID).Doc(favoriteID).Get(ctx)
	if err != nil {
		return nil, wrap("GetFavorite", err)
	}

	var doc favoriteDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetFavorite decode: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListFavorites(ctx context.Context, userID domain.UserID) ([]*domain.Favorite, error) {
	q := s.favoritesCol(userID).OrderBy("addedAt", firestore.Desc)

	var out []*domain.Favorite
	err := each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var doc favoriteDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode favoriteDoc: %w", err)
		}
		out = append(out, doc.toDomain())
		return nil
	})
	if err != nil {
		return nil, wrap("ListFavorites", err)
	}
	return out, nil
}
