package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

var ErrMissingItemID = errors.New("favorite item id is required")

// Service keeps the items a child saved for later.
type Service struct {
	store domain.FavoriteStore
	now   func() time.Time
}

func NewService(store domain.FavoriteStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Item is what gets saved; usually copied from a recommendation card.
type Item struct {
	ItemID      string
	Kind        domain.RecommendationKind
	Title       string
	Description string
	ImageURL    string
}

// Add saves item for the user. Saving the same item again overwrites it.
func (s *Service) Add(ctx context.Context, userID domain.UserID, item Item) (*domain.Favorite, error) {
	if strings.TrimSpace(item.ItemID) == "" {
		return nil, domain.NewError(domain.KindValidation, "add favorite", ErrMissingItemID)
	}

	kind := domain.KindBook
	if strings.EqualFold(string(item.Kind), string(domain.KindVideo)) {
		kind = domain.KindVideo
	}

	fav := &domain.Favorite{
		ID:          domain.FavoriteID(userID, item.ItemID),
		UserID:      userID,
		ItemID:      item.ItemID,
		Kind:        kind,
		Title:       item.Title,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		AddedAt:     s.now(),
	}

	if err := s.store.PutFavorite(ctx, fav); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to add favorite",
			"user_id", userID,
			"item_id", item.ItemID,
			"error", err,
		)
		return nil, domain.NewError(domain.KindStore, "add favorite", err)
	}
	return fav, nil
}

func (s *Service) Remove(ctx context.Context, userID domain.UserID, itemID string) error {
	if err := s.store.DeleteFavorite(ctx, userID, domain.FavoriteID(userID, itemID)); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to remove favorite",
			"user_id", userID,
			"item_id", itemID,
			"error", err,
		)
		return domain.NewError(domain.KindStore, "remove favorite", err)
	}
	return nil
}

// List returns the user's favorites, newest first.
func (s *Service) List(ctx context.Context, userID domain.UserID) ([]*domain.Favorite, error) {
	favs, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, "list favorites", err)
	}
	return favs, nil
}

// IsFavorite treats a failed lookup as "not saved".
func (s *Service) IsFavorite(ctx context.Context, userID domain.UserID, itemID string) bool {
	_, err := s.store.GetFavorite(ctx, userID, domain.FavoriteID(userID, itemID))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		observability.LoggerFromContext(ctx).Warn("favorite lookup failed",
			"user_id", userID,
			"item_id", itemID,
			"error", err,
		)
	}
	return err == nil
}
