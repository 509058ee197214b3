package badgerdb

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/kidsrec/chatbot/internal/domain"
)

type profileRecord struct {
	Name          string   `json:"name"`
	Age           int      `json:"age"`
	Interests     []string `json:"interests,omitempty"`
	ReadingLevel  string   `json:"reading_level,omitempty"`
	MaxAgeRating  int      `json:"max_age_rating,omitempty"`
	BlockedTopics []string `json:"blocked_topics,omitempty"`
	VideosBlocked bool     `json:"videos_blocked,omitempty"`
}

func (s *Store) GetProfile(_ context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	var rec profileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, profileKey(userID), &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("badger GetProfile: %w", err)
	}

	return &domain.UserProfile{
		Name:         rec.Name,
		Age:          rec.Age,
		Interests:    rec.Interests,
		ReadingLevel: rec.ReadingLevel,
		Filters: domain.ContentFilters{
			MaxAgeRating:  rec.MaxAgeRating,
			BlockedTopics: rec.BlockedTopics,
			VideosBlocked: rec.VideosBlocked,
		},
	}, nil
}

func (s *Store) SaveProfile(_ context.Context, userID domain.UserID, profile *domain.UserProfile) error {
	if profile == nil {
		return nil
	}

	rec := profileRecord{
		Name:          profile.Name,
		Age:           profile.Age,
		Interests:     profile.Interests,
		ReadingLevel:  profile.ReadingLevel,
		MaxAgeRating:  profile.Filters.MaxAgeRating,
		BlockedTopics: profile.Filters.BlockedTopics,
		VideosBlocked: profile.Filters.VideosBlocked,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, profileKey(userID), rec)
	})
	if err != nil {
		return fmt.Errorf("badger SaveProfile: %w", err)
	}
	return nil
}
