package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/kidsrec/chatbot/internal/domain"
)

// userDocument mirrors the account document written by the app's sign-up
// flow; only the fields the assistant uses are read.
type userDocument struct {
	Name           string            `firestore:"name"`
	Age            int               `firestore:"age"`
	Interests      []string          `firestore:"interests"`
	ReadingLevel   string            `firestore:"readingLevel"`
	ContentFilters contentFiltersDoc `firestore:"contentFilters"`
}

type contentFiltersDoc struct {
	MaxAgeRating  int      `firestore:"maxAgeRating"`
	BlockedTopics []string `firestore:"blockedTopics"`
	// AllowVideos is a pointer so that a missing field means allowed.
	AllowVideos *bool `firestore:"allowVideos"`
}

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		return nil, wrap("GetProfile", err)
	}

	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return &domain.UserProfile{
		Name:         doc.Name,
		Age:          doc.Age,
		Interests:    doc.Interests,
		ReadingLevel: doc.ReadingLevel,
		Filters: domain.ContentFilters{
			MaxAgeRating:  doc.ContentFilters.MaxAgeRating,
			BlockedTopics: doc.ContentFilters.BlockedTopics,
			VideosBlocked: doc.ContentFilters.AllowVideos != nil && !*doc.ContentFilters.AllowVideos,
		},
	}, nil
}

// SaveProfile merges the profile fields into the user document, leaving
// account fields such as email untouched.
func (s *Store) SaveProfile(ctx context.Context, userID domain.UserID, profile *domain.UserProfile) error {
	if profile == nil {
		return nil
	}

	interests := profile.Interests
	if interests == nil {
		interests = []string{}
	}
	blocked := profile.Filters.BlockedTopics
	if blocked == nil {
		blocked = []string{}
	}

	doc := map[string]interface{}{
		"id":           string(userID),
		"name":         profile.Name,
		"age":          profile.Age,
		"interests":    interests,
		"readingLevel": profile.ReadingLevel,
		"contentFilters": map[string]interface{}{
			"maxAgeRating":  profile.Filters.MaxAgeRating,
			"blockedTopics": blocked,
			"allowVideos":   !profile.Filters.VideosBlocked,
		},
	}

	if _, err := s.userDoc(userID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return wrap("SaveProfile", err)
	}
	return nil
}
