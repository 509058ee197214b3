package catalog

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"

	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

const (
	// listLimit is how many items of each kind are read from the library.
	listLimit = 20
	// pickLimit is how many items of each kind are returned to the child.
	pickLimit = 5
)

var ageRangePattern = regexp.MustCompile(`^AGES_(\d+)_(\d+|PLUS)$`)

// Service holds the logic of picking library content for a child.
type Service struct {
	store    domain.CatalogStore
	profiles domain.ProfileStore
}

// NewService creates a catalog service. profiles may be nil, in which case
// nothing is filtered.
func NewService(store domain.CatalogStore, profiles domain.ProfileStore) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
	}
}

// Picks is what the library offers a given child.
type Picks struct {
	Books  []*domain.Book
	Videos []*domain.Video
}

// ForUser returns up to five books and five videos suited to the child's age.
// Videos are left out when a parent has turned them off.
func (s *Service) ForUser(ctx context.Context, userID domain.UserID) (*Picks, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	profile := s.profile(ctx, userID)

	books, err := s.store.ListBooks(ctx, listLimit)
	if err != nil {
		log.Error("failed to list books", "error", err)
		return nil, domain.NewError(domain.KindStore, "list books", err)
	}

	picks := &Picks{Books: []*domain.Book{}, Videos: []*domain.Video{}}
	for _, b := range books {
		if len(picks.Books) == pickLimit {
			break
		}
		if Suitable(b.AgeRange, profile) {
			picks.Books = append(picks.Books, b)
		}
	}

	if profile.Filters.VideosBlocked {
		log.Info("videos turned off for user, returning books only", "books", len(picks.Books))
		return picks, nil
	}

	videos, err := s.store.ListVideos(ctx, listLimit)
	if err != nil {
		log.Error("failed to list videos", "error", err)
		return nil, domain.NewError(domain.KindStore, "list videos", err)
	}
	for _, v := range videos {
		if len(picks.Videos) == pickLimit {
			break
		}
		if Suitable(v.AgeRange, profile) {
			picks.Videos = append(picks.Videos, v)
		}
	}

	log.Info("catalog picks", "books", len(picks.Books), "videos", len(picks.Videos))
	return picks, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, "get book", err)
	}
	return b, nil
}

func (s *Service) GetVideo(ctx context.Context, id string) (*domain.Video, error) {
	v, err := s.store.GetVideo(ctx, id)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, "get video", err)
	}
	return v, nil
}

func (s *Service) profile(ctx context.Context, userID domain.UserID) domain.UserProfile {
	if s.profiles == nil {
		return domain.UserProfile{}
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil || p == nil {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			observability.LoggerFromContext(ctx).Warn("failed to load profile, not filtering catalog",
				"user_id", userID,
				"error", err,
			)
		}
		return domain.UserProfile{}
	}
	return *p
}

// Suitable reports whether content in the given age band fits the child. An
// unknown age, an empty band or one that does not parse always fits. A
// parental MaxAgeRating rules out bands that start above it.
func Suitable(r domain.AgeRange, p domain.UserProfile) bool {
	lo, hi, ok := ParseAgeRange(r)
	if !ok {
		return true
	}
	if p.Filters.MaxAgeRating > 0 && lo > p.Filters.MaxAgeRating {
		return false
	}
	if p.Age <= 0 {
		return true
	}
	return p.Age >= lo && p.Age <= hi
}

// ParseAgeRange splits "AGES_6_8" into 6 and 8, both inclusive. The open
// "AGES_13_PLUS" band has no upper bound.
func ParseAgeRange(r domain.AgeRange) (lo, hi int, ok bool) {
	m := ageRangePattern.FindStringSubmatch(string(r))
	if m == nil {
		return 0, 0, false
	}

	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if m[2] == "PLUS" {
		return lo, math.MaxInt, true
	}
	hi, err = strconv.Atoi(m[2])
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}
