package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kidsrec/chatbot/internal/adapters/storage/memory"
	"github.com/kidsrec/chatbot/internal/app/catalog"
	"github.com/kidsrec/chatbot/internal/domain"
)

func seed() memory.CatalogSeed {
	var s memory.CatalogSeed
	ranges := []domain.AgeRange{domain.Ages3To5, domain.Ages6To8, domain.Ages9To12, domain.Ages13Plus}
	for i := 0; i < 12; i++ {
		r := ranges[i%len(ranges)]
		s.Books = append(s.Books, domain.Book{ID: fmt.Sprintf("b%d", i), Title: fmt.Sprintf("Book %d", i), AgeRange: r})
		s.Videos = append(s.Videos, domain.Video{ID: fmt.Sprintf("v%d", i), Title: fmt.Sprintf("Video %d", i), AgeRange: r})
	}
	return s
}

func TestForUserFiltersByAge(t *testing.T) {
	ctx := context.Background()
	profiles := memory.NewProfileStore()
	_ = profiles.SaveProfile(ctx, "kid", &domain.UserProfile{Name: "Sam", Age: 7})

	svc := catalog.NewService(memory.NewCatalogStore(seed()), profiles)

	picks, err := svc.ForUser(ctx, "kid")
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(picks.Books) != 3 || len(picks.Videos) != 3 {
		t.Fatalf("expected 3 books and 3 videos for a 7 year old, got %d/%d", len(picks.Books), len(picks.Videos))
	}
	for _, b := range picks.Books {
		if b.AgeRange != domain.Ages6To8 {
			t.Fatalf("unexpected book age range %s", b.AgeRange)
		}
	}
}

func TestForUserCapsAtFive(t *testing.T) {
	svc := catalog.NewService(memory.NewCatalogStore(seed()), memory.NewProfileStore())

	picks, err := svc.ForUser(context.Background(), "unknown-kid")
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(picks.Books) != 5 || len(picks.Videos) != 5 {
		t.Fatalf("expected 5 of each, got %d/%d", len(picks.Books), len(picks.Videos))
	}
	if picks.Books[0].ID != "b0" {
		t.Fatalf("expected library order to be kept")
	}
}

func TestForUserOmitsBlockedVideos(t *testing.T) {
	ctx := context.Background()
	profiles := memory.NewProfileStore()
	_ = profiles.SaveProfile(ctx, "kid", &domain.UserProfile{
		Age:     10,
		Filters: domain.ContentFilters{VideosBlocked: true},
	})

	svc := catalog.NewService(memory.NewCatalogStore(seed()), profiles)

	picks, err := svc.ForUser(ctx, "kid")
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(picks.Videos) != 0 {
		t.Fatalf("expected no videos, got %d", len(picks.Videos))
	}
	if len(picks.Books) == 0 {
		t.Fatalf("expected books")
	}
}

func TestGetBookNotFound(t *testing.T) {
	svc := catalog.NewService(memory.NewCatalogStore(seed()), nil)

	if _, err := svc.GetBook(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	v, err := svc.GetVideo(context.Background(), "v3")
	if err != nil || v.Title != "Video 3" {
		t.Fatalf("unexpected video %+v, err %v", v, err)
	}
}

func TestParseAgeRange(t *testing.T) {
	tests := []struct {
		in     domain.AgeRange
		lo, hi int
		ok     bool
	}{
		{domain.Ages3To5, 3, 5, true},
		{domain.Ages9To12, 9, 12, true},
		{domain.Ages13Plus, 13, math.MaxInt, true},
		{"", 0, 0, false},
		{"AGES_8_6", 0, 0, false},
		{"ages_6_8", 0, 0, false},
		{"TEENS", 0, 0, false},
	}
	for _, tt := range tests {
		lo, hi, ok := catalog.ParseAgeRange(tt.in)
		if lo != tt.lo || hi != tt.hi || ok != tt.ok {
			t.Fatalf("%q: got (%d, %d, %v), want (%d, %d, %v)", tt.in, lo, hi, ok, tt.lo, tt.hi, tt.ok)
		}
	}
}

func TestSuitable(t *testing.T) {
	tests := []struct {
		name    string
		r       domain.AgeRange
		profile domain.UserProfile
		want    bool
	}{
		{"lower bound inclusive", domain.Ages6To8, domain.UserProfile{Age: 6}, true},
		{"upper bound inclusive", domain.Ages6To8, domain.UserProfile{Age: 8}, true},
		{"too young", domain.Ages9To12, domain.UserProfile{Age: 8}, false},
		{"unknown age", domain.Ages13Plus, domain.UserProfile{}, true},
		{"unparsable range", "SOMETHING", domain.UserProfile{Age: 4}, true},
		{"open band", domain.Ages13Plus, domain.UserProfile{Age: 17}, true},
		{"parental cap", domain.Ages13Plus, domain.UserProfile{Filters: domain.ContentFilters{MaxAgeRating: 12}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.Suitable(tt.r, tt.profile); got != tt.want {
				t.Fatalf("Suitable = %v, want %v", got, tt.want)
			}
		})
	}
}
