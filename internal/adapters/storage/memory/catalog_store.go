package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kidsrec/chatbot/internal/domain"
)

// CatalogSeed is the on-disk shape of a catalog seed file.
type CatalogSeed struct {
	Books  []domain.Book  `yaml:"books"`
	Videos []domain.Video `yaml:"videos"`
}

// CatalogStore serves a fixed content library, keeping the seed order.
type CatalogStore struct {
	mu     sync.RWMutex
	books  []domain.Book
	videos []domain.Video
}

var _ domain.CatalogStore = (*CatalogStore)(nil)

func NewCatalogStore(seed CatalogSeed) *CatalogStore {
	return &CatalogStore{
		books:  append([]domain.Book(nil), seed.Books...),
		videos: append([]domain.Video(nil), seed.Videos...),
	}
}

// LoadCatalogSeed reads a YAML seed file. An empty path yields an empty seed.
func LoadCatalogSeed(path string) (CatalogSeed, error) {
	var seed CatalogSeed
	if path == "" {
		return seed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("reading catalog seed: %w", err)
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("decoding catalog seed %s: %w", path, err)
	}
	return seed, nil
}

func (s *CatalogStore) ListBooks(_ context.Context, limit int) ([]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.books)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.Book, 0, n)
	for i := 0; i < n; i++ {
		b := s.books[i]
		out = append(out, &b)
	}
	return out, nil
}

func (s *CatalogStore) ListVideos(_ context.Context, limit int) ([]*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.videos)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.Video, 0, n)
	for i := 0; i < n; i++ {
		v := s.videos[i]
		out = append(out, &v)
	}
	return out, nil
}

func (s *CatalogStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.books {
		if b.ID == id {
			book := b
			return &book, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *CatalogStore) GetVideo(_ context.Context, id string) (*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.videos {
		if v.ID == id {
			video := v
			return &video, nil
		}
	}
	return nil, domain.ErrNotFound
}
