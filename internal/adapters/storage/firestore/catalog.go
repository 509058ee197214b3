package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/kidsrec/chatbot/internal/domain"
)

type bookDoc struct {
	ID           string `firestore:"id"`
	Title        string `firestore:"title"`
	Author       string `firestore:"author"`
	Description  string `firestore:"description"`
	ImageURL     string `firestore:"imageUrl"`
	AgeRange     string `firestore:"ageRange"`
	Genre        string `firestore:"genre"`
	ReadingLevel string `firestore:"readingLevel"`
	ISBN         string `firestore:"isbn"`
	PageCount    int    `firestore:"pageCount"`
}

type videoDoc struct {
	ID           string `firestore:"id"`
	Title        string `firestore:"title"`
	Channel      string `firestore:"channel"`
	Description  string `firestore:"description"`
	ThumbnailURL string `firestore:"thumbnailUrl"`
	VideoURL     string `firestore:"videoUrl"`
	AgeRange     string `firestore:"ageRange"`
	Category     string `firestore:"category"`
	Duration     int    `firestore:"duration"` // minutes
}

func (d bookDoc) toDomain(id string) *domain.Book {
	if d.ID == "" {
		d.ID = id
	}
	return &domain.Book{
		ID:           d.ID,
		Title:        d.Title,
		Author:       d.Author,
		Description:  d.Description,
		ImageURL:     d.ImageURL,
		AgeRange:     domain.AgeRange(d.AgeRange),
		Genre:        d.Genre,
		ReadingLevel: d.ReadingLevel,
		ISBN:         d.ISBN,
		PageCount:    d.PageCount,
	}
}

func (d videoDoc) toDomain(id string) *domain.Video {
	if d.ID == "" {
		d.ID = id
	}
	return &domain.Video{
		ID:              d.ID,
		Title:           d.Title,
		Channel:         d.Channel,
		Description:     d.Description,
		ThumbnailURL:    d.ThumbnailURL,
		VideoURL:        d.VideoURL,
		AgeRange:        domain.AgeRange(d.AgeRange),
		Category:        d.Category,
		DurationMinutes: d.Duration,
	}
}

// ─────────────────────────────────────────
// CatalogStore implementation
// ─────────────────────────────────────────

func (s *Store) ListBooks(ctx context.Context, limit int) ([]*domain.Book, error) {
	q := s.libraryCol("books").Query
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*domain.Book
	err := each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var doc bookDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode bookDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
		return nil
	})
	if err != nil {
		return nil, wrap("ListBooks", err)
	}
	return out, nil
}

func (s *Store) ListVideos(ctx context.Context, limit int) ([]*domain.Video, error) {
	q := s.libraryCol("videos").Query
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*domain.Video
	err := each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var doc videoDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode videoDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
		return nil
	})
	if err != nil {
		return nil, wrap("ListVideos", err)
	}
	return out, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	snap, err := s.libraryCol("books").Doc(id).Get(ctx)
	if err != nil {
		return nil, wrap("GetBook", err)
	}

	var doc bookDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetBook decode: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*domain.Video, error) {
	snap, err := s.libraryCol("videos").Doc(id).Get(ctx)
	if err != nil {
		return nil, wrap("GetVideo", err)
	}

	var doc videoDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetVideo decode: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}
