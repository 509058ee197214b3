package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kidsrec/chatbot/internal/domain"
)

// Store implements the conversation, profile, catalog and favorite ports on
// top of a single Firestore client. Document layout:
//
//	chatHistory/{userID}/conversations/{conversationID}/messages/{messageID}
//	users/{userID}
//	content/library/books/{bookID}
//	content/library/videos/{videoID}
//	favorites/{userID}/items/{favoriteID}
type Store struct {
	client *firestore.Client
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.ProfileStore      = (*Store)(nil)
	_ domain.CatalogStore      = (*Store)(nil)
	_ domain.FavoriteStore     = (*Store)(nil)
)

// NewStore creates a Firestore store for the given project (KIDSREC_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol(userID domain.UserID) *firestore.CollectionRef {
	return s.client.Collection("chatHistory").Doc(string(userID)).Collection("conversations")
}

func (s *Store) conversationDoc(userID domain.UserID, id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol(userID).Doc(string(id))
}

func (s *Store) messagesCol(userID domain.UserID, id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(userID, id).Collection("messages")
}

func (s *Store) userDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(userID))
}

func (s *Store) libraryCol(kind string) *firestore.CollectionRef {
	return s.client.Collection("content").Doc("library").Collection(kind)
}

func (s *Store) favoritesCol(userID domain.UserID) *firestore.CollectionRef {
	return s.client.Collection("favorites").Doc(string(userID)).Collection("items")
}

// wrap tags err with op and maps Firestore NotFound onto domain.ErrNotFound.
func wrap(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("firestore %s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("firestore %s: %w", op, err)
}

// each runs fn over every document of the query.
func each(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	iter := q.Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
