package domain

import (
	"context"
	"time"
)

// Turn is one role-tagged entry of a completion request.
type Turn struct {
	Role    Role
	Content string
}

// CompletionOptions are the sampling settings sent with every request.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// DefaultCompletionOptions returns temperature 0.7 and 500 max tokens.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{Temperature: 0.7, MaxTokens: 500}
}

// Completer executes a single chat completion. Implementations return a
// KindTransport error when the endpoint cannot be reached or answers with a
// non-success status, and a KindUpstream error when the answer has no choices.
type Completer interface {
	Complete(ctx context.Context, turns []Turn, opts CompletionOptions) (string, error)
}

// MessageListener receives the full, timestamp-ordered message list each time
// the conversation changes.
type MessageListener func(msgs []*Message)

// Subscription is a live message feed.
type Subscription interface {
	// Cancel detaches the listener. Once Cancel returns the listener is never
	// called again. Cancel must not be called from inside the listener.
	Cancel()
	// Done is closed when the feed stops, either cancelled or failed.
	Done() <-chan struct{}
	// Err reports why the feed stopped; nil after a plain Cancel.
	Err() error
}

// ConversationStore persists conversations and their append-only message log.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID UserID) (*Conversation, error)
	GetConversation(ctx context.Context, userID UserID, id ConversationID) (*Conversation, error)
	ListConversations(ctx context.Context, userID UserID, limit int) ([]*Conversation, error)
	TouchConversation(ctx context.Context, userID UserID, id ConversationID, at time.Time) error

	// AppendMessage is an upsert keyed by msg.ID.
	AppendMessage(ctx context.Context, userID UserID, id ConversationID, msg *Message) error
	// LoadRecentMessages returns the newest `limit` messages in ascending
	// timestamp order. limit <= 0 means all.
	LoadRecentMessages(ctx context.Context, userID UserID, id ConversationID, limit int) ([]*Message, error)
	SubscribeMessages(ctx context.Context, userID UserID, id ConversationID, listener MessageListener) (Subscription, error)
}

// ProfileStore is owned by the account side of the app; the chat pipeline only
// reads from it.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID UserID) (*UserProfile, error)
	SaveProfile(ctx context.Context, userID UserID, profile *UserProfile) error
}

// CatalogStore is the curated content library.
type CatalogStore interface {
	ListBooks(ctx context.Context, limit int) ([]*Book, error)
	ListVideos(ctx context.Context, limit int) ([]*Video, error)
	GetBook(ctx context.Context, id string) (*Book, error)
	GetVideo(ctx context.Context, id string) (*Video, error)
}

// FavoriteStore keeps per-user saved items.
type FavoriteStore interface {
	PutFavorite(ctx context.Context, fav *Favorite) error
	DeleteFavorite(ctx context.Context, userID UserID, favoriteID string) error
	GetFavorite(ctx context.Context, userID UserID, favoriteID string) (*Favorite, error)
	ListFavorites(ctx context.Context, userID UserID) ([]*Favorite, error)
}
