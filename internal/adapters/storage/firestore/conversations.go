package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kidsrec/chatbot/internal/adapters/storage/feed"
	"github.com/kidsrec/chatbot/internal/domain"
)

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"userId"`
	CreatedAt   time.Time `firestore:"createdAt"`
	LastUpdated time.Time `firestore:"lastUpdated"`
}

// Roles are stored uppercase ("USER", "ASSISTANT", "SYSTEM").
type messageDoc struct {
	ID              string              `firestore:"id"`
	Role            string              `firestore:"role"`
	Content         string              `firestore:"content"`
	Timestamp       time.Time           `firestore:"timestamp"`
	Recommendations []recommendationDoc `firestore:"recommendations"`
}

type recommendationDoc struct {
	ID          string `firestore:"id"`
	Type        string `firestore:"type"`
	Title       string `firestore:"title"`
	Description string `firestore:"description"`
	Reason      string `firestore:"reason"`
	ImageURL    string `firestore:"imageUrl"`
}

func toMessageDoc(m *domain.Message) messageDoc {
	recs := make([]recommendationDoc, 0, len(m.Recommendations))
	for _, r := range m.Recommendations {
		recs = append(recs, recommendationDoc{
			ID:          r.ID,
			Type:        string(r.Kind),
			Title:       r.Title,
			Description: r.Description,
			Reason:      r.Reason,
			ImageURL:    r.ImageURL,
		})
	}
	return messageDoc{
		ID:              string(m.ID),
		Role:            strings.ToUpper(string(m.Role)),
		Content:         m.Content,
		Timestamp:       m.CreatedAt,
		Recommendations: recs,
	}
}

func fromMessageDoc(id string, doc messageDoc) *domain.Message {
	msg := &domain.Message{
		ID:        domain.MessageID(id),
		Role:      domain.Role(strings.ToLower(doc.Role)),
		Content:   doc.Content,
		CreatedAt: doc.Timestamp,
	}
	if msg.Role == "" {
		msg.Role = domain.RoleUser
	}
	for _, r := range doc.Recommendations {
		kind := domain.KindBook
		if strings.EqualFold(r.Type, string(domain.KindVideo)) {
			kind = domain.KindVideo
		}
		msg.Recommendations = append(msg.Recommendations, domain.Recommendation{
			ID:          r.ID,
			Kind:        kind,
			Title:       r.Title,
			Description: r.Description,
			Reason:      r.Reason,
			ImageURL:    r.ImageURL,
		})
	}
	return msg
}

func decodeMessages(snaps []*firestore.DocumentSnapshot) ([]*domain.Message, error) {
	out := make([]*domain.Message, 0, len(snaps))
	for _, snap := range snaps {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc %s: %w", snap.Ref.ID, err)
		}
		out = append(out, fromMessageDoc(snap.Ref.ID, doc))
	}
	return out, nil
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(ctx context.Context, userID domain.UserID) (*domain.Conversation, error) {
	ref := s.conversationsCol(userID).NewDoc()
	now := time.Now().UTC()

	doc := conversationDoc{
		ID:          ref.ID,
		UserID:      string(userID),
		CreatedAt:   now,
		LastUpdated: now,
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, wrap("CreateConversation", err)
	}

	return &domain.Conversation{
		ID:          domain.ConversationID(ref.ID),
		UserID:      userID,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

func (s *Store) GetConversation(ctx context.Context, userID domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	snap, err := s.conversationDoc(userID, id).Get(ctx)
	if err != nil {
		return nil, wrap("GetConversation", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConversation decode: %w", err)
	}

	return &domain.Conversation{
		ID:          id,
		UserID:      userID,
		CreatedAt:   doc.CreatedAt,
		LastUpdated: doc.LastUpdated,
	}, nil
}

func (s *Store) ListConversations(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	q := s.conversationsCol(userID).OrderBy("lastUpdated", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*domain.Conversation
	err := each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode conversationDoc: %w", err)
		}
		out = append(out, &domain.Conversation{
			ID:          domain.ConversationID(snap.Ref.ID),
			UserID:      userID,
			CreatedAt:   doc.CreatedAt,
			LastUpdated: doc.LastUpdated,
		})
		return nil
	})
	if err != nil {
		return nil, wrap("ListConversations", err)
	}
	return out, nil
}

func (s *Store) TouchConversation(ctx context.Context, userID domain.UserID, id domain.ConversationID, at time.Time) error {
	_, err := s.conversationDoc(userID, id).Update(ctx, []firestore.Update{
		{Path: "lastUpdated", Value: at},
	})
	if err != nil {
		return wrap("TouchConversation", err)
	}
	return nil
}

// AppendMessage writes the message under its own ID, so a repeated write
// replaces rather than duplicates it. The conversation document is read in
// the same transaction; a missing conversation is domain.ErrNotFound.
func (s *Store) AppendMessage(ctx context.Context, userID domain.UserID, id domain.ConversationID, msg *domain.Message) error {
	convRef := s.conversationDoc(userID, id)
	msgRef := s.messagesCol(userID, id).Doc(string(msg.ID))

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			return err
		}
		return tx.Set(msgRef, toMessageDoc(msg))
	})
	if err != nil {
		return wrap("AppendMessage", err)
	}
	return nil
}

func (s *Store) LoadRecentMessages(ctx context.Context, userID domain.UserID, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	col := s.messagesCol(userID, id)

	if limit <= 0 {
		snaps, err := col.OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
		if err != nil {
			return nil, wrap("LoadRecentMessages", err)
		}
		return decodeMessages(snaps)
	}

	snaps, err := col.OrderBy("timestamp", firestore.Desc).Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, wrap("LoadRecentMessages", err)
	}
	msgs, err := decodeMessages(snaps)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SubscribeMessages forwards every query snapshot of the conversation's
// messages, ordered by timestamp.
func (s *Store) SubscribeMessages(
	ctx context.Context,
	userID domain.UserID,
	id domain.ConversationID,
	listener domain.MessageListener,
) (domain.Subscription, error) {
	q := s.messagesCol(userID, id).OrderBy("timestamp", firestore.Asc)

	return feed.Start(ctx, listener, func(ctx context.Context, emit func([]*domain.Message)) error {
		snaps := q.Snapshots(ctx)
		defer snaps.Stop()

		for {
			qs, err := snaps.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return nil
				}
				return wrap("SubscribeMessages", err)
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				return wrap("SubscribeMessages", err)
			}
			msgs, err := decodeMessages(docs)
			if err != nil {
				return err
			}
			emit(msgs)
		}
	}), nil
}
