package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kidsrec/chatbot/internal/adapters/storage/feed"
	"github.com/kidsrec/chatbot/internal/domain"
)

type conversationRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

type messageRecord struct {
	ID              string                 `json:"id"`
	Role            string                 `json:"role"`
	Content         string                 `json:"content"`
	CreatedAt       time.Time              `json:"created_at"`
	Recommendations []recommendationRecord `json:"recommendations,omitempty"`
}

type recommendationRecord struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	ImageURL    string `json:"image_url"`
}

func (r conversationRecord) toDomain() *domain.Conversation {
	return &domain.Conversation{
		ID:          domain.ConversationID(r.ID),
		UserID:      domain.UserID(r.UserID),
		CreatedAt:   r.CreatedAt,
		LastUpdated: r.LastUpdated,
	}
}

func toMessageRecord(m *domain.Message) messageRecord {
	rec := messageRecord{
		ID:        string(m.ID),
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, r := range m.Recommendations {
		rec.Recommendations = append(rec.Recommendations, recommendationRecord{
			ID:          r.ID,
			Kind:        string(r.Kind),
			Title:       r.Title,
			Description: r.Description,
			Reason:      r.Reason,
			ImageURL:    r.ImageURL,
		})
	}
	return rec
}

func (r messageRecord) toDomain() *domain.Message {
	msg := &domain.Message{
		ID:        domain.MessageID(r.ID),
		Role:      domain.Role(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	for _, rr := range r.Recommendations {
		msg.Recommendations = append(msg.Recommendations, domain.Recommendation{
			ID:          rr.ID,
			Kind:        domain.RecommendationKind(rr.Kind),
			Title:       rr.Title,
			Description: rr.Description,
			Reason:      rr.Reason,
			ImageURL:    rr.ImageURL,
		})
	}
	return msg
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(_ context.Context, userID domain.UserID) (*domain.Conversation, error) {
	now := s.now().UTC()
	rec := conversationRecord{
		ID:          uuid.NewString(),
		UserID:      string(userID),
		CreatedAt:   now,
		LastUpdated: now,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, convKey(userID, domain.ConversationID(rec.ID)), rec)
	})
	if err != nil {
		return nil, fmt.Errorf("badger CreateConversation: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) GetConversation(_ context.Context, userID domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	var rec conversationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, convKey(userID, id), &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("badger GetConversation: %w", err)
	}
	return rec.toDomain(), nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *Store) ListConversations(_ context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	var out []*domain.Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, convPrefix(userID), false, func(_, val []byte) error {
			var rec conversationRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode conversation: %w", err)
			}
			out = append(out, rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badger ListConversations: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) TouchConversation(_ context.Context, userID domain.UserID, id domain.ConversationID, at time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec conversationRecord
		if err := getJSON(txn, convKey(userID, id), &rec); err != nil {
			return err
		}
		rec.LastUpdated = at
		return setJSON(txn, convKey(userID, id), rec)
	})
	if err != nil {
		return fmt.Errorf("badger TouchConversation: %w", err)
	}
	return nil
}

// AppendMessage replaces a message with the same ID instead of duplicating
// it. The index entry keeps the lookup by ID cheap when the timestamp, and so
// the record key, changes. Appending to a missing conversation is
// domain.ErrNotFound and writes nothing.
func (s *Store) AppendMessage(_ context.Context, userID domain.UserID, id domain.ConversationID, msg *domain.Message) error {
	key := msgKey(userID, id, msg)
	idxKey := msgIndexKey(userID, id, msg.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(convKey(userID, id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		item, err := txn.Get(idxKey)
		switch {
		case err == nil:
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if string(old) != string(key) {
				if err := txn.Delete(old); err != nil {
					return err
				}
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := setJSON(txn, key, toMessageRecord(msg)); err != nil {
			return err
		}
		return txn.Set(idxKey, key)
	})
	if err != nil {
		return fmt.Errorf("badger AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) LoadRecentMessages(_ context.Context, userID domain.UserID, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		msgs, err = loadMessages(txn, msgPrefix(userID, id), limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger LoadRecentMessages: %w", err)
	}
	return msgs, nil
}

// loadMessages walks the conversation newest first so only `limit` records
// are decoded, then returns them oldest first.
func loadMessages(txn *badger.Txn, prefix []byte, limit int) ([]*domain.Message, error) {
	var out []*domain.Message
	err := scan(txn, prefix, true, func(_, val []byte) error {
		var rec messageRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		out = append(out, rec.toDomain())
		if limit > 0 && len(out) >= limit {
			return errStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SubscribeMessages delivers the current list right away and a fresh list
// whenever a message key of the conversation is written.
func (s *Store) SubscribeMessages(
	ctx context.Context,
	userID domain.UserID,
	id domain.ConversationID,
	listener domain.MessageListener,
) (domain.Subscription, error) {
	prefix := msgPrefix(userID, id)

	snapshot := func() ([]*domain.Message, error) {
		var msgs []*domain.Message
		err := s.db.View(func(txn *badger.Txn) error {
			var err error
			msgs, err = loadMessages(txn, prefix, 0)
			return err
		})
		return msgs, err
	}

	return feed.Start(ctx, listener, func(ctx context.Context, emit func([]*domain.Message)) error {
		msgs, err := snapshot()
		if err != nil {
			return fmt.Errorf("badger SubscribeMessages: %w", err)
		}
		emit(msgs)

		err = s.db.Subscribe(ctx, func(_ *badger.KVList) error {
			msgs, err := snapshot()
			if err != nil {
				return err
			}
			emit(msgs)
			return nil
		}, []pb.Match{{Prefix: prefix}})
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("badger SubscribeMessages: %w", err)
		}
		return nil
	}), nil
}
