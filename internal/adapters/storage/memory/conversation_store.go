package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kidsrec/chatbot/internal/adapters/storage/feed"
	"github.com/kidsrec/chatbot/internal/domain"
)

type convKey struct {
	userID domain.UserID
	id     domain.ConversationID
}

// ConversationStore is an in-memory domain.ConversationStore.
// It is NOT persistent and is only suitable for development / local mode.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[convKey]*domain.Conversation
	messages      map[convKey][]*domain.Message

	// changed[k] is closed and replaced on every write to k.
	changed map[convKey]chan struct{}

	now func() time.Time
}

var _ domain.ConversationStore = (*ConversationStore)(nil)

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[convKey]*domain.Conversation),
		messages:      make(map[convKey][]*domain.Message),
		changed:       make(map[convKey]chan struct{}),
		now:           time.Now,
	}
}

func (s *ConversationStore) CreateConversation(_ context.Context, userID domain.UserID) (*domain.Conversation, error) {
	now := s.now()
	conv := &domain.Conversation{
		ID:          domain.ConversationID(uuid.NewString()),
		UserID:      userID,
		CreatedAt:   now,
		LastUpdated: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[convKey{userID, conv.ID}] = conv
	c := *conv
	return &c, nil
}

func (s *ConversationStore) GetConversation(_ context.Context, userID domain.UserID, id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[convKey{userID, id}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *conv
	return &c, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *ConversationStore) ListConversations(_ context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Conversation
	for k, conv := range s.conversations {
		if k.userID != userID {
			continue
		}
		c := *conv
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ConversationStore) TouchConversation(_ context.Context, userID domain.UserID, id domain.ConversationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convKey{userID, id}]
	if !ok {
		return domain.ErrNotFound
	}
	conv.LastUpdated = at
	return nil
}

// AppendMessage replaces a message with the same ID instead of duplicating it.
// The conversation must exist.
func (s *ConversationStore) AppendMessage(_ context.Context, userID domain.UserID, id domain.ConversationID, msg *domain.Message) error {
	k := convKey{userID, id}
	stored := cloneMessage(msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[k]; !ok {
		return domain.ErrNotFound
	}

	msgs := s.messages[k]
	replaced := false
	for i, m := range msgs {
		if m.ID == msg.ID {
			msgs[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		msgs = append(msgs, stored)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	s.messages[k] = msgs

	if ch, ok := s.changed[k]; ok {
		close(ch)
		delete(s.changed, k)
	}
	return nil
}

func (s *ConversationStore) LoadRecentMessages(_ context.Context, userID domain.UserID, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(convKey{userID, id}, limit), nil
}

// SubscribeMessages delivers the current list right away and then a fresh
// list after every append to the conversation.
func (s *ConversationStore) SubscribeMessages(
	ctx context.Context,
	userID domain.UserID,
	id domain.ConversationID,
	listener domain.MessageListener,
) (domain.Subscription, error) {
	k := convKey{userID, id}

	return feed.Start(ctx, listener, func(ctx context.Context, emit func([]*domain.Message)) error {
		for {
			s.mu.Lock()
			msgs := s.snapshot(k, 0)
			ch, ok := s.changed[k]
			if !ok {
				ch = make(chan struct{})
				s.changed[k] = ch
			}
			s.mu.Unlock()

			emit(msgs)

			select {
			case <-ctx.Done():
				return nil
			case <-ch:
			}
		}
	}), nil
}

// snapshot must be called with s.mu held.
func (s *ConversationStore) snapshot(k convKey, limit int) []*domain.Message {
	msgs := s.messages[k]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, cloneMessage(m))
	}
	return out
}

func cloneMessage(m *domain.Message) *domain.Message {
	c := *m
	if m.Recommendations != nil {
		c.Recommendations = append([]domain.Recommendation(nil), m.Recommendations...)
	}
	return &c
}
