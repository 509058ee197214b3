package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kidsrec/chatbot/internal/adapters/llm"
	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

// FallbackReply is persisted as the assistant message when the completion
// call fails.
const FallbackReply = "I'm sorry, I couldn't process that. Can you try again?"

// Deps are the collaborators of a Service. Profiles may be nil, in which case
// every turn is composed without a profile.
type Deps struct {
	Completer     domain.Completer
	Conversations domain.ConversationStore
	Profiles      domain.ProfileStore
	Options       domain.CompletionOptions
	Now           func() time.Time
}

// Service runs chat turns. It holds no per-turn state and is safe for
// concurrent use.
type Service struct {
	completer     domain.Completer
	conversations domain.ConversationStore
	profiles      domain.ProfileStore
	opts          domain.CompletionOptions
	now           func() time.Time
}

func NewService(deps Deps) *Service {
	opts := deps.Options
	if opts == (domain.CompletionOptions{}) {
		opts = domain.DefaultCompletionOptions()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		completer:     deps.Completer,
		conversations: deps.Conversations,
		profiles:      deps.Profiles,
		opts:          opts,
		now:           now,
	}
}

type StartConversationOutput struct {
	Conversation *domain.Conversation
}

func (s *Service) StartConversation(ctx context.Context, userID domain.UserID) (*StartConversationOutput, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	log.Info("starting new conversation")

	conv, err := s.conversations.CreateConversation(ctx, userID)
	if err != nil {
		log.Error("failed to create conversation", "error", err)
		return nil, domain.NewError(domain.KindStore, "create conversation", err)
	}

	log.Info("conversation started", "conversation_id", conv.ID)
	return &StartConversationOutput{Conversation: conv}, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *Service) ListConversations(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	convs, err := s.conversations.ListConversations(ctx, userID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list conversations",
			"user_id", userID,
			"error", err,
		)
		return nil, domain.NewError(domain.KindStore, "list conversations", err)
	}
	return convs, nil
}

type SendMessageInput struct {
	UserID         domain.UserID
	ConversationID domain.ConversationID
	Text           string
}

type SendMessageOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// SendMessage runs one turn: persist the user message, load history, compose,
// complete, parse, persist the assistant message.
//
// Blank text is rejected before anything is written. Store failures abort the
// turn with a KindStore error. Completion failures do not: the turn finishes
// with FallbackReply as the assistant message.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		observability.ChatTurns.WithLabelValues(observability.OutcomeRejected).Inc()
		return nil, domain.NewError(domain.KindValidation, "send message", domain.ErrBlankMessage)
	}

	turn := newTurn(observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"conversation_id", in.ConversationID,
	))

	// PersistingUserMessage
	turn.enter(StatePersistingUserMessage)
	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleUser,
		Content:   in.Text,
		CreatedAt: s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, in.UserID, in.ConversationID, userMsg); err != nil {
		return nil, turn.fail("append user message", err)
	}
	if err := s.conversations.TouchConversation(ctx, in.UserID, in.ConversationID, userMsg.CreatedAt); err != nil {
		return nil, turn.fail("touch conversation", err)
	}

	// FetchingHistory
	turn.enter(StateFetchingHistory)
	recent, err := s.conversations.LoadRecentMessages(ctx, in.UserID, in.ConversationID, llm.HistoryWindow+1)
	if err != nil {
		return nil, turn.fail("load history", err)
	}
	history := make([]*domain.Message, 0, len(recent))
	for _, m := range recent {
		if m.ID != userMsg.ID {
			history = append(history, m)
		}
	}
	profile := s.loadProfile(ctx, turn.log, in.UserID)

	// Composing
	turn.enter(StateComposing)
	turns := llm.Compose(profile, history, in.Text)

	// AwaitingCompletion
	turn.enter(StateAwaitingCompletion)
	raw, fellBack := s.complete(ctx, turn.log, turns)

	// Parsing
	turn.enter(StateParsing)
	parsed := llm.ParseReply(raw)
	if parsed.Recovered {
		observability.RecommendationBlockRecoveries.Inc()
		turn.log.Warn("recommendation block could not be used, stripped from reply")
	}
	for _, rec := range parsed.Recommendations {
		observability.RecommendationsParsed.WithLabelValues(string(rec.Kind)).Inc()
	}

	// PersistingAssistantMessage
	turn.enter(StatePersistingAssistantMessage)
	at := s.now()
	if !at.After(userMsg.CreatedAt) {
		at = userMsg.CreatedAt.Add(time.Millisecond)
	}
	assistantMsg := &domain.Message{
		ID:              domain.MessageID(uuid.NewString()),
		Role:            domain.RoleAssistant,
		Content:         parsed.Text,
		CreatedAt:       at,
		Recommendations: parsed.Recommendations,
	}
	if err := s.conversations.AppendMessage(ctx, in.UserID, in.ConversationID, assistantMsg); err != nil {
		return nil, turn.fail("append assistant message", err)
	}
	if err := s.conversations.TouchConversation(ctx, in.UserID, in.ConversationID, at); err != nil {
		turn.log.Warn("failed to touch conversation after reply", "error", err)
	}

	outcome := observability.OutcomeReplied
	if fellBack {
		outcome = observability.OutcomeFallback
	}
	observability.ChatTurns.WithLabelValues(outcome).Inc()
	turn.done("recommendations", len(assistantMsg.Recommendations), "fallback", fellBack)

	return &SendMessageOutput{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// complete calls the model and substitutes FallbackReply on failure. The
// second result reports whether the fallback was used.
func (s *Service) complete(ctx context.Context, log *slog.Logger, turns []domain.Turn) (string, bool) {
	start := time.Now()
	raw, err := s.completer.Complete(ctx, turns, s.opts)
	observability.CompletionDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return raw, false
	}

	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindTransport
	}
	observability.CompletionFallbacks.WithLabelValues(string(kind)).Inc()
	log.Warn("completion failed, using fallback reply",
		"kind", kind,
		"error", err,
	)
	return FallbackReply, true
}

// loadProfile never fails: a missing or unreadable profile yields the zero
// profile.
func (s *Service) loadProfile(ctx context.Context, log *slog.Logger, userID domain.UserID) domain.UserProfile {
	if s.profiles == nil {
		return domain.UserProfile{}
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("no profile for user, composing without one")
		return domain.UserProfile{}
	case err != nil:
		log.Warn("failed to load profile, composing without one", "error", err)
		return domain.UserProfile{}
	case p == nil:
		return domain.UserProfile{}
	}
	return *p
}

// GetTimeline returns the conversation and its newest `limit` messages,
// oldest first. limit <= 0 returns every message.
func (s *Service) GetTimeline(
	ctx context.Context,
	userID domain.UserID,
	conversationID domain.ConversationID,
	limit int,
) (*domain.Conversation, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"conversation_id", conversationID,
		"limit", limit,
	)

	conv, err := s.conversations.GetConversation(ctx, userID, conversationID)
	if err != nil {
		log.Error("failed to get conversation", "error", err)
		return nil, nil, domain.NewError(domain.KindStore, "get conversation", err)
	}

	msgs, err := s.conversations.LoadRecentMessages(ctx, userID, conversationID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, domain.NewError(domain.KindStore, "load messages", err)
	}

	log.Info("fetched conversation timeline", "message_count", len(msgs))
	return conv, msgs, nil
}

// Subscribe attaches listener to the live message list of a conversation.
func (s *Service) Subscribe(
	ctx context.Context,
	userID domain.UserID,
	conversationID domain.ConversationID,
	listener domain.MessageListener,
) (domain.Subscription, error) {
	sub, err := s.conversations.SubscribeMessages(ctx, userID, conversationID, listener)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to subscribe to messages",
			"user_id", userID,
			"conversation_id", conversationID,
			"error", err,
		)
		return nil, domain.NewError(domain.KindStore, "subscribe messages", err)
	}
	return sub, nil
}
