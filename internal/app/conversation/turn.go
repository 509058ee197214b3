package conversation

import (
	"log/slog"
	"time"

	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

// TurnState is the stage a chat turn is in.
type TurnState string

const (
	StateIdle                       TurnState = "idle"
	StatePersistingUserMessage      TurnState = "persisting_user_message"
	StateFetchingHistory            TurnState = "fetching_history"
	StateComposing                  TurnState = "composing"
	StateAwaitingCompletion         TurnState = "awaiting_completion"
	StateParsing                    TurnState = "parsing"
	StatePersistingAssistantMessage TurnState = "persisting_assistant_message"
	StateFailed                     TurnState = "failed"
)

// turn logs each stage transition with the time spent in the previous stage.
type turn struct {
	log        *slog.Logger
	state      TurnState
	started    time.Time
	stageStart time.Time
}

func newTurn(log *slog.Logger) *turn {
	now := time.Now()
	log.Info("chat turn started")
	return &turn{
		log:        log,
		state:      StateIdle,
		started:    now,
		stageStart: now,
	}
}

func (t *turn) enter(next TurnState) {
	now := time.Now()
	t.log.Info("chat turn stage",
		"stage", next,
		"from", t.state,
		"elapsed_ms", now.Sub(t.stageStart).Milliseconds(),
	)
	t.state = next
	t.stageStart = now
}

// fail moves the turn to StateFailed and returns err tagged as a store error.
func (t *turn) fail(op string, err error) error {
	t.log.Error("chat turn failed",
		"stage", t.state,
		"op", op,
		"elapsed_ms", time.Since(t.started).Milliseconds(),
		"error", err,
	)
	t.state = StateFailed
	observability.ChatTurns.WithLabelValues(observability.OutcomeFailed).Inc()
	return domain.NewError(domain.KindStore, op, err)
}

func (t *turn) done(args ...any) {
	t.state = StateIdle
	t.log.Info("chat turn completed",
		append([]any{"elapsed_ms", time.Since(t.started).Milliseconds()}, args...)...,
	)
}
