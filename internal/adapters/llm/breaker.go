package llm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // how long to stay open before a probe
}

// BreakerCompleter fails fast while the completion endpoint keeps failing.
// It never retries: an open breaker is reported as a transport error, which
// the chat service turns into its fallback reply.
type BreakerCompleter struct {
	next domain.Completer
	cb   *gobreaker.CircuitBreaker[string]
}

var _ domain.Completer = (*BreakerCompleter)(nil)

func NewBreakerCompleter(next domain.Completer, cfg BreakerConfig) *BreakerCompleter {
	if cfg.Name == "" {
		cfg.Name = "completion"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Logger().Warn("completion breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			observability.SetBreakerState(name, to.String())
		},
	}

	return &BreakerCompleter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerCompleter) Complete(ctx context.Context, turns []domain.Turn, opts domain.CompletionOptions) (string, error) {
	reply, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, turns, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", domain.NewError(domain.KindTransport, "completion breaker", err)
	}
	return reply, err
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *BreakerCompleter) State() string {
	return b.cb.State().String()
}
