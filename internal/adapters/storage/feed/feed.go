// Package feed turns a snapshot producer into a domain.Subscription.
package feed

import (
	"context"
	"sync"

	"github.com/kidsrec/chatbot/internal/domain"
)

// PumpFunc produces full message snapshots through emit until ctx is done or
// the underlying source fails.
type PumpFunc func(ctx context.Context, emit func([]*domain.Message)) error

// Feed runs a PumpFunc in its own goroutine and forwards snapshots to a
// listener. Deliveries are serialized and hold the feed lock, so Cancel waits
// for an in-flight delivery and nothing is delivered after it returns.
type Feed struct {
	mu       sync.Mutex
	listener domain.MessageListener
	stopped  bool
	err      error

	cancel context.CancelFunc
	done   chan struct{}
}

var _ domain.Subscription = (*Feed)(nil)

// Start begins pumping in the background.
func Start(ctx context.Context, listener domain.MessageListener, pump PumpFunc) *Feed {
	ctx, cancel := context.WithCancel(ctx)
	f := &Feed{
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go f.run(ctx, pump)
	return f
}

func (f *Feed) run(ctx context.Context, pump PumpFunc) {
	err := pump(ctx, f.emit)

	f.mu.Lock()
	if err != nil && ctx.Err() == nil {
		f.err = err
	}
	f.stopped = true
	f.mu.Unlock()

	f.cancel()
	close(f.done)
}

func (f *Feed) emit(msgs []*domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return
	}
	f.listener(msgs)
}

func (f *Feed) Cancel() {
	f.cancel()

	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
