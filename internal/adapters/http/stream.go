package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

// handleStream pushes the full message list as a server-sent event every time
// the conversation changes. Only the latest snapshot is kept if the client
// reads slower than the store writes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	updates := make(chan []*domain.Message, 1)

	sub, err := s.conversations.Subscribe(ctx, userIDParam(r), conversationIDParam(r), func(msgs []*domain.Message) {
		for {
			select {
			case updates <- msgs:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := observability.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-sub.Done():
			if err := sub.Err(); err != nil {
				log.Warn("message feed stopped", "error", err)
			}
			return
		case msgs := <-updates:
			data, err := json.Marshal(map[string]any{"messages": toMessagesResponse(msgs)})
			if err != nil {
				log.Error("failed to encode snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
