package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/kidsrec/chatbot/internal/app/conversation"
	"github.com/kidsrec/chatbot/internal/app/favorites"
	"github.com/kidsrec/chatbot/internal/domain"
	"github.com/kidsrec/chatbot/internal/observability"
)

const genericErrorMessage = "Something went wrong. Please try again."

var validate = validator.New()

// ─────────────────────────────────────────────
// Conversations
// ─────────────────────────────────────────────

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	out, err := s.conversations.StartConversation(r.Context(), userIDParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(out.Conversation))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	convs, err := s.conversations.ListConversations(r.Context(), userIDParam(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	conv, msgs, err := s.conversations.GetTimeline(r.Context(), userIDParam(r), conversationIDParam(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse{
		Conversation: toConversationResponse(conv),
		Messages:     toMessagesResponse(msgs),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	out, err := s.conversations.SendMessage(r.Context(), conversation.SendMessageInput{
		UserID:         userIDParam(r),
		ConversationID: conversationIDParam(r),
		Text:           req.Text,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	})
}

// ─────────────────────────────────────────────
// Profile
// ─────────────────────────────────────────────

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetProfile(r.Context(), userIDParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p := req.toDomain()
	if err := s.profiles.SaveProfile(r.Context(), userIDParam(r), p); err != nil {
		writeServiceError(w, r, domain.NewError(domain.KindStore, "save profile", err))
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// ─────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	picks, err := s.catalog.ForUser(r.Context(), userIDParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := catalogResponse{
		Books:  make([]bookResponse, 0, len(picks.Books)),
		Videos: make([]videoResponse, 0, len(picks.Videos)),
	}
	for _, b := range picks.Books {
		resp.Books = append(resp.Books, toBookResponse(b))
	}
	for _, v := range picks.Videos {
		resp.Videos = append(resp.Videos, toVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.catalog.GetBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := s.catalog.GetVideo(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

// ─────────────────────────────────────────────
// Favorites
// ─────────────────────────────────────────────

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.favorites.List(r.Context(), userIDParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]favoriteResponse, 0, len(favs))
	for _, f := range favs {
		out = append(out, toFavoriteResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": out})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	fav, err := s.favorites.Add(r.Context(), userIDParam(r), favorites.Item{
		ItemID:      req.ItemID,
		Kind:        domain.RecommendationKind(req.Type),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFavoriteResponse(fav))
}

func (s *Server) handleIsFavorite(w http.ResponseWriter, r *http.Request) {
	ok := s.favorites.IsFavorite(r.Context(), userIDParam(r), chi.URLParam(r, "itemID"))
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": ok})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.favorites.Remove(r.Context(), userIDParam(r), chi.URLParam(r, "itemID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		badRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field: " + verrs[0].Field()
	}
	return "invalid request"
}

// writeServiceError maps an application error to a status code. The raw error
// is logged and never sent to the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrBlankMessage):
		badRequest(w, "Please type a message first.")
		return
	case domain.IsKind(err, domain.KindValidation):
		badRequest(w, "invalid request")
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	observability.LoggerFromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"kind", domain.KindOf(err),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, genericErrorMessage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}
